package command

import "context"

// RunFunc is a command body. Returning ErrUsage (or an error wrapping it)
// reports InvalidArguments; any other error reports ExecutionError.
type RunFunc func(ctx context.Context, s Sender, args Args) error

// Spec declares one command of a Handler.
type Spec struct {
	// Name is the primary command name. Matching is case-insensitive.
	Name string

	// Aliases are alternative names.
	Aliases []string

	// Description is shown by help listings.
	Description string

	// Usage overrides the generated usage line.
	Usage string

	// Permission is checked before anything else. Empty means none.
	Permission string

	// Restriction limits the sender type.
	Restriction SenderRestriction

	// Args are the positional arguments in order.
	Args []Arg

	// Run is the command body.
	Run RunFunc
}

// Handler declares a table of commands. The handler value is the identity
// used by Unregister, so it must be comparable; use a pointer.
type Handler interface {
	Commands() []Spec
}

// CompletionFunc produces completion candidates. It receives the sender,
// the typed label, every argument token so far and the token being typed.
type CompletionFunc func(s Sender, label string, args []string, current string) []string

// ErrorReporter is implemented by handlers that render their own errors.
// Handlers without it get DefaultReporter.
type ErrorReporter interface {
	OnCommandError(s Sender, label string, err *Error)
}

// BeforeHook is implemented by handlers that gate execution after the
// permission and sender checks. Returning false stops silently; the hook
// owns any feedback.
type BeforeHook interface {
	OnBeforeCommand(s Sender, label string, args []string) bool
}

// AfterHook is implemented by handlers that observe successful execution.
type AfterHook interface {
	OnAfterCommand(s Sender, label string, args []string)
}

// CompletionProvider is implemented by handlers that offer named
// completion methods for arguments declared with CompleteMethod.
type CompletionProvider interface {
	CompletionMethods() map[string]CompletionFunc
}

// DefaultReporter sends the standard message for err to s.
func DefaultReporter(s Sender, _ string, err *Error) {
	s.SendMessage(DefaultMessage(err))
}

// DefaultMessage renders the standard user-facing message for err.
func DefaultMessage(err *Error) string {
	switch err.Type {
	case InvalidArguments:
		return "Invalid arguments. Usage: " + err.Usage
	case NoPermission:
		return "You don't have permission to use this command."
	case PlayerOnlyError:
		return "This command can only be used by players."
	case ConsoleOnlyError:
		return "This command can only be used from console."
	case ExecutionError:
		return "An error occurred while executing the command: " + err.Message
	default:
		return "Command failed: " + err.Message
	}
}
