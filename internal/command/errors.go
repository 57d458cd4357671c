package command

import (
	"errors"
	"fmt"
)

// ErrorType classifies a runtime command failure.
type ErrorType int

const (
	// Unknown is an unclassified failure.
	Unknown ErrorType = iota
	// InvalidArguments means a required argument was missing or a token
	// or default did not coerce.
	InvalidArguments
	// NoPermission means the sender lacks the command's permission.
	NoPermission
	// PlayerOnlyError means the console ran a player-only command.
	PlayerOnlyError
	// ConsoleOnlyError means a non-console sender ran a console-only command.
	ConsoleOnlyError
	// ExecutionError means the command body failed or panicked.
	ExecutionError
)

// String returns the error type name.
func (t ErrorType) String() string {
	switch t {
	case InvalidArguments:
		return "invalid_arguments"
	case NoPermission:
		return "no_permission"
	case PlayerOnlyError:
		return "player_only"
	case ConsoleOnlyError:
		return "console_only"
	case ExecutionError:
		return "execution_error"
	default:
		return "unknown"
	}
}

// ErrUsage may be returned by a command body to report bad input. It is
// delivered as InvalidArguments with the command's usage line.
var ErrUsage = errors.New("incorrect usage")

// Error is a runtime command failure delivered to the owning handler's
// error hook. It never escapes Execute.
type Error struct {
	// Type classifies the failure.
	Type ErrorType

	// Command is the label the sender typed, folded.
	Command string

	// Message describes the failure.
	Message string

	// Usage is the usage line, set for InvalidArguments.
	Usage string

	// Cause is the underlying error for ExecutionError, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Usage != "" {
		return fmt.Sprintf("command %s: %s: %s (usage: %s)", e.Command, e.Type, e.Message, e.Usage)
	}
	return fmt.Sprintf("command %s: %s: %s", e.Command, e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// innermost follows the Unwrap chain to its last error.
func innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// Registration errors. They are wrapped in a *RegistrationError.
var (
	// ErrNilHandler is returned when registering a nil handler.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrNotComparable is returned for handler values that cannot serve as
	// an identity, such as slices and maps. Register a pointer.
	ErrNotComparable = errors.New("handler is not comparable")

	// ErrEmptyName is returned for a command without a name.
	ErrEmptyName = errors.New("command name is empty")

	// ErrInvalidName is returned for names containing whitespace or the prefix.
	ErrInvalidName = errors.New("command name is invalid")

	// ErrNilRun is returned for a command without a body.
	ErrNilRun = errors.New("command has no Run function")

	// ErrEmptyArgName is returned for an argument without a name.
	ErrEmptyArgName = errors.New("argument name is empty")

	// ErrDuplicateArg is returned when two arguments share a name.
	ErrDuplicateArg = errors.New("duplicate argument name")

	// ErrUnknownType is returned for an undeclared semantic type.
	ErrUnknownType = errors.New("unknown argument type")

	// ErrUnknownCompletion is returned for an undeclared completion kind.
	ErrUnknownCompletion = errors.New("unknown completion kind")

	// ErrRequiredAfterOptional is returned when a required argument follows
	// an optional one.
	ErrRequiredAfterOptional = errors.New("required argument after optional argument")

	// ErrRestNotLast is returned when a rest argument is not the last one.
	ErrRestNotLast = errors.New("rest argument must be last")

	// ErrRestNotString is returned when a rest argument is not a String.
	ErrRestNotString = errors.New("rest argument must be a String")

	// ErrUnknownCompletionMethod is returned when an argument names a
	// completion method its handler does not provide.
	ErrUnknownCompletionMethod = errors.New("unknown completion method")

	// ErrInvalidRestriction is returned for an undeclared sender restriction.
	ErrInvalidRestriction = errors.New("invalid sender restriction")
)

// RegistrationError describes a programmer error found while registering.
// Nothing from the handler is registered when one is returned.
type RegistrationError struct {
	// Handler is the Go type of the offending handler.
	Handler string

	// Command is the offending command name, if known.
	Command string

	// Arg is the offending argument name, if any.
	Arg string

	// Err is the underlying sentinel.
	Err error
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	msg := "register " + e.Handler
	if e.Command != "" {
		msg += ": command " + e.Command
	}
	if e.Arg != "" {
		msg += ": argument " + e.Arg
	}
	return msg + ": " + e.Err.Error()
}

// Unwrap returns the underlying sentinel.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}
