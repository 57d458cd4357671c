package command

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// Execute runs one command line for s. It returns true only when the
// command body ran and returned nil. Every failure is delivered to the
// owning handler's ErrorReporter (or DefaultReporter) and reported as
// false; nothing panics out of Execute. An unknown command returns false
// without reporting anything.
func (r *Registry) Execute(ctx context.Context, s Sender, line string) bool {
	tokens := strings.Fields(line)
	if len(tokens) == 0 || s == nil {
		return false
	}
	label := r.key(tokens[0])
	d, ok := r.st.Load().commands[label]
	if !ok {
		return false
	}
	raw := tokens[1:]

	if err := r.gate(d, s, label); err != nil {
		r.reportError(d, s, label, err)
		return false
	}

	if hook, ok := d.owner.(BeforeHook); ok && !r.before(hook, s, label, raw) {
		return false
	}

	args, cerr := parseArgs(d, label, raw)
	if cerr != nil {
		r.reportError(d, s, label, cerr)
		return false
	}

	if cerr := r.run(ctx, d, s, label, args); cerr != nil {
		r.reportError(d, s, label, cerr)
		return false
	}

	if hook, ok := d.owner.(AfterHook); ok {
		r.after(hook, s, label, raw)
	}
	return true
}

// gate applies the permission and sender checks in order. A panicking
// sender fails the gate with an ExecutionError.
func (r *Registry) gate(d *Descriptor, s Sender, label string) (cerr *Error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("sender check for %s panicked: %v", label, p)
			cause := fmt.Errorf("panic: %v", p)
			cerr = &Error{Type: ExecutionError, Command: label, Message: cause.Error(), Cause: cause}
		}
	}()
	if d.permission != "" && !s.HasPermission(d.permission) {
		return &Error{Type: NoPermission, Command: label, Message: "No permission"}
	}
	switch d.restriction {
	case PlayerOnly:
		if IsConsole(s) {
			return &Error{Type: PlayerOnlyError, Command: label, Message: "Players only"}
		}
	case ConsoleOnly:
		if !IsConsole(s) {
			return &Error{Type: ConsoleOnlyError, Command: label, Message: "Console only"}
		}
	}
	return nil
}

// parseArgs fills every declared argument from tokens, defaults or zero
// values. Extra tokens are left in Raw.
func parseArgs(d *Descriptor, label string, tokens []string) (Args, *Error) {
	args := Args{
		label:  label,
		names:  make([]string, len(d.args)),
		values: make([]any, len(d.args)),
		raw:    tokens,
	}
	invalid := func(msg string) *Error {
		return &Error{Type: InvalidArguments, Command: label, Message: msg, Usage: d.usage}
	}

	for i, a := range d.args {
		args.names[i] = a.Name
		if i >= len(tokens) {
			if !a.Optional {
				return Args{}, invalid("Missing required argument: " + a.Name)
			}
			v, err := coerce(a.Type, a.Default)
			if err != nil {
				return Args{}, invalid("Invalid default value for argument: " + a.Name)
			}
			args.values[i] = v
			continue
		}

		token := tokens[i]
		if a.Rest {
			token = strings.Join(tokens[i:], " ")
		}
		v, err := coerce(a.Type, token)
		if err != nil {
			return Args{}, invalid(fmt.Sprintf("Invalid %s for argument: %s", a.Type, a.Name))
		}
		args.values[i] = v
	}
	return args, nil
}

// run invokes the command body, converting errors and panics.
func (r *Registry) run(ctx context.Context, d *Descriptor, s Sender, label string, args Args) (cerr *Error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("command %s panicked: %v\n%s", label, p, debug.Stack())
			cause := fmt.Errorf("panic: %v", p)
			cerr = &Error{Type: ExecutionError, Command: label, Message: cause.Error(), Cause: cause}
		}
	}()

	err := d.run(ctx, s, args)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUsage):
		msg := err.Error()
		if err == ErrUsage {
			msg = "Invalid arguments"
		}
		return &Error{Type: InvalidArguments, Command: label, Message: msg, Usage: d.usage, Cause: err}
	default:
		return &Error{Type: ExecutionError, Command: label, Message: innermost(err).Error(), Cause: err}
	}
}

func (r *Registry) before(hook BeforeHook, s Sender, label string, raw []string) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("before hook for %s panicked: %v", label, p)
			ok = false
		}
	}()
	return hook.OnBeforeCommand(s, label, raw)
}

func (r *Registry) after(hook AfterHook, s Sender, label string, raw []string) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("after hook for %s panicked: %v", label, p)
		}
	}()
	hook.OnAfterCommand(s, label, raw)
}

// reportError delivers err to the owner's reporter. A panicking reporter
// is logged and swallowed.
func (r *Registry) reportError(d *Descriptor, s Sender, label string, err *Error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("error reporter for %s panicked: %v", label, p)
		}
	}()
	r.log.Debug("command %s failed: %v", label, err)
	if rep, ok := d.owner.(ErrorReporter); ok {
		rep.OnCommandError(s, label, err)
		return
	}
	DefaultReporter(s, label, err)
}
