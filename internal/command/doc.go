// Package command routes text command lines to registered handlers.
//
// A Handler declares a table of Specs. Register validates the whole table
// and installs each command under its name and aliases, matched
// case-insensitively. Execute tokenizes a line, strips the prefix, runs
// the permission and sender gates and the optional BeforeHook, coerces
// positional arguments to their semantic types and calls the body.
// Runtime failures never escape Execute: they become an *Error delivered
// to the handler's ErrorReporter, or to DefaultReporter.
//
// Complete resolves tab completions with layered precedence: handler
// completion methods, argument literals, global completers keyed by
// CompletionKind, then built-ins backed by a PlatformCompleter.
//
// Reads go through an immutable snapshot, so Execute and Complete never
// wait on Register or Unregister.
package command
