package command

import (
	"fmt"
	"strings"
)

// SemanticType is the closed set of argument types the parser can coerce to.
type SemanticType int

const (
	// String passes the token through unchanged.
	String SemanticType = iota
	// Int parses a 32-bit signed integer into an int.
	Int
	// Long parses a 64-bit signed integer into an int64.
	Long
	// Double parses a float64.
	Double
	// Float parses a float32.
	Float
	// Bool accepts "true" or "false", case-insensitively.
	Bool
	// Other passes the raw token through for the host bridge to convert.
	Other
)

// String returns the type name used in error messages.
func (t SemanticType) String() string {
	switch t {
	case String:
		return "String"
	case Int:
		return "int"
	case Long:
		return "long"
	case Double:
		return "double"
	case Float:
		return "float"
	case Bool:
		return "boolean"
	case Other:
		return "Object"
	default:
		return fmt.Sprintf("SemanticType(%d)", int(t))
	}
}

// Valid reports whether t is a declared type.
func (t SemanticType) Valid() bool {
	return t >= String && t <= Other
}

// CompletionKind selects the completion source of an argument.
type CompletionKind int

const (
	// CompleteNone uses the argument's literals, then type built-ins.
	CompleteNone CompletionKind = iota
	// CompletePlayer completes any known player name.
	CompletePlayer
	// CompleteOnlinePlayer completes online player names.
	CompleteOnlinePlayer
	// CompleteWorld completes world names.
	CompleteWorld
	// CompleteBoolean completes true and false.
	CompleteBoolean
	// CompleteInteger has no built-in candidates; register a completer.
	CompleteInteger
	// CompleteDouble has no built-in candidates; register a completer.
	CompleteDouble
	// CompleteCustom is served by a completer registered under "custom".
	CompleteCustom
	// CompleteMethod calls the handler completion named by Arg.CompletionMethod.
	CompleteMethod
)

var completionKindNames = [...]string{
	CompleteNone:         "none",
	CompletePlayer:       "player",
	CompleteOnlinePlayer: "online_player",
	CompleteWorld:        "world",
	CompleteBoolean:      "boolean",
	CompleteInteger:      "integer",
	CompleteDouble:       "double",
	CompleteCustom:       "custom",
	CompleteMethod:       "method",
}

// String returns the lowercase kind name, which is also the key global
// completers are registered under.
func (k CompletionKind) String() string {
	if k >= 0 && int(k) < len(completionKindNames) {
		return completionKindNames[k]
	}
	return fmt.Sprintf("completion(%d)", int(k))
}

// Valid reports whether k is a declared kind.
func (k CompletionKind) Valid() bool {
	return k >= CompleteNone && int(k) < len(completionKindNames)
}

// ParseCompletionKind parses a kind name, case-insensitively.
func ParseCompletionKind(s string) (CompletionKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range completionKindNames {
		if name == s {
			return CompletionKind(i), true
		}
	}
	return CompleteNone, false
}

// SenderRestriction limits which senders may run a command.
type SenderRestriction int

const (
	// AnySender allows every sender.
	AnySender SenderRestriction = iota
	// PlayerOnly rejects the console.
	PlayerOnly
	// ConsoleOnly rejects everything but the console.
	ConsoleOnly
)

// String returns a human-readable restriction name.
func (r SenderRestriction) String() string {
	switch r {
	case AnySender:
		return "any"
	case PlayerOnly:
		return "player-only"
	case ConsoleOnly:
		return "console-only"
	default:
		return fmt.Sprintf("restriction(%d)", int(r))
	}
}
