package command

import (
	"errors"
	"strconv"
	"strings"
)

// Arg declares one positional argument.
type Arg struct {
	// Name identifies the argument in usage lines and in Args.
	Name string

	// Type selects the coercion applied to the token.
	Type SemanticType

	// Optional arguments fall back to Default when no token is present.
	Optional bool

	// Default is the literal used for an omitted optional argument. An
	// empty Default yields the type's zero value.
	Default string

	// Completions are literal candidates offered for this position.
	Completions []string

	// Kind selects a completion source beyond the literals.
	Kind CompletionKind

	// CompletionMethod names a handler completion, used with CompleteMethod.
	CompletionMethod string

	// Rest makes a trailing String argument consume every remaining token,
	// joined by single spaces.
	Rest bool
}

// usage renders <name> or [name], with an ellipsis for rest arguments.
func (a Arg) usage() string {
	name := a.Name
	if a.Rest {
		name += "..."
	}
	if a.Optional {
		return "[" + name + "]"
	}
	return "<" + name + ">"
}

var errBadBool = errors.New("not a boolean")

// coerce converts one token to the argument's semantic type. An empty
// token yields the zero value.
func coerce(t SemanticType, token string) (any, error) {
	if token == "" {
		return zeroValue(t), nil
	}
	switch t {
	case String, Other:
		return token, nil
	case Int:
		n, err := strconv.ParseInt(token, 10, 32)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	case Long:
		return strconv.ParseInt(token, 10, 64)
	case Double:
		return strconv.ParseFloat(token, 64)
	case Float:
		f, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case Bool:
		switch {
		case strings.EqualFold(token, "true"):
			return true, nil
		case strings.EqualFold(token, "false"):
			return false, nil
		}
		return nil, errBadBool
	default:
		return token, nil
	}
}

func zeroValue(t SemanticType) any {
	switch t {
	case String:
		return ""
	case Int:
		return 0
	case Long:
		return int64(0)
	case Double:
		return float64(0)
	case Float:
		return float32(0)
	case Bool:
		return false
	default:
		return nil
	}
}
