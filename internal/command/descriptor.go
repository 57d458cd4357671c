package command

import (
	"reflect"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// fold returns the case-insensitive lookup key for a command name.
// A Caser is not safe for concurrent use, so each call makes its own.
func fold(name string) string {
	return cases.Fold().String(name)
}

// Descriptor is the immutable, validated form of a Spec.
type Descriptor struct {
	name        string
	aliases     []string
	description string
	usage       string
	permission  string
	restriction SenderRestriction
	args        []Arg
	run         RunFunc
	owner       Handler
	methods     map[string]CompletionFunc
}

// Name returns the primary name as declared.
func (d *Descriptor) Name() string { return d.name }

// Aliases returns the declared aliases.
func (d *Descriptor) Aliases() []string { return slices.Clone(d.aliases) }

// Description returns the help text.
func (d *Descriptor) Description() string { return d.description }

// Usage returns the usage line: the explicit one, or "/name <req> [opt]".
func (d *Descriptor) Usage() string { return d.usage }

// Permission returns the required permission, empty for none.
func (d *Descriptor) Permission() string { return d.permission }

// Restriction returns the sender restriction.
func (d *Descriptor) Restriction() SenderRestriction { return d.restriction }

// Args returns copies of the argument declarations.
func (d *Descriptor) Args() []Arg {
	out := make([]Arg, len(d.args))
	for i, a := range d.args {
		a.Completions = slices.Clone(a.Completions)
		out[i] = a
	}
	return out
}

// Owner returns the handler that declared the command.
func (d *Descriptor) Owner() Handler { return d.owner }

// names returns the folded name followed by folded aliases, deduplicated.
func (d *Descriptor) names() []string {
	out := []string{fold(d.name)}
	for _, a := range d.aliases {
		if k := fold(a); !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

func generateUsage(prefix, name string, args []Arg) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(name)
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(a.usage())
	}
	return b.String()
}

// buildDescriptors validates every spec of h. Nothing is returned unless
// every spec is valid.
func buildDescriptors(h Handler, prefix string) ([]*Descriptor, error) {
	if h == nil {
		return nil, &RegistrationError{Handler: "<nil>", Err: ErrNilHandler}
	}
	t := reflect.TypeOf(h)
	if !t.Comparable() {
		return nil, &RegistrationError{Handler: t.String(), Err: ErrNotComparable}
	}

	var methods map[string]CompletionFunc
	if cp, ok := h.(CompletionProvider); ok {
		methods = cp.CompletionMethods()
	}

	specs := h.Commands()
	out := make([]*Descriptor, 0, len(specs))
	for _, spec := range specs {
		fail := func(arg string, err error) error {
			return &RegistrationError{Handler: t.String(), Command: spec.Name, Arg: arg, Err: err}
		}
		if err := validName(spec.Name, prefix); err != nil {
			return nil, fail("", err)
		}
		for _, alias := range spec.Aliases {
			if err := validName(alias, prefix); err != nil {
				return nil, fail("", err)
			}
		}
		if spec.Run == nil {
			return nil, fail("", ErrNilRun)
		}
		if spec.Restriction < AnySender || spec.Restriction > ConsoleOnly {
			return nil, fail("", ErrInvalidRestriction)
		}
		if arg, err := validateArgs(spec.Args, methods); err != nil {
			return nil, fail(arg, err)
		}

		args := make([]Arg, len(spec.Args))
		for i, a := range spec.Args {
			a.Completions = slices.Clone(a.Completions)
			args[i] = a
		}
		usage := spec.Usage
		if usage == "" {
			usage = generateUsage(prefix, spec.Name, args)
		}
		out = append(out, &Descriptor{
			name:        spec.Name,
			aliases:     slices.Clone(spec.Aliases),
			description: spec.Description,
			usage:       usage,
			permission:  spec.Permission,
			restriction: spec.Restriction,
			args:        args,
			run:         spec.Run,
			owner:       h,
			methods:     methods,
		})
	}
	return out, nil
}

func validName(name, prefix string) error {
	if name == "" {
		return ErrEmptyName
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return ErrInvalidName
	}
	if prefix != "" && strings.HasPrefix(name, prefix) {
		return ErrInvalidName
	}
	return nil
}

// validateArgs returns the offending argument name with the error.
func validateArgs(args []Arg, methods map[string]CompletionFunc) (string, error) {
	seen := make(map[string]bool, len(args))
	optional := false
	for i, a := range args {
		switch {
		case a.Name == "":
			return "", ErrEmptyArgName
		case seen[a.Name]:
			return a.Name, ErrDuplicateArg
		case !a.Type.Valid():
			return a.Name, ErrUnknownType
		case !a.Kind.Valid():
			return a.Name, ErrUnknownCompletion
		case optional && !a.Optional:
			return a.Name, ErrRequiredAfterOptional
		case a.Rest && i != len(args)-1:
			return a.Name, ErrRestNotLast
		case a.Rest && a.Type != String:
			return a.Name, ErrRestNotString
		}
		if a.Kind == CompleteMethod && a.CompletionMethod != "" {
			if _, ok := methods[a.CompletionMethod]; !ok {
				return a.Name, ErrUnknownCompletionMethod
			}
		}
		seen[a.Name] = true
		optional = optional || a.Optional
	}
	return "", nil
}
