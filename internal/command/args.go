package command

import "slices"

// Args holds the coerced arguments of one invocation.
type Args struct {
	label  string
	names  []string
	values []any
	raw    []string
}

// Label returns the name or alias the sender typed, folded.
func (a Args) Label() string { return a.label }

// Len returns the number of declared arguments.
func (a Args) Len() int { return len(a.values) }

// Raw returns the tokens after the command label, unparsed.
func (a Args) Raw() []string { return slices.Clone(a.raw) }

// At returns the value at position i, nil if out of range.
func (a Args) At(i int) any {
	if i < 0 || i >= len(a.values) {
		return nil
	}
	return a.values[i]
}

// Value returns the named value and whether the argument is declared.
func (a Args) Value(name string) (any, bool) {
	i := slices.Index(a.names, name)
	if i < 0 {
		return nil, false
	}
	return a.values[i], true
}

// String returns a String or Other argument, "" if absent.
func (a Args) String(name string) string {
	v, _ := a.Value(name)
	s, _ := v.(string)
	return s
}

// Int returns an Int argument, 0 if absent.
func (a Args) Int(name string) int {
	v, _ := a.Value(name)
	n, _ := v.(int)
	return n
}

// Int64 returns a Long argument, 0 if absent.
func (a Args) Int64(name string) int64 {
	v, _ := a.Value(name)
	n, _ := v.(int64)
	return n
}

// Float64 returns a Double argument, 0 if absent.
func (a Args) Float64(name string) float64 {
	v, _ := a.Value(name)
	f, _ := v.(float64)
	return f
}

// Float32 returns a Float argument, 0 if absent.
func (a Args) Float32(name string) float32 {
	v, _ := a.Value(name)
	f, _ := v.(float32)
	return f
}

// Bool returns a Bool argument, false if absent.
func (a Args) Bool(name string) bool {
	v, _ := a.Value(name)
	b, _ := v.(bool)
	return b
}
