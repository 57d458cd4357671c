package command

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Complete returns the candidates for the token being typed at the end of
// line, filtered by case-insensitive prefix and sorted.
//
// A line holding one unfinished token completes command names. Past the
// name, candidates for the current argument come from, in order: the
// handler's completion method, the argument's literals, a global
// completer for its kind, then the built-in sources.
func (r *Registry) Complete(s Sender, line string) []string {
	tokens := strings.Fields(line)
	trailing := line != "" && endsWithSpace(line)

	if len(tokens) == 0 {
		return r.Names()
	}
	if len(tokens) == 1 && !trailing {
		return filterPrefix(r.Names(), fold(strings.TrimPrefix(tokens[0], r.prefix)))
	}

	cur := r.st.Load()
	label := r.key(tokens[0])
	d, ok := cur.commands[label]
	if !ok {
		return []string{}
	}

	args := tokens[1:]
	if trailing {
		args = append(args, "")
	}
	idx := len(args) - 1
	if idx >= len(d.args) {
		if len(d.args) == 0 || !d.args[len(d.args)-1].Rest {
			return []string{}
		}
		idx = len(d.args) - 1
	}
	current := args[len(args)-1]

	return filterPrefix(r.candidates(cur, d, d.args[idx], s, label, args, current), current)
}

// candidates gathers completions for a. Completers receive the folded
// label the user typed, which may be an alias.
func (r *Registry) candidates(cur *state, d *Descriptor, a Arg, s Sender, label string, args []string, current string) []string {
	if a.Kind == CompleteMethod {
		if fn, ok := d.methods[a.CompletionMethod]; ok {
			return r.callCompleter(fn, s, label, args, current)
		}
	}
	if len(a.Completions) > 0 {
		return a.Completions
	}
	if fn, ok := cur.completers[fold(a.Kind.String())]; ok && a.Kind != CompleteNone {
		return r.callCompleter(fn, s, label, args, current)
	}

	switch {
	case a.Kind == CompleteBoolean, a.Kind == CompleteNone && a.Type == Bool:
		return []string{"false", "true"}
	case a.Kind == CompletePlayer && r.platform != nil:
		return r.platform.PlayerNames(false)
	case a.Kind == CompleteOnlinePlayer && r.platform != nil:
		return r.platform.PlayerNames(true)
	case a.Kind == CompleteWorld && r.platform != nil:
		return r.platform.WorldNames()
	}
	return nil
}

// callCompleter runs fn, treating a panic as no candidates.
func (r *Registry) callCompleter(fn CompletionFunc, s Sender, name string, args []string, current string) (out []string) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("completer for %s panicked: %v", name, p)
			out = nil
		}
	}()
	return fn(s, name, slices.Clone(args), current)
}

func filterPrefix(candidates []string, prefix string) []string {
	out := make([]string, 0, len(candidates))
	lp := strings.ToLower(prefix)
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), lp) && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}
