package command

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
)

// Suggest returns up to limit command names resembling label, best match
// first. A name matches when label's letters appear in it in order.
// Commands s may not use are left out.
func (r *Registry) Suggest(s Sender, label string, limit int) []string {
	query := []rune(fold(strings.TrimPrefix(label, r.prefix)))
	if len(query) == 0 || limit <= 0 {
		return nil
	}

	type scored struct {
		name  string
		score int
	}
	var results []scored
	for _, d := range r.Descriptors() {
		if d.permission != "" && s != nil && !s.HasPermission(d.permission) {
			continue
		}
		best := 0
		for _, name := range d.names() {
			best = max(best, matchScore(query, []rune(fold(name))))
		}
		if best > 0 {
			results = append(results, scored{name: d.name, score: best})
		}
	}

	slices.SortStableFunc(results, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})
	out := make([]string, 0, min(limit, len(results)))
	for _, res := range results[:min(limit, len(results))] {
		out = append(out, res.name)
	}
	return out
}

// matchScore scores query as a subsequence of text, 0 for no match.
// Consecutive runs, word starts and an early first match score higher.
func matchScore(query, text []rune) int {
	matches := make([]int, 0, len(query))
	qi := 0
	for i := 0; i < len(text) && qi < len(query); i++ {
		if text[i] == query[qi] {
			matches = append(matches, i)
			qi++
		}
	}
	if qi != len(query) {
		return 0
	}

	score := 100
	for i := 1; i < len(matches); i++ {
		if matches[i] == matches[i-1]+1 {
			score += 20
		}
	}
	for _, idx := range matches {
		if idx == 0 || !unicode.IsLetter(text[idx-1]) && !unicode.IsDigit(text[idx-1]) {
			score += 15
		}
	}
	if matches[0] == 0 {
		score += 25
	}
	score -= 2 * (matches[len(matches)-1] - matches[0] - len(matches) + 1)
	score -= matches[0]
	if len(text) < 20 {
		score += 20 - len(text)
	}
	if len(text) >= len(query) && slices.Equal(text[:len(query)], query) {
		score += 50
	}
	return max(score, 1)
}
