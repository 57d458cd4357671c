package event

import "strings"

// Key pattern wildcards. Patterns are dot-separated like keys.
const (
	// WildcardSegment matches exactly one segment.
	WildcardSegment = "*"

	// WildcardSegments matches zero or more segments.
	WildcardSegments = "**"
)

// MatchKey reports whether key matches pattern.
//
//	player.*       matches player.join, not player.move.fast
//	player.**      matches player, player.join and player.move.fast
//	*.enable       matches plugin.enable
func MatchKey(key Key, pattern string) bool {
	return matchSegments(splitKey(string(key)), splitKey(pattern))
}

func splitKey(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

func matchSegments(key, pattern []string) bool {
	ki := 0
	for pi := 0; pi < len(pattern); pi++ {
		switch pattern[pi] {
		case WildcardSegments:
			for ; ki <= len(key); ki++ {
				if matchSegments(key[ki:], pattern[pi+1:]) {
					return true
				}
			}
			return false
		case WildcardSegment:
			if ki >= len(key) {
				return false
			}
		default:
			if ki >= len(key) || key[ki] != pattern[pi] {
				return false
			}
		}
		ki++
	}
	return ki == len(key)
}

// FilterByPattern allows only events whose key or one of whose capability
// tags matches any of patterns.
func FilterByPattern(patterns ...string) FilterFunc {
	return func(e Event) bool {
		keys := []Key{e.EventKey()}
		if t, ok := e.(Tagged); ok {
			keys = append(keys, t.EventTags()...)
		}
		for _, k := range keys {
			for _, p := range patterns {
				if MatchKey(k, p) {
					return true
				}
			}
		}
		return false
	}
}
