package event

import "strings"

// Common filter predicates for AddFilter.

// FilterByKey allows only events whose exact key is one of keys.
func FilterByKey(keys ...Key) FilterFunc {
	set := make(map[Key]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return func(e Event) bool {
		return set[e.EventKey()]
	}
}

// FilterExcludeKey suppresses events whose exact key is one of keys.
func FilterExcludeKey(keys ...Key) FilterFunc {
	allow := FilterByKey(keys...)
	return func(e Event) bool {
		return !allow(e)
	}
}

// FilterByKeyPrefix allows only events whose key starts with prefix.
func FilterByKeyPrefix(prefix string) FilterFunc {
	return func(e Event) bool {
		return strings.HasPrefix(string(e.EventKey()), prefix)
	}
}

// FilterByTag allows only events carrying tag as a capability key.
func FilterByTag(tag Key) FilterFunc {
	return func(e Event) bool {
		t, ok := e.(Tagged)
		if !ok {
			return false
		}
		for _, k := range t.EventTags() {
			if k == tag {
				return true
			}
		}
		return false
	}
}

// FilterType allows only events of type T that satisfy pred. Events of
// other types pass untouched.
func FilterType[T Event](pred func(T) bool) FilterFunc {
	return func(e Event) bool {
		te, ok := e.(T)
		if !ok {
			return true
		}
		return pred(te)
	}
}

// FilterAnd combines filters with logical AND.
func FilterAnd(filters ...FilterFunc) FilterFunc {
	return func(e Event) bool {
		for _, f := range filters {
			if !f(e) {
				return false
			}
		}
		return true
	}
}

// FilterOr combines filters with logical OR.
func FilterOr(filters ...FilterFunc) FilterFunc {
	return func(e Event) bool {
		for _, f := range filters {
			if f(e) {
				return true
			}
		}
		return false
	}
}

// FilterNot negates a filter.
func FilterNot(filter FilterFunc) FilterFunc {
	return func(e Event) bool {
		return !filter(e)
	}
}
