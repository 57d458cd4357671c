package event

import (
	"slices"
	"strings"
	"sync"
)

// snapshot is an immutable view of every registration. Writers build a
// new snapshot and publish it atomically; dispatch reads whichever
// snapshot was current when the fire started.
type snapshot struct {
	byKey   map[Key][]*RegisteredListener
	byOwner map[ListenerSet][]*RegisteredListener
	count   int

	// fanout caches the merged, ordered listener list per key signature.
	fanout sync.Map // string -> []*RegisteredListener
}

func emptySnapshot() *snapshot {
	return &snapshot{
		byKey:   make(map[Key][]*RegisteredListener),
		byOwner: make(map[ListenerSet][]*RegisteredListener),
	}
}

// with returns a copy of s that also contains ls.
func (s *snapshot) with(ls []*RegisteredListener) *snapshot {
	next := s.clone()
	for _, l := range ls {
		next.byKey[l.key] = append(slices.Clip(next.byKey[l.key]), l)
		if l.owner != nil {
			next.byOwner[l.owner] = append(slices.Clip(next.byOwner[l.owner]), l)
		}
		next.count++
	}
	return next
}

// without returns a copy of s minus every listener for which drop is true,
// along with the number removed. Per-key and per-owner lists keep their
// registration order.
func (s *snapshot) without(drop func(*RegisteredListener) bool) (*snapshot, int) {
	next := &snapshot{
		byKey:   make(map[Key][]*RegisteredListener, len(s.byKey)),
		byOwner: make(map[ListenerSet][]*RegisteredListener, len(s.byOwner)),
	}
	removed := 0
	for key, ls := range s.byKey {
		kept := slices.DeleteFunc(slices.Clone(ls), drop)
		removed += len(ls) - len(kept)
		if len(kept) > 0 {
			next.byKey[key] = kept
		}
	}
	for owner, ls := range s.byOwner {
		if kept := slices.DeleteFunc(slices.Clone(ls), drop); len(kept) > 0 {
			next.byOwner[owner] = kept
		}
	}
	next.count = s.count - removed
	return next, removed
}

func (s *snapshot) clone() *snapshot {
	next := &snapshot{
		byKey:   make(map[Key][]*RegisteredListener, len(s.byKey)+1),
		byOwner: make(map[ListenerSet][]*RegisteredListener, len(s.byOwner)+1),
		count:   s.count,
	}
	for k, v := range s.byKey {
		next.byKey[k] = v
	}
	for k, v := range s.byOwner {
		next.byOwner[k] = v
	}
	return next
}

// resolve returns the ordered listeners for an event dispatched under keys.
// The result is computed once per snapshot and key signature.
func (s *snapshot) resolve(keys []Key) []*RegisteredListener {
	sig := signature(keys)
	if cached, ok := s.fanout.Load(sig); ok {
		return cached.([]*RegisteredListener)
	}

	var merged []*RegisteredListener
	for _, k := range keys {
		merged = append(merged, s.byKey[k]...)
	}
	sortListeners(merged)

	actual, _ := s.fanout.LoadOrStore(sig, merged)
	return actual.([]*RegisteredListener)
}

func signature(keys []Key) string {
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(0)
		}
		b.WriteString(string(k))
	}
	return b.String()
}

// sortListeners orders by priority rank descending, then registration order.
func sortListeners(ls []*RegisteredListener) {
	slices.SortStableFunc(ls, func(a, b *RegisteredListener) int {
		if ra, rb := a.priority.rank(), b.priority.rank(); ra != rb {
			return rb - ra
		}
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		default:
			return 0
		}
	})
}
