package pointring

import "sync"

// Member is a node and the weight it should have in a Ring.
type Member[N comparable] struct {
	Node   N
	Weight int
}

// An Observer is notified with the full set of members whenever it changes.
type Observer[N comparable] interface {
	// NotifyMembersChanged is invoked any time the set of members changes.
	// The slice of members must not be modified.
	NotifyMembersChanged(members []Member[N])
}

// FuncObserver implements Observer.
type FuncObserver[N comparable] func(members []Member[N])

// NotifyMembersChanged implements Observer.
func (f FuncObserver[N]) NotifyMembersChanged(members []Member[N]) { f(members) }

// NewObserver returns an Observer which keeps r in sync with the notified set
// of members. Members which disappear are removed from r, and new members are
// added with their weight. A member whose weight changed is removed and added
// again with new control points. Members which didn't change keep their
// control points, so keys owned by them don't move.
//
// The returned Observer assumes it is the only writer of the nodes it
// manages; registrations of the same node made directly against r are
// removed alongside it. Weights less than 1 are treated as 1. If a node is
// listed more than once, its last entry wins.
func NewObserver[N comparable](r *Ring[N]) Observer[N] {
	return &ringObserver[N]{r: r, current: make(map[N]int)}
}

type ringObserver[N comparable] struct {
	r *Ring[N]

	mut     sync.Mutex
	current map[N]int // Node -> weight currently registered
}

func (o *ringObserver[N]) NotifyMembersChanged(members []Member[N]) {
	o.mut.Lock()
	defer o.mut.Unlock()

	next := make(map[N]int, len(members))
	for _, m := range members {
		next[m.Node] = normalizeWeight(m.Weight)
	}

	for node, weight := range o.current {
		if newWeight, ok := next[node]; !ok || newWeight != weight {
			o.r.Remove(node)
		}
	}

	// Iterate over members rather than next so control points are allocated
	// in the order members were given.
	added := make(map[N]struct{}, len(next))
	for _, m := range members {
		if _, ok := added[m.Node]; ok {
			continue
		}
		added[m.Node] = struct{}{}

		weight := next[m.Node]
		if oldWeight, ok := o.current[m.Node]; ok && oldWeight == weight {
			continue
		}
		o.r.AddWeighted(m.Node, weight)
	}

	o.current = next
}

// ChangedObserver wraps an observer and filters out events where the set of
// members hasn't changed since the last notification. Member order is
// ignored. Notifications to the returned Observer must not be made
// concurrently.
func ChangedObserver[N comparable](next Observer[N]) Observer[N] {
	return &changedObserver[N]{next: next}
}

type changedObserver[N comparable] struct {
	last map[N]int // nil until the first notification
	next Observer[N]
}

func (co *changedObserver[N]) NotifyMembersChanged(members []Member[N]) {
	set := make(map[N]int, len(members))
	for _, m := range members {
		set[m.Node] = normalizeWeight(m.Weight)
	}

	if co.last != nil && membersEqual(set, co.last) {
		return
	}

	co.last = set
	co.next.NotifyMembersChanged(members)
}

func membersEqual[N comparable](a, b map[N]int) bool {
	if len(a) != len(b) {
		return false
	}
	for node, weight := range a {
		if other, ok := b[node]; !ok || other != weight {
			return false
		}
	}
	return true
}

func normalizeWeight(w int) int {
	if w < 1 {
		return 1
	}
	return w
}
