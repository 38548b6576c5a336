package command

import "strings"

// Requirements is an immutable, insertion-ordered set of subsystems.
// The zero value is an empty set.
type Requirements struct {
	items []Subsystem
}

// NewRequirements builds a set from subs, skipping nils and duplicates.
func NewRequirements(subs ...Subsystem) Requirements {
	var r Requirements
	for _, sub := range subs {
		if sub == nil || r.Contains(sub) {
			continue
		}
		r.items = append(r.items, sub)
	}
	return r
}

// Len returns the number of subsystems in the set.
func (r Requirements) Len() int {
	return len(r.items)
}

// Contains reports whether sub is in the set.
func (r Requirements) Contains(sub Subsystem) bool {
	for _, item := range r.items {
		if item == sub {
			return true
		}
	}
	return false
}

// Slice returns a copy of the subsystems in insertion order.
func (r Requirements) Slice() []Subsystem {
	return append([]Subsystem(nil), r.items...)
}

// Union returns a new set holding r followed by any new members of others.
func (r Requirements) Union(others ...Requirements) Requirements {
	out := Requirements{items: append([]Subsystem(nil), r.items...)}
	for _, other := range others {
		for _, sub := range other.items {
			if !out.Contains(sub) {
				out.items = append(out.items, sub)
			}
		}
	}
	return out
}

// Intersects reports whether r and other share at least one subsystem.
func (r Requirements) Intersects(other Requirements) bool {
	for _, sub := range other.items {
		if r.Contains(sub) {
			return true
		}
	}
	return false
}

// Names returns the subsystem names in insertion order.
func (r Requirements) Names() []string {
	names := make([]string, 0, len(r.items))
	for _, sub := range r.items {
		names = append(names, sub.Name())
	}
	return names
}

// String renders the set as a bracketed, comma separated list of names.
func (r Requirements) String() string {
	return "[" + strings.Join(r.Names(), ", ") + "]"
}
