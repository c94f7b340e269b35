package table

import "github.com/aretw0/foldtable/pkg/domain"

// Handler computes the next state from the current state and an event.
type Handler[S any, E domain.Event] func(state S, evt E) (S, error)

// Pure lifts a transition that cannot fail into a Handler.
func Pure[S any, E domain.Event](fn func(state S, evt E) S) Handler[S, E] {
	return func(state S, evt E) (S, error) {
		return fn(state, evt), nil
	}
}

// Entry is either a leaf (key + handler) or a group (key + leaf children).
type Entry[S any, E domain.Event] struct {
	key      string
	handler  Handler[S, E]
	children []Entry[S, E]
	group    bool
}

// On creates a leaf entry.
func On[S any, E domain.Event](key string, handler Handler[S, E]) Entry[S, E] {
	return Entry[S, E]{key: key, handler: handler}
}

// Group creates a group entry. Children are expected to be leaves.
func Group[S any, E domain.Event](key string, children ...Entry[S, E]) Entry[S, E] {
	return Entry[S, E]{key: key, children: children, group: true}
}

// Key returns the entry key.
func (e Entry[S, E]) Key() string {
	return e.key
}

// IsGroup reports whether the entry is a group.
func (e Entry[S, E]) IsGroup() bool {
	return e.group
}

// Handler returns the handler of a leaf, nil for groups.
func (e Entry[S, E]) Handler() Handler[S, E] {
	return e.handler
}

// Children returns the children of a group, nil for leaves.
func (e Entry[S, E]) Children() []Entry[S, E] {
	return e.children
}

// ContainsUndefined reports whether any entry uses domain.UndefinedKey.
func ContainsUndefined[S any, E domain.Event](entries []Entry[S, E]) bool {
	for _, e := range entries {
		if e.key == domain.UndefinedKey {
			return true
		}
	}
	return false
}
