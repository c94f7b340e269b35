package foldtable

import (
	"github.com/aretw0/foldtable/pkg/domain"
	"github.com/aretw0/foldtable/pkg/reducer"
	"github.com/aretw0/foldtable/pkg/table"
)

// Version is the library and CLI version.
const Version = "0.3.0"

// Handler computes the next state from the current state and an event.
type Handler[S any, E domain.Event] = table.Handler[S, E]

// Entry is a leaf or a one-level group of handlers.
type Entry[S any, E domain.Event] = table.Entry[S, E]

// Table is the flattened, read-only handler lookup.
type Table[S any, E domain.Event] = table.Table[S, E]

// Reducer dispatches events to the handlers of a Table.
type Reducer[S any, E domain.Event] = reducer.Reducer[S, E]

// Event is the discriminant contract for reduced events.
type Event = domain.Event

// Record is the generic event envelope.
type Record = domain.Record

// New flattens entries once and returns a Reducer starting from initial.
func New[S any, E domain.Event](initial S, entries []Entry[S, E], opts ...reducer.Option) (*Reducer[S, E], error) {
	return reducer.New(initial, entries, opts...)
}

// On binds key to handler.
func On[S any, E domain.Event](key string, handler Handler[S, E]) Entry[S, E] {
	return table.On(key, handler)
}

// Pure lifts a transition that cannot fail into a Handler.
func Pure[S any, E domain.Event](fn func(state S, evt E) S) Handler[S, E] {
	return table.Pure(fn)
}

// Group nests leaf entries under key; their flat keys become key + glue + child.
func Group[S any, E domain.Event](key string, children ...Entry[S, E]) Entry[S, E] {
	return table.Group(key, children...)
}

// Flatten builds a flat Table from entries. An empty glue means "_".
func Flatten[S any, E domain.Event](entries []Entry[S, E], glue string) (*Table[S, E], error) {
	return table.Flatten(entries, table.WithGlue(glue))
}
