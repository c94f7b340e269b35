package reducer

import (
	"reflect"
	"time"

	"github.com/aretw0/foldtable/pkg/domain"
	"github.com/aretw0/foldtable/pkg/table"
)

// Reducer applies the handler selected by an event's discriminant to a state.
// The handler table is flattened once in New and never changes afterwards,
// so a Reducer can be shared between goroutines as long as its handlers are reentrant.
type Reducer[S any, E domain.Event] struct {
	initial S
	table   *table.Table[S, E]
	hooks   Hooks
}

// New flattens entries and returns a Reducer starting from initial.
//
// A top-level entry named "undefined" emits one diagnostic; each group does the
// same for its own children (see table.Flatten).
func New[S any, E domain.Event](initial S, entries []table.Entry[S, E], opts ...Option) (*Reducer[S, E], error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	warner := cfg.resolveWarner()
	if table.ContainsUndefined(entries) {
		warner.Warn(domain.UndefinedWarning)
	}

	tbl, err := table.Flatten(entries, cfg.tableOptions(warner)...)
	if err != nil {
		return nil, err
	}

	return &Reducer[S, E]{
		initial: initial,
		table:   tbl,
		hooks:   cfg.hooks,
	}, nil
}

// Dispatch reduces evt into state. A nil state stands for the initial state.
//
// When the table has no entry for evt.EventType() the state is returned as is.
// Otherwise the handler is called exactly once and its result, including any
// error, is returned untouched.
func (r *Reducer[S, E]) Dispatch(state *S, evt E) (S, error) {
	current := r.initial
	if state != nil {
		current = *state
	}
	return r.Reduce(current, evt)
}

// Reduce is Dispatch with an explicit state.
func (r *Reducer[S, E]) Reduce(state S, evt E) (S, error) {
	key, ok := discriminant(evt)
	if !ok {
		r.observe(Dispatch{Key: key})
		return state, nil
	}

	handler, found := r.table.Lookup(key)
	if !found {
		r.observe(Dispatch{Key: key})
		return state, nil
	}
	if handler == nil {
		r.observe(Dispatch{Key: key, Matched: true, Err: domain.ErrNilHandler})
		return state, domain.ErrNilHandler
	}

	if r.hooks.OnDispatch == nil {
		return handler(state, evt)
	}

	start := time.Now()
	next, err := handler(state, evt)
	r.observe(Dispatch{Key: key, Matched: true, Duration: time.Since(start), Err: err})
	return next, err
}

// Fold applies events in order starting from the initial state.
func (r *Reducer[S, E]) Fold(events ...E) (S, error) {
	return r.FoldFrom(r.initial, events...)
}

// FoldFrom applies events in order starting from state.
// It stops at the first handler error and returns the state reached before it.
func (r *Reducer[S, E]) FoldFrom(state S, events ...E) (S, error) {
	for _, evt := range events {
		next, err := r.Reduce(state, evt)
		if err != nil {
			return state, err
		}
		state = next
	}
	return state, nil
}

// Func returns Dispatch as a plain function value.
func (r *Reducer[S, E]) Func() func(state *S, evt E) (S, error) {
	return r.Dispatch
}

// Initial returns the state used when Dispatch receives nil.
func (r *Reducer[S, E]) Initial() S {
	return r.initial
}

// Table returns the flattened handler table.
func (r *Reducer[S, E]) Table() *table.Table[S, E] {
	return r.table
}

func (r *Reducer[S, E]) observe(d Dispatch) {
	if r.hooks.OnDispatch != nil {
		r.hooks.OnDispatch(d)
	}
}

// discriminant reads the event type, treating a nil event or an empty type as missing.
func discriminant[E domain.Event](evt E) (string, bool) {
	v := reflect.ValueOf(any(evt))
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return "", false
	}
	key := evt.EventType()
	return key, key != ""
}
