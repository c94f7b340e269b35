package reducer_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/foldtable/pkg/diagnostics"
	"github.com/aretw0/foldtable/pkg/domain"
	"github.com/aretw0/foldtable/pkg/reducer"
	"github.com/aretw0/foldtable/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ev(eventType string) domain.Record {
	return domain.Record{Type: eventType}
}

func quiet() reducer.Option {
	return reducer.WithDiagnostics(false)
}

func counter(t *testing.T) *reducer.Reducer[int, domain.Record] {
	t.Helper()
	r, err := reducer.New(0, []table.Entry[int, domain.Record]{
		table.On("increment", table.Pure(func(s int, _ domain.Record) int { return s + 1 })),
		table.On("decrement", table.Pure(func(s int, _ domain.Record) int { return s - 1 })),
	}, quiet())
	require.NoError(t, err)
	return r
}

func TestDispatch_CounterFold(t *testing.T) {
	r := counter(t)

	state, err := r.Dispatch(nil, ev("increment"))
	require.NoError(t, err)
	state, err = r.Dispatch(&state, ev("increment"))
	require.NoError(t, err)
	state, err = r.Dispatch(&state, ev("decrement"))
	require.NoError(t, err)

	assert.Equal(t, 1, state)
}

func TestDispatch_GroupedKeys(t *testing.T) {
	r, err := reducer.New("idle", []table.Entry[string, domain.Record]{
		table.Group("Fetch",
			table.On("Start", table.Pure(func(string, domain.Record) string { return "loading" })),
			table.On("Done", table.Pure(func(string, domain.Record) string { return "done" })),
		),
	}, quiet())
	require.NoError(t, err)

	assert.Equal(t, []string{"Fetch_Start", "Fetch_Done"}, r.Table().Keys())

	state, err := r.Dispatch(nil, ev("Fetch_Start"))
	require.NoError(t, err)
	assert.Equal(t, "loading", state)

	state, err = r.Dispatch(&state, ev("Fetch_Done"))
	require.NoError(t, err)
	assert.Equal(t, "done", state)
}

type doc struct {
	Count int
}

func TestDispatch_UnknownReturnsSameState(t *testing.T) {
	r, err := reducer.New(&doc{}, []table.Entry[*doc, domain.Record]{
		table.On("bump", table.Pure(func(s *doc, _ domain.Record) *doc { return &doc{Count: s.Count + 1} })),
	}, quiet())
	require.NoError(t, err)

	in := &doc{Count: 7}
	out, err := r.Reduce(in, ev("Unknown"))
	require.NoError(t, err)
	assert.Same(t, in, out)

	// Group keys are not handlers on their own.
	out, err = r.Reduce(in, ev("bump_"))
	require.NoError(t, err)
	assert.Same(t, in, out)
}

func TestNew_UndefinedKeyWarnsOnce(t *testing.T) {
	entries := []table.Entry[int, domain.Record]{
		table.On("undefined", table.Pure(func(s int, _ domain.Record) int { return s + 100 })),
		table.On("ok", table.Pure(func(s int, _ domain.Record) int { return s + 1 })),
	}

	enabled := diagnostics.NewRecorder()
	on, err := reducer.New(0, entries, reducer.WithDiagnostics(true), reducer.WithWarner(enabled))
	require.NoError(t, err)
	assert.Equal(t, 1, enabled.Count())
	assert.Equal(t, []string{domain.UndefinedWarning}, enabled.Messages())

	disabled := diagnostics.NewRecorder()
	off, err := reducer.New(0, entries, reducer.WithDiagnostics(false), reducer.WithWarner(disabled))
	require.NoError(t, err)
	assert.Equal(t, 0, disabled.Count())

	for _, evt := range []domain.Record{ev("ok"), ev("undefined"), ev("nope")} {
		a, errA := on.Dispatch(nil, evt)
		b, errB := off.Dispatch(nil, evt)
		assert.Equal(t, a, b, "dispatch must not depend on diagnostics (%s)", evt.Type)
		assert.Equal(t, errA, errB)
	}
}

func TestNew_WarnsPerLevel(t *testing.T) {
	rec := diagnostics.NewRecorder()
	noop := table.Pure(func(s int, _ domain.Record) int { return s })

	_, err := reducer.New(0, []table.Entry[int, domain.Record]{
		table.On("undefined", noop),
		table.Group("A", table.On("undefined", noop)),
		table.Group("B", table.On("undefined", noop)),
	}, reducer.WithDiagnostics(true), reducer.WithWarner(rec))
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Count())

	// Not deduplicated across constructions.
	_, err = reducer.New(0, []table.Entry[int, domain.Record]{
		table.On("undefined", noop),
	}, reducer.WithDiagnostics(true), reducer.WithWarner(rec))
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Count())
}

func TestDispatch_NilStateUsesInitial(t *testing.T) {
	r, err := reducer.New(10, []table.Entry[int, domain.Record]{
		table.On("double", table.Pure(func(s int, _ domain.Record) int { return s * 2 })),
	}, quiet())
	require.NoError(t, err)

	initial := r.Initial()
	viaNil, err := r.Dispatch(nil, ev("double"))
	require.NoError(t, err)
	viaInitial, err := r.Dispatch(&initial, ev("double"))
	require.NoError(t, err)

	assert.Equal(t, 20, viaNil)
	assert.Equal(t, viaNil, viaInitial)

	untouched, err := r.Dispatch(nil, ev("unknown"))
	require.NoError(t, err)
	assert.Equal(t, 10, untouched)
}

func TestDispatch_HandlerCalledExactlyOnce(t *testing.T) {
	calls := 0
	var seen domain.Record
	r, err := reducer.New(0, []table.Entry[int, domain.Record]{
		table.On("count", func(s int, evt domain.Record) (int, error) {
			calls++
			seen = evt
			return s + 1, nil
		}),
	}, quiet())
	require.NoError(t, err)

	evt := domain.Record{Type: "count", Payload: map[string]any{"n": 1}}
	out, err := r.Reduce(41, evt)
	require.NoError(t, err)

	assert.Equal(t, 42, out)
	assert.Equal(t, 1, calls)
	assert.Equal(t, evt, seen)
}

func TestDispatch_HandlerErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("boom")
	r, err := reducer.New(0, []table.Entry[int, domain.Record]{
		table.On("explode", func(s int, _ domain.Record) (int, error) { return -1, boom }),
	}, quiet())
	require.NoError(t, err)

	out, err := r.Reduce(5, ev("explode"))
	assert.Same(t, boom, err)
	assert.Equal(t, -1, out, "handler output is returned as is")
}

func TestDispatch_HandlerPanicPropagates(t *testing.T) {
	r, err := reducer.New(0, []table.Entry[int, domain.Record]{
		table.On("panic", func(int, domain.Record) (int, error) { panic("handler bug") }),
	}, quiet())
	require.NoError(t, err)

	assert.PanicsWithValue(t, "handler bug", func() {
		_, _ = r.Reduce(0, ev("panic"))
	})
}

func TestDispatch_NilHandler(t *testing.T) {
	r, err := reducer.New(3, []table.Entry[int, domain.Record]{
		table.On[int, domain.Record]("missing", nil),
	}, quiet())
	require.NoError(t, err)

	out, err := r.Reduce(3, ev("missing"))
	assert.ErrorIs(t, err, domain.ErrNilHandler)
	assert.Equal(t, 3, out)
}

type ptrEvent struct {
	kind string
}

func (e *ptrEvent) EventType() string { return e.kind }

func TestDispatch_MissingDiscriminant(t *testing.T) {
	calls := 0
	var seen []reducer.Dispatch
	r, err := reducer.New(1, []table.Entry[int, *ptrEvent]{
		table.On("tick", func(s int, _ *ptrEvent) (int, error) {
			calls++
			return s + 1, nil
		}),
	}, quiet(), reducer.WithHooks(reducer.Hooks{
		OnDispatch: func(d reducer.Dispatch) { seen = append(seen, d) },
	}))
	require.NoError(t, err)

	out, err := r.Reduce(1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out)

	out, err = r.Reduce(1, &ptrEvent{})
	require.NoError(t, err)
	assert.Equal(t, 1, out)
	assert.Zero(t, calls)

	require.Len(t, seen, 2)
	for _, d := range seen {
		assert.False(t, d.Matched)
	}
}

func TestNew_EmptyKeyRejected(t *testing.T) {
	_, err := reducer.New(0, []table.Entry[int, domain.Record]{
		table.On("", table.Pure(func(s int, _ domain.Record) int { return s + 1 })),
	}, quiet())
	require.ErrorIs(t, err, domain.ErrEmptyKey)

	// an event without a type can therefore never report a match
	r := counter(t)
	assert.False(t, r.Table().Has(""))
	out, err := r.Reduce(5, ev(""))
	require.NoError(t, err)
	assert.Equal(t, 5, out)
}

func TestFold(t *testing.T) {
	r := counter(t)

	out, err := r.Fold(ev("increment"), ev("increment"), ev("noise"), ev("decrement"), ev("increment"))
	require.NoError(t, err)
	assert.Equal(t, 2, out)

	out, err = r.FoldFrom(10, ev("decrement"))
	require.NoError(t, err)
	assert.Equal(t, 9, out)
}

func TestFold_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	r, err := reducer.New(0, []table.Entry[int, domain.Record]{
		table.On("inc", table.Pure(func(s int, _ domain.Record) int { return s + 1 })),
		table.On("fail", func(s int, _ domain.Record) (int, error) { return s, boom }),
	}, quiet())
	require.NoError(t, err)

	out, err := r.Fold(ev("inc"), ev("fail"), ev("inc"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, out)
}

func TestFunc(t *testing.T) {
	dispatch := counter(t).Func()

	state, err := dispatch(nil, ev("increment"))
	require.NoError(t, err)
	state, err = dispatch(&state, ev("increment"))
	require.NoError(t, err)
	assert.Equal(t, 2, state)
}

func TestNew_FlattensOnce(t *testing.T) {
	r := counter(t)
	before := r.Table()

	for i := 0; i < 5; i++ {
		_, err := r.Dispatch(nil, ev("increment"))
		require.NoError(t, err)
	}

	assert.Same(t, before, r.Table())
}

func TestNew_Glue(t *testing.T) {
	r, err := reducer.New(0, []table.Entry[int, domain.Record]{
		table.Group("Counter", table.On("Add", table.Pure(func(s int, _ domain.Record) int { return s + 1 }))),
	}, reducer.WithGlue("/"), quiet())
	require.NoError(t, err)

	out, err := r.Dispatch(nil, ev("Counter/Add"))
	require.NoError(t, err)
	assert.Equal(t, 1, out)
}

func TestNew_Strict(t *testing.T) {
	noop := table.Pure(func(s int, _ domain.Record) int { return s })
	entries := []table.Entry[int, domain.Record]{
		table.On("dup", noop),
		table.On("dup", noop),
	}

	_, err := reducer.New(0, entries, reducer.WithStrict(true), quiet())
	assert.ErrorIs(t, err, domain.ErrKeyCollision)

	_, err = reducer.New(0, entries, quiet())
	assert.NoError(t, err)
}

func TestHooks(t *testing.T) {
	boom := errors.New("boom")
	var got []reducer.Dispatch
	r, err := reducer.New(0, []table.Entry[int, domain.Record]{
		table.On("inc", table.Pure(func(s int, _ domain.Record) int { return s + 1 })),
		table.On("fail", func(s int, _ domain.Record) (int, error) { return s, boom }),
	}, quiet(), reducer.WithHooks(reducer.Hooks{
		OnDispatch: func(d reducer.Dispatch) { got = append(got, d) },
	}))
	require.NoError(t, err)

	_, _ = r.Reduce(0, ev("inc"))
	_, _ = r.Reduce(0, ev("other"))
	_, _ = r.Reduce(0, ev("fail"))

	require.Len(t, got, 3)
	assert.Equal(t, "inc", got[0].Key)
	assert.True(t, got[0].Matched)
	assert.NoError(t, got[0].Err)
	assert.Equal(t, "other", got[1].Key)
	assert.False(t, got[1].Matched)
	assert.ErrorIs(t, got[2].Err, boom)
}

func TestDispatch_Concurrent(t *testing.T) {
	r := counter(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			out, err := r.Reduce(start, ev("increment"))
			assert.NoError(t, err)
			assert.Equal(t, start+1, out)
		}(i)
	}
	wg.Wait()
}
