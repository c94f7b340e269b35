/*
Package foldtable builds reducers out of declarative, two-level handler tables.

A reducer folds a stream of typed events into a running state. Instead of a
hand written switch on the event type, handlers are declared as a table whose
keys are event types. Related handlers can be grouped one level deep; a group
"Fetch" with children "Start" and "Done" answers to the event types
"Fetch_Start" and "Fetch_Done".

# Concept

The table is flattened exactly once when the reducer is built. Dispatching an
event looks up its type in the flat table: a match calls the handler with the
current state and the event, anything else returns the state unchanged. Handler
errors are returned to the caller as they are.

# Usage

	type Counter struct{ N int }

	r, err := foldtable.New(Counter{}, []foldtable.Entry[Counter, foldtable.Record]{
		foldtable.On("reset", foldtable.Pure(func(Counter, foldtable.Record) Counter {
			return Counter{}
		})),
		foldtable.Group("Counter",
			foldtable.On("Inc", foldtable.Pure(func(c Counter, _ foldtable.Record) Counter {
				return Counter{N: c.N + 1}
			})),
		),
	})
	if err != nil {
		log.Fatal(err)
	}

	state, err := r.Fold(
		foldtable.Record{Type: "Counter_Inc"},
		foldtable.Record{Type: "Counter_Inc"},
	)
	// state.N == 2

# Diagnostics

Registering the key "undefined" usually means an event type constant was
misspelled upstream. Outside production (FOLDTABLE_ENV != "production") the
reducer logs a warning to Stderr. See package diagnostics for the details.

Rule-driven reducers over map-shaped documents, persistence, HTTP and MCP
adapters live under pkg/.
*/
package foldtable
