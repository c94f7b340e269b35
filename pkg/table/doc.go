/*
Package table builds flat handler tables out of two-level handler definitions.

Definitions are an ordered list of entries. An entry is either a leaf created
with On, binding a key to a Handler, or a group created with Group, whose
children are leaves. Flatten joins a group key and each child key with a glue
string (default "_"):

	entries := []table.Entry[int, domain.Record]{
		table.On("Reset", reset),
		table.Group("Counter",
			table.On("Increment", increment),
			table.On("Decrement", decrement),
		),
	}
	t, err := table.Flatten(entries)
	// t.Keys() == ["Reset", "Counter_Increment", "Counter_Decrement"]

When two entries produce the same key the later one wins, unless strict mode
is requested, in which case Flatten fails with domain.ErrKeyCollision.
*/
package table
