/*
Package rules compiles declarative handler definitions into reducers over
domain.Document.

A rule file is YAML (JSON works too, being a subset):

	name: cart
	glue: "_"
	initial:
	  count: 0
	  items: []
	handlers:
	  reset:
	    - op: replace
	      value: {count: 0, items: []}
	  Cart:
	    Add:
	      - op: incr
	        path: count
	      - op: append
	        path: items
	        from: payload.sku

A handler whose value is a list of steps is a leaf; a mapping is a group of
leaves. Mapping order is preserved, so collisions resolve exactly like they do
in table.Flatten.

Operations: set, unset, incr, decr, append, merge, replace and fail. The value
of a step comes from "value" or is read from the event through "from" ("type",
"payload" or "payload.<path>"). Steps run on a deep copy of the state; the
input state is never modified.
*/
package rules
