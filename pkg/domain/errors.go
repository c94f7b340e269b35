package domain

import "errors"

// ErrKeyCollision is returned in strict mode when two entries flatten to the same key.
var ErrKeyCollision = errors.New("handler key collision")

// ErrNestedGroup is returned when a group contains another group.
// Only one level of nesting is flattened.
var ErrNestedGroup = errors.New("handler groups cannot be nested more than one level")

// ErrEmptyKey is returned when an entry flattens to the empty key.
// Events without a type never match, so such a handler could not be reached.
var ErrEmptyKey = errors.New("handler key is empty")

// ErrNilHandler is returned when an event matches a key registered without a handler.
var ErrNilHandler = errors.New("handler is nil")

// ErrStreamNotFound is returned when a stream ID cannot be found in the store.
var ErrStreamNotFound = errors.New("stream not found")

// ErrStaleSnapshot is returned when a store refuses a snapshot older than the one it holds.
var ErrStaleSnapshot = errors.New("snapshot is stale")

// ErrUnknownOp is returned when a rule step names an operation that does not exist.
var ErrUnknownOp = errors.New("unknown rule operation")

// ErrRejected is returned by the "fail" rule operation.
var ErrRejected = errors.New("event rejected")
