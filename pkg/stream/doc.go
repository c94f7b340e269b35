/*
Package stream folds events into persisted snapshots.

A Manager loads the last snapshot of a stream (or starts from the reducer's initial
state), folds new events through the reducer and saves the result. Access to a stream
is serialised by a per-stream lock and, when configured, by a distributed lock so that
several replicas can share one store.
*/
package stream
