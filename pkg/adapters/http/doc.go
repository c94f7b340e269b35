/*
Package http exposes a stream manager over HTTP.

Routes:

	GET    /health
	GET    /info
	GET    /handlers                 flattened handler keys
	GET    /streams                  stream IDs
	GET    /streams/{id}             current snapshot
	POST   /streams/{id}/events      apply one event or an array of events
	DELETE /streams/{id}
	GET    /streams/{id}/changes     server-sent events with state diffs
	GET    /metrics                  when a metrics handler is configured
*/
package http
