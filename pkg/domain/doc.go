/*
Package domain contains the core types shared by the foldtable packages.

It is kept free of I/O and persistence concerns so that the table builder, the
reducer and the adapters can all depend on it without pulling each other in.

# Key Entities

  - Event: anything exposing a discriminant through EventType.
  - Record: the concrete event envelope used by the CLI, HTTP and MCP surfaces.
  - Document: the map-shaped state folded by rule-driven reducers.
  - Snapshot: a persisted Document together with its stream ID and version.
*/
package domain
