/*
Package ports defines the driven ports (interfaces) used by the stream manager.

These interfaces decouple event folding from the storage and coordination
backends, so the same manager runs against memory, files or Redis.

# Key Interfaces

  - SnapshotStore: persists the folded state of each stream.
  - DistributedLocker: serialises access to a stream across replicas.
*/
package ports
