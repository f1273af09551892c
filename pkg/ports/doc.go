/*
Package ports defines the driven ports (interfaces) for the Parley engine.

These interfaces decouple the session engine from external implementations, allowing
it to work with various scenario sources and storage backends.

# Key Interfaces

  - ScenarioSource: Supplies scenarios (and their step graphs) by identifier.
  - SessionStore: Persists and loads Session snapshots.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
