/*
Package ports defines the driven ports (interfaces) of the lead flow engine.

These interfaces decouple the conversation core from external implementations,
allowing it to work with various storage backends and generation providers.

# Key Interfaces

  - LeadStore: Persists and loads Lead records (memory, file, Redis, SQLite, Postgres).
  - DistributedLocker: Serializes access to a lead across replicas.
  - ActionDispatcher: Invokes external capabilities for Action steps.
*/
package ports
