/*
Package domain contains the core domain models of the lead qualification engine.

It defines the entities shared by the flow interpreter, the lead store and the
action dispatcher. This package is kept pure and free of I/O, so every adapter
(storage, transport, generation providers) depends on it and never the reverse.

# Key Entities

  - Step: A single node of the conversation script (Message, Choice or Action).
  - Lead: The persisted state of one conversation participant.
  - ActionRequest: What the engine asks an external capability to produce.
  - LifecycleHooks: Callbacks emitted while a turn is processed.
*/
package domain
