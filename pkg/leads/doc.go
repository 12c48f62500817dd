/*
Package leads implements lead state management and persistence orchestration.

The Manager serializes every read-modify-write of a lead behind a per-lead
mutex (and, when configured, a distributed lock) so concurrent messages from the
same participant never interleave. Different leads proceed in parallel.

Mutations happen inside Transact on a working copy that is committed with a
single store write, so a failed turn never leaves a half-updated record.
*/
package leads
