/*
Package ports defines the driven ports (interfaces) of the ticketflow engine.

These interfaces decouple the executor and the stages from concrete capability
providers and from the storage backends used to keep run records.

# Key Interfaces

  - Provider: a named capability implementation owning a set of abilities.
  - Invoker: what a stage uses to address a provider ability by name.
  - WorkflowRunner: executes one run of a workflow graph.
  - RunStore: persists finished run records (memory, Redis).
  - DistributedLocker: serializes runs for the same ticket across replicas.
*/
package ports
