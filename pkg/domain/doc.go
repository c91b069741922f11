/*
Package domain contains the core models of the ticketflow engine.

It defines the record that flows through a workflow run, the error taxonomy
shared by stages, providers and the executor, and the lifecycle events the
executor emits. The package is free of I/O and persistence concerns.

# Key Entities

  - State: the sparse, typed record owned by one run (absent is distinct from zero).
  - LifecycleHooks: observer callbacks for stage entry/exit and provider invocations.
  - ExecutionAbortedError: the executor's failure wrapper, carrying the failing stage and partial state.
  - RunRecord: the persisted summary of a finished run.
*/
package domain
