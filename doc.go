/*
Package ticketflow is a deterministic workflow engine for customer-support tickets.

A ticket enters as a flat record of fields and travels through a fixed graph of
eleven stages (INTAKE, UNDERSTAND, PREPARE, ASK, WAIT, RETRIEVE, DECIDE, UPDATE,
CREATE, DO, COMPLETE). Stages never do the work themselves: they call named
abilities on capability providers looked up in an explicit registry. Every stage
only adds or overwrites fields, so the record grows monotonically until the
terminal marker is reached.

# Usage

	eng, err := ticketflow.New()
	if err != nil {
		log.Fatal(err)
	}

	ticket := domain.NewState()
	ticket.Set(domain.FieldCustomerName, "Alice")
	ticket.Set(domain.FieldEmail, "alice@example.com")
	ticket.Set(domain.FieldQuery, "I cannot log in to my email account")
	ticket.Set(domain.FieldTicketID, "T125")

	final, err := eng.Execute(ctx, ticket)

If a stage fails, Execute returns a *domain.ExecutionAbortedError naming the
stage and carrying the partial record:

	var aborted *domain.ExecutionAbortedError
	if errors.As(err, &aborted) {
		log.Printf("stopped at %s with %d fields", aborted.Stage, aborted.State.Len())
	}

# Observability

Pass domain.LifecycleHooks with WithLifecycleHooks to receive stage enter/leave,
ability call/return and run outcome events. The observability package turns
them into slog lines, Prometheus metrics and OpenTelemetry spans.

# Architecture

  - pkg/domain: the State record, events and errors.
  - pkg/registry: providers built from ability tables, and the registry.
  - pkg/graph, pkg/dsl: validated workflow graphs and a fluent builder.
  - pkg/support: the eleven support stages.
  - pkg/session: run IDs, per-ticket locking and run records.
  - pkg/adapters: memory and Redis stores, HTTP and MCP surfaces.
*/
package ticketflow
