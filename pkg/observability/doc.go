/*
Package observability turns engine lifecycle events into logs, metrics and traces.

Every component here produces a domain.LifecycleHooks value; use Combine to
attach several of them to one engine.
*/
package observability
