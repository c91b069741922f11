/*
Package session orchestrates ticket runs and their persistence.

A Manager assigns each run a UUID, serializes runs that target the same ticket
(locally, and across replicas when a distributed locker is configured), and
stores a domain.RunRecord for every finished run, completed or aborted.
*/
package session
