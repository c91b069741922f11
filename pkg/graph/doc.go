/*
Package graph defines the static workflow graph: named stages, ordered and
optionally guarded edges, a single entry node and the END terminal marker.

Graphs are validated once at construction and are read-only afterwards, so a
single graph can be shared by any number of concurrent runs. Use package dsl
for a fluent way to declare them.
*/
package graph
