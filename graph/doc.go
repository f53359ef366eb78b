// Package graph implements the static dependency graph over the agent roster:
// stage partitioning (topological layering with maximal parallelism per wave),
// selection validation, fixed-point dependency expansion and pure, serializable
// execution plans.
//
// The two graph fault classes are distinguishable by type: a
// CircularDependencyError is a graph-shape fault detected during stage
// computation, while a MissingDependencyError is a caller-input fault caught
// by ValidateSelection before any work begins.
package graph
