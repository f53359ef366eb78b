// Package orchestrator coordinates one query across the advisory agent
// roster. A ProcessQuery call moves through validating, planning, executing
// and synthesizing phases: the requested selection is expanded to its
// dependency closure and validated, the dependency graph yields ordered
// stages, agents within a stage run concurrently under the shared rate
// limiter and concurrency gate, and the accumulated results are synthesized
// into a single aggregate response.
//
// Stage N+1 never begins until every task of stage N has settled; that total
// order is the guarantee dependents rely on to see prerequisite output. A
// single agent's failure never aborts its siblings or later stages — its
// dependents simply see no context entry for it.
package orchestrator
