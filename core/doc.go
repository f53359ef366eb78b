// Package core provides the foundational domain types and shared primitives
// used by AdvisorMesh. It defines:
//
//   - AgentID (closed roster of advisory agents) and AgentSpec declarations
//   - AgentOutput / AgentResult (per-agent execution outcomes)
//   - RunContext (result accumulation scoped to a single orchestration run)
//   - Executor (the external collaborator performing an agent's reasoning)
//   - RateLimiter and ConcurrencyGate (process-wide resource guards)
//
// The package intentionally keeps orchestration concerns (stage planning,
// scheduling, synthesis) out of scope; those live in the graph and
// orchestrator packages which build on these types.
package core
