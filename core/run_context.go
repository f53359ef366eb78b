package core

// RunContext carries the accumulated execution state for one orchestration
// run: the original query, the opaque user profile, and the per-agent results
// collected stage by stage. Each ProcessQuery call owns its own RunContext;
// it is never shared across concurrent runs.
//
// Results are merged in by the orchestrator goroutine between stages, so no
// locking is required: within a stage the context is read-only, and it only
// grows once the stage's tasks have all settled.
type RunContext struct {
	RunID       string
	Query       string
	UserProfile map[string]any

	results map[AgentID]*AgentResult
	order   []AgentID // insertion order, stage by stage
}

// NewRunContext constructs an empty RunContext for one run.
func NewRunContext(runID, query string, userProfile map[string]any) *RunContext {
	return &RunContext{
		RunID:       runID,
		Query:       query,
		UserProfile: userProfile,
		results:     map[AgentID]*AgentResult{},
	}
}

// Record merges one settled result. Called by the orchestrator only between
// stage boundaries.
func (rc *RunContext) Record(r *AgentResult) {
	if r == nil {
		return
	}
	if _, seen := rc.results[r.Agent]; !seen {
		rc.order = append(rc.order, r.Agent)
	}
	rc.results[r.Agent] = r
}

// Get returns the recorded result for an agent, if any.
func (rc *RunContext) Get(id AgentID) (*AgentResult, bool) {
	r, ok := rc.results[id]
	return r, ok
}

// SuccessfulOutput returns the output for an agent when it completed
// successfully with a non-nil output.
func (rc *RunContext) SuccessfulOutput(id AgentID) (*AgentOutput, bool) {
	r, ok := rc.results[id]
	if !ok || !r.Success || r.Output == nil {
		return nil, false
	}
	return r.Output, true
}

// Successful returns the agents that completed successfully, in the order
// their results were recorded.
func (rc *RunContext) Successful() []AgentID {
	var ids []AgentID
	for _, id := range rc.order {
		if r := rc.results[id]; r.Success {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of recorded results.
func (rc *RunContext) Len() int { return len(rc.results) }
