package graph

import "github.com/hupe1980/advisormesh/core"

// Plan is the fully serializable result of planning a requested agent set.
// It is a pure function of the graph declaration and the input set, safe to
// compute speculatively for UI or diagnostic purposes without side effects.
type Plan struct {
	Valid       bool        `json:"valid"`
	Error       string      `json:"error,omitempty"`
	Stages      []PlanStage `json:"stages"`
	TotalStages int         `json:"total_stages"`
	TotalAgents int         `json:"total_agents"`
}

// PlanStage annotates one execution wave.
type PlanStage struct {
	Agents []PlanAgent `json:"agents"`
	// Parallelizable flags waves with more than one member.
	Parallelizable bool `json:"parallelizable"`
}

// PlanAgent annotates one scheduled agent with its declaration.
type PlanAgent struct {
	ID        core.AgentID   `json:"id"`
	DependsOn []core.AgentID `json:"depends_on,omitempty"`
	Provides  []string       `json:"provides,omitempty"`
}

// AgentIDs returns the bare identifiers of one stage.
func (s PlanStage) AgentIDs() []core.AgentID {
	ids := make([]core.AgentID, len(s.Agents))
	for i, a := range s.Agents {
		ids[i] = a.ID
	}
	return ids
}

// ExecutionPlan validates the requested selection then computes its stage
// partition. Validation failures and graph-shape faults yield a Plan with
// Valid=false, the descriptive error message, and an empty stage list.
func (g *DependencyGraph) ExecutionPlan(requested []core.AgentID) *Plan {
	if len(requested) == 0 {
		return &Plan{Valid: false, Error: "no agents requested"}
	}

	if err := g.ValidateSelection(requested); err != nil {
		return &Plan{Valid: false, Error: err.Error()}
	}

	stages, err := g.ExecutionStages(requested)
	if err != nil {
		return &Plan{Valid: false, Error: err.Error()}
	}

	plan := &Plan{
		Valid:       true,
		Stages:      make([]PlanStage, len(stages)),
		TotalStages: len(stages),
		TotalAgents: len(requested),
	}
	for i, stage := range stages {
		ps := PlanStage{
			Agents:         make([]PlanAgent, len(stage)),
			Parallelizable: len(stage) > 1,
		}
		for j, id := range stage {
			spec := g.specs[id]
			ps.Agents[j] = PlanAgent{
				ID:        id,
				DependsOn: append([]core.AgentID(nil), spec.DependsOn...),
				Provides:  append([]string(nil), spec.Provides...),
			}
		}
		plan.Stages[i] = ps
	}
	return plan
}
