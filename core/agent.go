package core

import "context"

// AgentID identifies one specialized advisory agent. The roster is a closed
// enumeration: adding an agent means adding a constant here and extending the
// exhaustive switches that dispatch on it, so the compiler (and Valid) keep
// callers honest instead of a runtime dictionary lookup.
type AgentID string

const (
	// MarketAnalyst surveys current market and sector conditions.
	MarketAnalyst AgentID = "market_analyst"
	// RiskAssessment evaluates risk tolerance and capacity against the market view.
	RiskAssessment AgentID = "risk_assessment"
	// BehavioralAnalysis profiles investor behavior and biases.
	BehavioralAnalysis AgentID = "behavioral_analysis"
	// PortfolioOptimizer derives an asset allocation from risk and behavior inputs.
	PortfolioOptimizer AgentID = "portfolio_optimizer"
	// TaxAdvisor reviews an allocation for tax efficiency.
	TaxAdvisor AgentID = "tax_advisor"
	// GoalPlanner projects goals and savings plans from the risk profile.
	GoalPlanner AgentID = "goal_planner"
	// EducationGuide explains financial concepts in plain language.
	EducationGuide AgentID = "education_guide"
)

// AllAgents returns the full roster in declaration order.
func AllAgents() []AgentID {
	return []AgentID{
		MarketAnalyst,
		RiskAssessment,
		BehavioralAnalysis,
		PortfolioOptimizer,
		TaxAdvisor,
		GoalPlanner,
		EducationGuide,
	}
}

// Valid reports whether id names a member of the closed roster.
func (id AgentID) Valid() bool {
	switch id {
	case MarketAnalyst, RiskAssessment, BehavioralAnalysis, PortfolioOptimizer,
		TaxAdvisor, GoalPlanner, EducationGuide:
		return true
	}
	return false
}

// String returns the wire/display form of the identifier.
func (id AgentID) String() string { return string(id) }

// AgentSpec declares the static scheduling metadata for one agent: which
// agents must complete before it may run, and which named data categories its
// output exposes to dependents. Specs are declared once at startup and never
// mutated afterwards.
type AgentSpec struct {
	DependsOn []AgentID `json:"depends_on,omitempty"`
	Provides  []string  `json:"provides,omitempty"`
}

// DefaultSpecs returns the production roster declaration. The dependency
// relation is acyclic; graph.New validates this rather than assuming it.
func DefaultSpecs() map[AgentID]AgentSpec {
	return map[AgentID]AgentSpec{
		MarketAnalyst: {
			Provides: []string{"market_conditions", "sector_trends"},
		},
		RiskAssessment: {
			DependsOn: []AgentID{MarketAnalyst},
			Provides:  []string{"risk_tolerance", "risk_capacity"},
		},
		BehavioralAnalysis: {
			Provides: []string{"behavioral_biases", "investor_profile"},
		},
		PortfolioOptimizer: {
			DependsOn: []AgentID{RiskAssessment, BehavioralAnalysis},
			Provides:  []string{"asset_allocation", "rebalancing_plan"},
		},
		TaxAdvisor: {
			DependsOn: []AgentID{PortfolioOptimizer},
			Provides:  []string{"tax_efficiency", "harvesting_opportunities"},
		},
		GoalPlanner: {
			DependsOn: []AgentID{RiskAssessment},
			Provides:  []string{"goal_projections", "savings_plan"},
		},
		EducationGuide: {
			Provides: []string{"explanations", "concepts"},
		},
	}
}

// Executor is the external collaborator that performs an agent's actual
// reasoning. The orchestrator hands it the agent identifier, the enriched
// query (original query plus rendered dependency context) and a structured
// context map, and treats any returned error as a per-agent failure rather
// than a fatal one.
//
// The type carries no reference to the orchestrator, so an agent's execution
// cannot re-enter the scheduler.
type Executor interface {
	Execute(ctx context.Context, id AgentID, enrichedQuery string, agentCtx map[string]any) (*AgentOutput, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, id AgentID, enrichedQuery string, agentCtx map[string]any) (*AgentOutput, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, id AgentID, enrichedQuery string, agentCtx map[string]any) (*AgentOutput, error) {
	return f(ctx, id, enrichedQuery, agentCtx)
}
