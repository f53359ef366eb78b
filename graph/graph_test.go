package graph

import (
	"encoding/json"
	"testing"

	"github.com/hupe1980/advisormesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSpecs mirrors the production dependency shape on a small roster:
//
//	market_analyst ─┬→ risk_assessment ────┐
//	                └→ behavioral_analysis ┴→ portfolio_optimizer
func testSpecs() map[core.AgentID]core.AgentSpec {
	return map[core.AgentID]core.AgentSpec{
		core.MarketAnalyst: {Provides: []string{"market_conditions"}},
		core.RiskAssessment: {
			DependsOn: []core.AgentID{core.MarketAnalyst},
			Provides:  []string{"risk_tolerance"},
		},
		core.BehavioralAnalysis: {
			DependsOn: []core.AgentID{core.MarketAnalyst},
			Provides:  []string{"behavioral_biases"},
		},
		core.PortfolioOptimizer: {
			DependsOn: []core.AgentID{core.RiskAssessment, core.BehavioralAnalysis},
			Provides:  []string{"asset_allocation"},
		},
	}
}

func mustGraph(t *testing.T, specs map[core.AgentID]core.AgentSpec) *DependencyGraph {
	t.Helper()
	g, err := New(specs)
	require.NoError(t, err)
	return g
}

func TestNew_RejectsUndeclaredDependency(t *testing.T) {
	_, err := New(map[core.AgentID]core.AgentSpec{
		core.RiskAssessment: {DependsOn: []core.AgentID{core.MarketAnalyst}},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared")
}

func TestNew_RejectsCyclicDeclaration(t *testing.T) {
	_, err := New(map[core.AgentID]core.AgentSpec{
		core.MarketAnalyst:  {DependsOn: []core.AgentID{core.RiskAssessment}},
		core.RiskAssessment: {DependsOn: []core.AgentID{core.MarketAnalyst}},
	})
	require.Error(t, err)

	var cycleErr *CircularDependencyError
	assert.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []core.AgentID{core.MarketAnalyst, core.RiskAssessment}, cycleErr.Unresolved)
}

func TestExecutionStages_ScenarioA(t *testing.T) {
	g := mustGraph(t, testSpecs())

	stages, err := g.ExecutionStages([]core.AgentID{core.MarketAnalyst, core.RiskAssessment})
	require.NoError(t, err)
	assert.Equal(t, []Stage{
		{core.MarketAnalyst},
		{core.RiskAssessment},
	}, stages)
}

func TestExecutionStages_ScenarioB(t *testing.T) {
	g := mustGraph(t, testSpecs())

	stages, err := g.ExecutionStages(g.Expand([]core.AgentID{core.PortfolioOptimizer}))
	require.NoError(t, err)

	require.Len(t, stages, 3)
	assert.Equal(t, Stage{core.MarketAnalyst}, stages[0])
	assert.ElementsMatch(t, Stage{core.BehavioralAnalysis, core.RiskAssessment}, stages[1])
	assert.Equal(t, Stage{core.PortfolioOptimizer}, stages[2])
}

func TestExecutionStages_PartitionLaws(t *testing.T) {
	g := mustGraph(t, core.DefaultSpecs())
	requested := g.Expand(core.AllAgents())

	stages, err := g.ExecutionStages(requested)
	require.NoError(t, err)

	// Concatenation is exactly the requested set, each agent exactly once.
	seenStage := map[core.AgentID]int{}
	total := 0
	for i, stage := range stages {
		for _, id := range stage {
			_, dup := seenStage[id]
			assert.Falsef(t, dup, "agent %s appears twice", id)
			seenStage[id] = i
			total++
		}
	}
	assert.Equal(t, len(requested), total)

	// Every agent is strictly after all of its dependencies.
	for id, idx := range seenStage {
		spec, _ := g.Spec(id)
		for _, dep := range spec.DependsOn {
			assert.Greaterf(t, idx, seenStage[dep], "%s must run after %s", id, dep)
		}
	}
}

func TestExecutionStages_MissingDependencyFaults(t *testing.T) {
	g := mustGraph(t, testSpecs())

	// risk_assessment without market_analyst can never become ready.
	_, err := g.ExecutionStages([]core.AgentID{core.RiskAssessment})
	require.Error(t, err)

	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []core.AgentID{core.RiskAssessment}, cycleErr.Unresolved)
}

func TestValidateSelection(t *testing.T) {
	g := mustGraph(t, testSpecs())

	assert.NoError(t, g.ValidateSelection([]core.AgentID{core.MarketAnalyst, core.RiskAssessment}))

	err := g.ValidateSelection([]core.AgentID{core.RiskAssessment})
	require.Error(t, err)

	var missErr *MissingDependencyError
	require.ErrorAs(t, err, &missErr)
	assert.Equal(t, []core.AgentID{core.MarketAnalyst}, missErr.Missing[core.RiskAssessment])
	assert.Contains(t, err.Error(), "market_analyst")
}

func TestValidateSelection_ScenarioD_UnknownAgent(t *testing.T) {
	g := mustGraph(t, testSpecs())

	phantom := core.AgentID("crystal_ball")
	err := g.ValidateSelection([]core.AgentID{core.MarketAnalyst, phantom})
	require.Error(t, err)

	var missErr *MissingDependencyError
	require.ErrorAs(t, err, &missErr)
	assert.Equal(t, []core.AgentID{phantom}, missErr.Unknown)
	assert.Contains(t, err.Error(), "crystal_ball")
}

func TestExpand_ClosureAndIdempotence(t *testing.T) {
	g := mustGraph(t, testSpecs())

	once := g.Expand([]core.AgentID{core.PortfolioOptimizer})
	assert.ElementsMatch(t, []core.AgentID{
		core.MarketAnalyst, core.RiskAssessment, core.BehavioralAnalysis, core.PortfolioOptimizer,
	}, once)

	twice := g.Expand(once)
	assert.Equal(t, once, twice)
}

func TestExecutionPlan_Deterministic(t *testing.T) {
	g := mustGraph(t, core.DefaultSpecs())
	requested := g.Expand([]core.AgentID{core.TaxAdvisor, core.GoalPlanner})

	first := g.ExecutionPlan(requested)
	second := g.ExecutionPlan(requested)
	assert.Equal(t, first, second)
	assert.True(t, first.Valid)
}

func TestExecutionPlan_AnnotatesStages(t *testing.T) {
	g := mustGraph(t, testSpecs())

	plan := g.ExecutionPlan(g.Expand([]core.AgentID{core.PortfolioOptimizer}))
	require.True(t, plan.Valid)
	require.Equal(t, 3, plan.TotalStages)
	assert.Equal(t, 4, plan.TotalAgents)

	assert.False(t, plan.Stages[0].Parallelizable)
	assert.True(t, plan.Stages[1].Parallelizable)
	assert.ElementsMatch(t, []core.AgentID{core.BehavioralAnalysis, core.RiskAssessment}, plan.Stages[1].AgentIDs())

	opt := plan.Stages[2].Agents[0]
	assert.Equal(t, core.PortfolioOptimizer, opt.ID)
	assert.ElementsMatch(t, []core.AgentID{core.RiskAssessment, core.BehavioralAnalysis}, opt.DependsOn)
	assert.Equal(t, []string{"asset_allocation"}, opt.Provides)

	// The plan must round-trip through JSON for diagnostic surfaces.
	data, err := json.Marshal(plan)
	require.NoError(t, err)
	var decoded Plan
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, plan.TotalStages, decoded.TotalStages)
}

func TestExecutionPlan_InvalidSelection(t *testing.T) {
	g := mustGraph(t, testSpecs())

	plan := g.ExecutionPlan([]core.AgentID{core.PortfolioOptimizer})
	assert.False(t, plan.Valid)
	assert.NotEmpty(t, plan.Error)
	assert.Empty(t, plan.Stages)

	assert.False(t, g.ExecutionPlan(nil).Valid)
}

func TestNew_IsolatedFromCallerMutation(t *testing.T) {
	specs := testSpecs()
	g := mustGraph(t, specs)

	// Clobber the caller's slices after construction; the graph must keep the
	// declaration it validated.
	riskSpec := specs[core.RiskAssessment]
	riskSpec.DependsOn[0] = core.AgentID("hijacked")
	riskSpec.Provides[0] = "hijacked"

	kept, ok := g.Spec(core.RiskAssessment)
	require.True(t, ok)
	assert.Equal(t, []core.AgentID{core.MarketAnalyst}, kept.DependsOn)
	assert.Equal(t, []string{"risk_tolerance"}, kept.Provides)

	stages, err := g.ExecutionStages([]core.AgentID{core.MarketAnalyst, core.RiskAssessment})
	require.NoError(t, err)
	assert.Equal(t, []Stage{{core.MarketAnalyst}, {core.RiskAssessment}}, stages)

	// Plan annotations hand out copies too.
	plan := g.ExecutionPlan(g.Expand([]core.AgentID{core.RiskAssessment}))
	require.True(t, plan.Valid)
	plan.Stages[1].Agents[0].DependsOn[0] = core.AgentID("hijacked")
	kept, _ = g.Spec(core.RiskAssessment)
	assert.Equal(t, []core.AgentID{core.MarketAnalyst}, kept.DependsOn)
}

func TestDependentsAndSuggestions(t *testing.T) {
	g := mustGraph(t, testSpecs())

	assert.Equal(t, []core.AgentID{core.BehavioralAnalysis, core.RiskAssessment}, g.Dependents(core.MarketAnalyst))
	assert.Empty(t, g.Dependents(core.PortfolioOptimizer))

	// Everything portfolio_optimizer needs is selected, so it is suggested.
	suggestions := g.SuggestAdditional([]core.AgentID{
		core.MarketAnalyst, core.RiskAssessment, core.BehavioralAnalysis,
	})
	assert.Equal(t, []core.AgentID{core.PortfolioOptimizer}, suggestions)

	// risk_assessment is not suggested while market_analyst is absent.
	suggestions = g.SuggestAdditional([]core.AgentID{core.BehavioralAnalysis})
	assert.NotContains(t, suggestions, core.RiskAssessment)
}
