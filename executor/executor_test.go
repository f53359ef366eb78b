package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/advisormesh/core"
	"github.com/hupe1980/advisormesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingModel always reports a terminal error.
type failingModel struct{}

func (failingModel) Generate(context.Context, model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response)
	errCh := make(chan error, 1)
	errCh <- errors.New("provider unavailable")
	close(respCh)
	close(errCh)
	return respCh, errCh
}

func (failingModel) Info() model.Info { return model.Info{Name: "failing", Provider: "test"} }

func TestModelExecutor_StructuredReply(t *testing.T) {
	m := model.NewMockModel("advisor-test")
	m.AddResponse("how risky is tech?", `{"analysis":"tech is volatile","risk_factors":"concentration risk; drawdown risk","confidence":0.7}`)

	exec := New(m)
	out, err := exec.Execute(context.Background(), core.MarketAnalyst, "how risky is tech?", nil)
	require.NoError(t, err)
	assert.Equal(t, "tech is volatile", out.Analysis)
	assert.Equal(t, []string{"concentration risk", "drawdown risk"}, out.RiskFactorList())
	require.NotNil(t, out.Confidence)
	assert.InDelta(t, 0.7, *out.Confidence, 0.001)
}

func TestModelExecutor_FreeTextReply(t *testing.T) {
	m := model.NewMockModel("advisor-test")
	m.AddResponse("hello", "plain prose answer")

	exec := New(m)
	out, err := exec.Execute(context.Background(), core.EducationGuide, "hello", nil)
	require.NoError(t, err)
	assert.Empty(t, out.Analysis)
	assert.Equal(t, "plain prose answer", out.Raw)
}

func TestModelExecutor_UnparsableJSONFallsBackToRaw(t *testing.T) {
	m := model.NewMockModel("advisor-test")
	m.AddResponse("q", `{"unrelated":"fields"}`)

	exec := New(m)
	out, err := exec.Execute(context.Background(), core.GoalPlanner, "q", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"unrelated":"fields"}`, out.Raw)
}

func TestModelExecutor_ProfileAppended(t *testing.T) {
	m := model.NewMockModel("advisor-test")
	exec := New(m)

	out, err := exec.Execute(context.Background(), core.TaxAdvisor, "query",
		map[string]any{"user_profile": map[string]any{"age": 40}})
	require.NoError(t, err)
	// The mock echoes unknown inputs, so the profile must be visible in the echo.
	assert.Contains(t, out.Raw, `"age":40`)
}

func TestModelExecutor_ModelError(t *testing.T) {
	exec := New(failingModel{})

	_, err := exec.Execute(context.Background(), core.MarketAnalyst, "q", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider unavailable")
	assert.Contains(t, err.Error(), "market_analyst")
}

func TestModelExecutor_UnknownAgent(t *testing.T) {
	exec := New(model.NewMockModel("advisor-test"))

	_, err := exec.Execute(context.Background(), core.AgentID("astrologer"), "q", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "astrologer")
}

func TestInstructionFor_CoversRoster(t *testing.T) {
	for _, id := range core.AllAgents() {
		instr, err := instructionFor(id)
		require.NoErrorf(t, err, "missing instruction for %s", id)
		assert.NotEmpty(t, instr)
	}
}

func TestModelExecutor_StreamOption(t *testing.T) {
	m := model.NewMockModel("advisor-test")
	m.AddResponse("q", "streamed answer")

	exec := New(m, func(o *Options) { o.Stream = true })
	out, err := exec.Execute(context.Background(), core.BehavioralAnalysis, "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "streamed answer", out.Raw)
}
