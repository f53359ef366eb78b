// Package executor implements the agent executor contract on top of a
// model.Model. Each agent identifier maps to a specialization instruction via
// an exhaustive switch, so adding a roster member is a compile-visible change
// here rather than a runtime dictionary miss.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/advisormesh/core"
	"github.com/hupe1980/advisormesh/logging"
	"github.com/hupe1980/advisormesh/model"
)

// Options configures the ModelExecutor.
type Options struct {
	// Stream requests incremental generation from providers that support it.
	Stream bool
	// Logger receives per-call diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// ModelExecutor implements core.Executor by driving a single model.Model with
// per-agent instructions. It holds no reference to the orchestrator.
type ModelExecutor struct {
	model  model.Model
	stream bool
	logger logging.Logger
}

// New creates a ModelExecutor backed by m.
func New(m model.Model, optFns ...func(o *Options)) *ModelExecutor {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &ModelExecutor{model: m, stream: opts.Stream, logger: opts.Logger}
}

// Execute implements core.Executor. The model's final text is decoded into a
// structured AgentOutput when it is a JSON object carrying known fields;
// otherwise the text is kept as the raw output.
func (e *ModelExecutor) Execute(ctx context.Context, id core.AgentID, enrichedQuery string, agentCtx map[string]any) (*core.AgentOutput, error) {
	instructions, err := instructionFor(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	req := model.Request{
		Instructions: instructions,
		Input:        renderInput(enrichedQuery, agentCtx),
		Stream:       e.stream,
	}

	text, err := e.generate(ctx, req)
	e.logger.Debug("agent %s model call against %s finished in %s (err=%v)",
		id, e.model.Info().Name, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", id, err)
	}

	return parseOutput(text), nil
}

// generate drains the model's channels and returns the final response text.
func (e *ModelExecutor) generate(ctx context.Context, req model.Request) (string, error) {
	respCh, errCh := e.model.Generate(ctx, req)

	var final string
	haveFinal := false
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case err, ok := <-errCh:
			if ok && err != nil {
				return "", err
			}
			errCh = nil
		case resp, ok := <-respCh:
			if !ok {
				// A pending terminal error outranks the missing-response fallback.
				if err := pendingErr(errCh); err != nil {
					return "", err
				}
				if !haveFinal {
					return "", fmt.Errorf("model produced no final response")
				}
				return final, nil
			}
			if !resp.Partial {
				final = resp.Text
				haveFinal = true
			}
		}
	}
}

func pendingErr(errCh <-chan error) error {
	if errCh == nil {
		return nil
	}
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// renderInput appends the investor profile, when present, to the enriched
// query. Dependency context is already rendered into the query by the
// orchestrator; the structured map is passed through opaquely.
func renderInput(enrichedQuery string, agentCtx map[string]any) string {
	profile, ok := agentCtx["user_profile"].(map[string]any)
	if !ok || len(profile) == 0 {
		return enrichedQuery
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return enrichedQuery
	}
	return enrichedQuery + "\n\nInvestor profile: " + string(data)
}

// parseOutput attempts to decode a structured JSON reply; free text becomes
// the raw output. A decoded object with no recognized field also degrades to
// raw text rather than an empty output.
func parseOutput(text string) *core.AgentOutput {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") {
		var out core.AgentOutput
		if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
			if out.PrimaryText() != "" || out.RiskFactors != "" || out.Confidence != nil {
				return &out
			}
		}
	}
	return &core.AgentOutput{Raw: trimmed}
}

// instructionFor returns the specialization instruction for an agent. The
// switch is exhaustive over the closed roster.
func instructionFor(id core.AgentID) (string, error) {
	switch id {
	case core.MarketAnalyst:
		return "You are a market analyst. Assess current market and sector conditions relevant to the question. Respond as a JSON object with optional fields analysis, recommendation, explanation, risk_factors (';' delimited) and confidence (0-1).", nil
	case core.RiskAssessment:
		return "You are a risk assessment specialist. Evaluate the investor's risk tolerance and capacity given the market context supplied. Respond as a JSON object with optional fields analysis, recommendation, explanation, risk_factors (';' delimited) and confidence (0-1).", nil
	case core.BehavioralAnalysis:
		return "You are a behavioral finance specialist. Identify investor biases and behavioral patterns relevant to the question. Respond as a JSON object with optional fields analysis, recommendation, explanation, risk_factors (';' delimited) and confidence (0-1).", nil
	case core.PortfolioOptimizer:
		return "You are a portfolio optimization specialist. Derive an asset allocation from the risk and behavioral context supplied. Respond as a JSON object with optional fields analysis, recommendation, explanation, risk_factors (';' delimited) and confidence (0-1).", nil
	case core.TaxAdvisor:
		return "You are a tax efficiency specialist. Review the supplied allocation for tax efficiency and harvesting opportunities. Respond as a JSON object with optional fields analysis, recommendation, explanation, risk_factors (';' delimited) and confidence (0-1).", nil
	case core.GoalPlanner:
		return "You are a financial goal planner. Project goals and savings plans from the risk profile supplied. Respond as a JSON object with optional fields analysis, recommendation, explanation, risk_factors (';' delimited) and confidence (0-1).", nil
	case core.EducationGuide:
		return "You are a financial educator. Explain the relevant concepts in plain language. Respond as a JSON object with optional fields analysis, recommendation, explanation and confidence (0-1).", nil
	}
	return "", fmt.Errorf("no instruction for unknown agent %q", id)
}
