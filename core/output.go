package core

import (
	"strings"
	"time"
)

// summaryMaxLen bounds the raw-text fallback used when an output exposes no
// structured field suitable for a dependency summary.
const summaryMaxLen = 200

// AgentOutput is the structured-or-free-text result produced by an agent.
// All fields are optional; synthesis and context building read whichever
// fields happen to be populated and treat absence as normal, not as an error.
type AgentOutput struct {
	// Analysis is free-text analysis, the preferred primary answer field.
	Analysis string `json:"analysis,omitempty"`
	// Recommendation is an actionable recommendation string.
	Recommendation string `json:"recommendation,omitempty"`
	// Explanation is an educational explanation, lowest primary priority.
	Explanation string `json:"explanation,omitempty"`
	// RiskFactors carries warning/risk strings delimited by ";".
	RiskFactors string `json:"risk_factors,omitempty"`
	// Confidence is the agent's self-reported confidence in [0,1], if any.
	Confidence *float64 `json:"confidence,omitempty"`
	// Raw holds the unparsed response text when no structured fields apply.
	Raw string `json:"raw,omitempty"`
}

// PrimaryText returns the first populated field in priority order
// analysis > recommendation > explanation, or "" when none is set.
func (o *AgentOutput) PrimaryText() string {
	switch {
	case o.Analysis != "":
		return o.Analysis
	case o.Recommendation != "":
		return o.Recommendation
	case o.Explanation != "":
		return o.Explanation
	}
	return ""
}

// Summary returns a compact rendering of the output for use in a dependent's
// context: the primary text when present, otherwise the raw text truncated
// to 200 characters.
func (o *AgentOutput) Summary() string {
	if s := o.PrimaryText(); s != "" {
		return s
	}
	raw := strings.TrimSpace(o.Raw)
	if len(raw) > summaryMaxLen {
		return raw[:summaryMaxLen]
	}
	return raw
}

// RiskFactorList splits RiskFactors on ";" and trims the parts, dropping
// empties.
func (o *AgentOutput) RiskFactorList() []string {
	if o.RiskFactors == "" {
		return nil
	}
	var factors []string
	for _, f := range strings.Split(o.RiskFactors, ";") {
		if f = strings.TrimSpace(f); f != "" {
			factors = append(factors, f)
		}
	}
	return factors
}

// AgentResult records the outcome of one agent invocation within a run. It is
// owned by the orchestrator for the lifetime of a single ProcessQuery call and
// never persisted.
type AgentResult struct {
	Agent     AgentID      `json:"agent"`
	Success   bool         `json:"success"`
	Output    *AgentOutput `json:"output,omitempty"`
	Err       string       `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewAgentResult builds a successful result stamped with the current time.
func NewAgentResult(id AgentID, output *AgentOutput) *AgentResult {
	return &AgentResult{Agent: id, Success: true, Output: output, Timestamp: time.Now()}
}

// NewFailedResult builds a failed result carrying the error text.
func NewFailedResult(id AgentID, err error) *AgentResult {
	return &AgentResult{Agent: id, Success: false, Err: err.Error(), Timestamp: time.Now()}
}
