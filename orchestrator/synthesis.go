package orchestrator

import (
	"github.com/hupe1980/advisormesh/core"
	"github.com/hupe1980/advisormesh/graph"
)

// fallbackResponse is returned when no agent produced a usable result.
const fallbackResponse = "I was unable to complete the analysis for your request. Please try again or rephrase your question."

// adviceDisclaimer is appended whenever a financial-advice agent was consulted.
const adviceDisclaimer = "This information is for educational purposes only and does not constitute personalized financial advice."

// maxListedItems caps the rendered recommendation and warning lists.
const maxListedItems = 3

// financial-advice categories that trigger the disclaimer.
var disclaimerAgents = map[core.AgentID]bool{
	core.PortfolioOptimizer: true,
	core.TaxAdvisor:         true,
	core.RiskAssessment:     true,
}

type synthesis struct {
	Response        string
	Recommendations []string
	Warnings        []string
	Confidence      float64
	Consulted       []core.AgentID
}

// synthesize folds the accumulated results into one aggregate answer.
//
// The primary answer comes from the most-dependent successful agent: stages
// are walked in reverse order and the first success supplies the text, in
// priority analysis > recommendation > explanation. Recommendations and
// warnings are accumulated across all successful results regardless of stage,
// deduplicated and capped; confidence is a simple running mean of whatever
// confidence values agents reported.
func synthesize(stages []graph.Stage, rc *core.RunContext) synthesis {
	var primary string
	var primaryRaw string
	for i := len(stages) - 1; i >= 0 && primary == ""; i-- {
		for _, id := range stages[i] {
			out, ok := rc.SuccessfulOutput(id)
			if !ok {
				continue
			}
			if primaryRaw == "" {
				primaryRaw = out.Summary()
			}
			if text := out.PrimaryText(); text != "" {
				primary = text
				break
			}
		}
	}

	var consulted []core.AgentID
	var recommendations, warnings []string
	var confSum float64
	confCount := 0

	for _, stage := range stages {
		for _, id := range stage {
			out, ok := rc.SuccessfulOutput(id)
			if !ok {
				continue
			}
			consulted = append(consulted, id)
			if out.Recommendation != "" {
				recommendations = appendUnique(recommendations, out.Recommendation)
			}
			for _, factor := range out.RiskFactorList() {
				warnings = appendUnique(warnings, factor)
			}
			if out.Confidence != nil {
				confSum += *out.Confidence
				confCount++
			}
		}
	}

	if len(consulted) == 0 {
		return synthesis{Response: fallbackResponse, Confidence: 0}
	}

	if primary == "" {
		primary = primaryRaw
	}
	if primary == "" {
		primary = fallbackResponse
	}

	if len(recommendations) > maxListedItems {
		recommendations = recommendations[:maxListedItems]
	}
	if len(warnings) > maxListedItems {
		warnings = warnings[:maxListedItems]
	}

	for _, id := range consulted {
		if disclaimerAgents[id] {
			primary += "\n\n" + adviceDisclaimer
			break
		}
	}

	confidence := 0.0
	if confCount > 0 {
		confidence = confSum / float64(confCount)
	}

	return synthesis{
		Response:        primary,
		Recommendations: recommendations,
		Warnings:        warnings,
		Confidence:      confidence,
		Consulted:       consulted,
	}
}

func appendUnique(items []string, item string) []string {
	for _, existing := range items {
		if existing == item {
			return items
		}
	}
	return append(items, item)
}
