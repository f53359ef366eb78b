package orchestrator

import (
	"fmt"
	"strings"

	"github.com/hupe1980/advisormesh/core"
)

// buildAgentInput assembles the per-agent context and the enriched query for
// one task. For every dependency with a successful result in the accumulated
// RunContext it collects a compact summary tagged with the dependency's
// declared provides categories; failed or absent dependencies simply
// contribute nothing.
func (o *Orchestrator) buildAgentInput(id core.AgentID, rc *core.RunContext) (map[string]any, string) {
	spec, _ := o.graph.Spec(id)

	type depEntry struct {
		agent    core.AgentID
		summary  string
		provides []string
	}
	var entries []depEntry
	for _, dep := range spec.DependsOn {
		out, ok := rc.SuccessfulOutput(dep)
		if !ok {
			continue
		}
		depSpec, _ := o.graph.Spec(dep)
		entries = append(entries, depEntry{agent: dep, summary: out.Summary(), provides: depSpec.Provides})
	}

	agentCtx := make(map[string]any, len(entries)+1)
	for _, e := range entries {
		agentCtx[string(e.agent)] = map[string]any{
			"summary":  e.summary,
			"provides": e.provides,
		}
	}
	if rc.UserProfile != nil {
		agentCtx["user_profile"] = rc.UserProfile
	}

	if len(entries) == 0 {
		return agentCtx, rc.Query
	}

	var b strings.Builder
	b.WriteString(rc.Query)
	b.WriteString("\n\nContext from completed analyses:\n")
	for _, e := range entries {
		if len(e.provides) > 0 {
			fmt.Fprintf(&b, "%s (%s): %s\n", e.agent, strings.Join(e.provides, ", "), e.summary)
		} else {
			fmt.Fprintf(&b, "%s: %s\n", e.agent, e.summary)
		}
	}
	b.WriteString("\nUse the context above together with your own specialization to answer the question.")
	return agentCtx, b.String()
}
