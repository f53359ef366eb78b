package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/advisormesh/core"
)

// CircularDependencyError reports a graph-shape fault: stage computation found
// agents whose dependencies can never be satisfied, either because of a cycle
// or because a dependency is absent from the run.
type CircularDependencyError struct {
	// Unresolved names the agents that could not be scheduled.
	Unresolved []core.AgentID
}

// Error implements error.
func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular or unsatisfiable dependencies among agents: %s", joinAgents(e.Unresolved))
}

// MissingDependencyError reports a caller-input fault: the requested selection
// names unknown agents or omits declared dependencies.
type MissingDependencyError struct {
	// Unknown lists requested identifiers not declared in the graph.
	Unknown []core.AgentID
	// Missing maps each requested agent to its dependencies absent from the
	// selection.
	Missing map[core.AgentID][]core.AgentID
}

// Error implements error, naming the specific offending agents.
func (e *MissingDependencyError) Error() string {
	var parts []string
	if len(e.Unknown) > 0 {
		parts = append(parts, fmt.Sprintf("unknown agents: %s", joinAgents(e.Unknown)))
	}

	agents := make([]core.AgentID, 0, len(e.Missing))
	for id := range e.Missing {
		agents = append(agents, id)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i] < agents[j] })
	for _, id := range agents {
		parts = append(parts, fmt.Sprintf("agent %s is missing dependencies: %s", id, joinAgents(e.Missing[id])))
	}

	if len(parts) == 0 {
		return "invalid agent selection"
	}
	return "invalid agent selection: " + strings.Join(parts, "; ")
}

func joinAgents(ids []core.AgentID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}
