package graph

import (
	"fmt"
	"sort"

	"github.com/hupe1980/advisormesh/core"
)

// Stage is one wave of agents whose dependencies are all satisfied by earlier
// waves; its members may execute concurrently. Members are kept sorted so
// identical inputs always yield identical partitions.
type Stage []core.AgentID

// Contains reports whether the stage includes id.
func (s Stage) Contains(id core.AgentID) bool {
	for _, member := range s {
		if member == id {
			return true
		}
	}
	return false
}

// DependencyGraph holds the immutable per-agent dependency and provides
// declarations. It is built once at startup, validated for acyclicity, and
// safe for concurrent use (all operations are pure reads).
type DependencyGraph struct {
	specs map[core.AgentID]core.AgentSpec
}

// New constructs a DependencyGraph from the given specs. It fails when a
// declared dependency references an undeclared agent or when the dependency
// relation over all declared agents contains a cycle; the relation is
// validated, never assumed.
func New(specs map[core.AgentID]core.AgentSpec) (*DependencyGraph, error) {
	copied := make(map[core.AgentID]core.AgentSpec, len(specs))
	for id, spec := range specs {
		for _, dep := range spec.DependsOn {
			if _, declared := specs[dep]; !declared {
				return nil, fmt.Errorf("agent %s depends on undeclared agent %s", id, dep)
			}
		}
		// The slices are copied too, so a caller mutating its spec values
		// after construction cannot corrupt the validated graph.
		copied[id] = core.AgentSpec{
			DependsOn: append([]core.AgentID(nil), spec.DependsOn...),
			Provides:  append([]string(nil), spec.Provides...),
		}
	}

	g := &DependencyGraph{specs: copied}

	if _, err := g.ExecutionStages(g.Agents()); err != nil {
		return nil, fmt.Errorf("dependency declaration is not acyclic: %w", err)
	}
	return g, nil
}

// Agents returns all declared agent identifiers, sorted.
func (g *DependencyGraph) Agents() []core.AgentID {
	ids := make([]core.AgentID, 0, len(g.specs))
	for id := range g.specs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Spec returns the declaration for one agent.
func (g *DependencyGraph) Spec(id core.AgentID) (core.AgentSpec, bool) {
	spec, ok := g.specs[id]
	return spec, ok
}

// ExecutionStages partitions the requested set into ordered waves. Each wave
// is the maximal set of remaining agents whose dependencies are all completed,
// preserving every parallelism opportunity rather than emitting one agent per
// wave.
//
// The loop is explicitly bounded at len(requested)+1 iterations so a malformed
// graph fails fast instead of spinning; an empty ready set with agents still
// remaining is a *CircularDependencyError naming the unresolved agents.
func (g *DependencyGraph) ExecutionStages(requested []core.AgentID) ([]Stage, error) {
	remaining := make(map[core.AgentID]bool, len(requested))
	for _, id := range requested {
		remaining[id] = true
	}
	completed := make(map[core.AgentID]bool, len(requested))

	var stages []Stage
	for i := 0; i <= len(requested); i++ {
		if len(remaining) == 0 {
			return stages, nil
		}

		var ready Stage
		for id := range remaining {
			if g.depsSatisfied(id, completed) {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 {
			return nil, &CircularDependencyError{Unresolved: sortedKeys(remaining)}
		}

		sort.Slice(ready, func(a, b int) bool { return ready[a] < ready[b] })
		for _, id := range ready {
			delete(remaining, id)
			completed[id] = true
		}
		stages = append(stages, ready)
	}

	if len(remaining) > 0 {
		// Unreachable for a well-formed loop; kept as an explicit guard.
		return nil, &CircularDependencyError{Unresolved: sortedKeys(remaining)}
	}
	return stages, nil
}

// ValidateSelection checks that every requested agent is declared and that its
// full dependency set is included in the selection. It returns a
// *MissingDependencyError naming the exact offenders, or nil. This is a
// pre-condition check on caller input, distinct from cycle detection.
func (g *DependencyGraph) ValidateSelection(requested []core.AgentID) error {
	selected := make(map[core.AgentID]bool, len(requested))
	for _, id := range requested {
		selected[id] = true
	}

	var unknown []core.AgentID
	missing := map[core.AgentID][]core.AgentID{}

	for _, id := range requested {
		spec, declared := g.specs[id]
		if !declared {
			unknown = append(unknown, id)
			continue
		}
		for _, dep := range spec.DependsOn {
			if !selected[dep] {
				missing[id] = append(missing[id], dep)
			}
		}
	}

	if len(unknown) == 0 && len(missing) == 0 {
		return nil
	}

	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	for id := range missing {
		deps := missing[id]
		sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
		missing[id] = deps
	}
	return &MissingDependencyError{Unknown: unknown, Missing: missing}
}

// Expand returns the fixed-point dependency closure of the requested set:
// dependencies of dependencies are unioned in until no new agent is added.
// Unknown identifiers are kept so ValidateSelection can name them. The result
// is sorted, and the operation is idempotent.
func (g *DependencyGraph) Expand(requested []core.AgentID) []core.AgentID {
	closure := make(map[core.AgentID]bool, len(requested))
	for _, id := range requested {
		closure[id] = true
	}

	for added := true; added; {
		added = false
		for id := range closure {
			for _, dep := range g.specs[id].DependsOn {
				if !closure[dep] {
					closure[dep] = true
					added = true
				}
			}
		}
	}

	return sortedKeys(closure)
}

// Dependents returns the agents that declare a direct dependency on id.
// Advisory reverse-edge lookup; pure and side-effect free.
func (g *DependencyGraph) Dependents(id core.AgentID) []core.AgentID {
	var dependents []core.AgentID
	for candidate, spec := range g.specs {
		for _, dep := range spec.DependsOn {
			if dep == id {
				dependents = append(dependents, candidate)
				break
			}
		}
	}
	sort.Slice(dependents, func(i, j int) bool { return dependents[i] < dependents[j] })
	return dependents
}

// SuggestAdditional returns agents not in the selection whose entire
// dependency set is already satisfied by it. Used for advisory suggestions
// only; never required for correctness.
func (g *DependencyGraph) SuggestAdditional(selected []core.AgentID) []core.AgentID {
	chosen := make(map[core.AgentID]bool, len(selected))
	for _, id := range selected {
		chosen[id] = true
	}

	var suggestions []core.AgentID
	for id := range g.specs {
		if chosen[id] {
			continue
		}
		if g.depsSatisfied(id, chosen) {
			suggestions = append(suggestions, id)
		}
	}
	sort.Slice(suggestions, func(i, j int) bool { return suggestions[i] < suggestions[j] })
	return suggestions
}

func (g *DependencyGraph) depsSatisfied(id core.AgentID, done map[core.AgentID]bool) bool {
	for _, dep := range g.specs[id].DependsOn {
		if !done[dep] {
			return false
		}
	}
	return true
}

func sortedKeys(set map[core.AgentID]bool) []core.AgentID {
	ids := make([]core.AgentID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
