// Package advisormesh provides a high-level façade over the dependency graph,
// rate limiter, concurrency gate and orchestrator enabling rapid construction
// of dependency-aware advisory pipelines. Most applications interact with this
// package by:
//  1. Creating an AdvisorMesh via New() (optionally overriding the agent
//     roster, throughput limits or executor)
//  2. Calling ProcessQuery with a question and an agent selection
//  3. Optionally inspecting Plan output before committing to a run
//
// The façade delegates execution to orchestrator.Orchestrator while keeping
// setup ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a model-backed executor and
// a structured logger.
package advisormesh

import (
	"context"
	"time"

	"github.com/hupe1980/advisormesh/core"
	"github.com/hupe1980/advisormesh/graph"
	"github.com/hupe1980/advisormesh/logging"
	"github.com/hupe1980/advisormesh/orchestrator"
)

// Options configures the AdvisorMesh instance.
type Options struct {
	// Specs declares the agent roster and its dependency edges. Defaults to
	// the built-in advisory roster.
	Specs map[core.AgentID]core.AgentSpec

	// RequestsPerMinute sizes the shared token bucket bounding outbound model
	// calls across all concurrent runs. Values below 1 are clamped to 1.
	RequestsPerMinute float64

	// MaxConcurrent limits how many agent invocations may be in flight
	// simultaneously. Values below 1 are clamped to 1.
	MaxConcurrent int

	// TaskSpacing holds each freed concurrency slot back for the given
	// interval before it becomes reusable, smoothing bursty re-admission.
	// Zero disables spacing.
	TaskSpacing time.Duration

	// TaskTimeout bounds each agent invocation. Defaults to
	// orchestrator.DefaultTaskTimeout.
	TaskTimeout time.Duration

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// AdvisorMesh is the high-level façade aggregating the dependency graph and
// the orchestration machinery behind it.
type AdvisorMesh struct {
	graph        *graph.DependencyGraph
	orchestrator *orchestrator.Orchestrator
}

// New creates a new AdvisorMesh around the given executor with optional
// overrides. The executor is the only mandatory collaborator; everything else
// defaults to the built-in roster and conservative throughput limits.
func New(executor core.Executor, optFns ...func(o *Options)) (*AdvisorMesh, error) {
	opts := Options{
		Specs:             core.DefaultSpecs(),
		RequestsPerMinute: 60,
		MaxConcurrent:     3,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	g, err := graph.New(opts.Specs)
	if err != nil {
		return nil, err
	}

	limiter := core.NewRateLimiter(opts.RequestsPerMinute)
	gate := core.NewConcurrencyGate(opts.MaxConcurrent, opts.TaskSpacing)

	orch := orchestrator.New(g, limiter, gate, executor, func(o *orchestrator.Options) {
		o.TaskTimeout = opts.TaskTimeout
		o.Logger = opts.Logger
	})

	return &AdvisorMesh{
		graph:        g,
		orchestrator: orch,
	}, nil
}

// ProcessQuery runs the full pipeline for one query against the requested
// agent selection. Transitive dependencies are expanded automatically;
// userProfile is passed through opaquely into each agent's context.
func (m *AdvisorMesh) ProcessQuery(
	ctx context.Context,
	query string,
	requested []core.AgentID,
	userProfile map[string]any,
) *orchestrator.Result {
	return m.orchestrator.ProcessQuery(ctx, query, requested, userProfile)
}

// Plan returns the serializable execution plan for a selection without running
// anything, so callers can preview staging and parallelism.
func (m *AdvisorMesh) Plan(requested []core.AgentID) *graph.Plan {
	return m.graph.ExecutionPlan(m.graph.Expand(requested))
}

// SuggestAdditional lists agents that are not in the selection but depend on
// agents that are, surfacing analyses the caller might also want.
func (m *AdvisorMesh) SuggestAdditional(selected []core.AgentID) []core.AgentID {
	return m.graph.SuggestAdditional(selected)
}

// Graph exposes the underlying dependency graph.
func (m *AdvisorMesh) Graph() *graph.DependencyGraph {
	return m.graph
}
