package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/advisormesh/core"
	"github.com/hupe1980/advisormesh/graph"
	"github.com/hupe1980/advisormesh/logging"
)

// DefaultTaskTimeout bounds a single agent invocation. Generous enough for
// one model call; a stalled executor is converted into a failed result
// instead of wedging its stage.
const DefaultTaskTimeout = 45 * time.Second

// runState tracks the lifecycle of one ProcessQuery call.
type runState int

const (
	stateValidating runState = iota
	statePlanning
	stateExecuting
	stateSynthesizing
	stateDone
	stateFailed
)

// String returns the state's display name.
func (s runState) String() string {
	switch s {
	case stateValidating:
		return "validating"
	case statePlanning:
		return "planning"
	case stateExecuting:
		return "executing"
	case stateSynthesizing:
		return "synthesizing"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the aggregate payload of one orchestration run. A failed
// validation or planning phase yields Success=false with a descriptive Error;
// a run where only some agents failed still yields Success=true with whatever
// could be synthesized.
type Result struct {
	Success         bool           `json:"success"`
	Response        string         `json:"response"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
	Confidence      float64        `json:"confidence"`
	AgentsConsulted []core.AgentID `json:"agents_consulted,omitempty"`
	Error           string         `json:"error,omitempty"`
	Metadata        Metadata       `json:"metadata"`
}

// Metadata carries run observability data.
type Metadata struct {
	RunID          string      `json:"run_id"`
	TotalAgents    int         `json:"total_agents"`
	TotalStages    int         `json:"total_stages"`
	ProcessingTime float64     `json:"processing_time_seconds"`
	ExecutionPlan  *graph.Plan `json:"execution_plan,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Options configures an Orchestrator.
type Options struct {
	// TaskTimeout bounds each agent invocation. Defaults to DefaultTaskTimeout.
	TaskTimeout time.Duration
	// Logger receives structured run diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Orchestrator sequences and executes agent selections against their declared
// dependency graph, sharing one rate limiter and one concurrency gate across
// all concurrent runs. Construct with New; the zero value is not usable.
type Orchestrator struct {
	graph       *graph.DependencyGraph
	limiter     *core.RateLimiter
	gate        *core.ConcurrencyGate
	executor    core.Executor
	taskTimeout time.Duration
	logger      logging.Logger
}

// New wires an Orchestrator from its collaborators. The graph, limiter, gate
// and executor are injected rather than global so tests can substitute small
// graphs and tight limits.
func New(
	g *graph.DependencyGraph,
	limiter *core.RateLimiter,
	gate *core.ConcurrencyGate,
	executor core.Executor,
	optFns ...func(o *Options),
) *Orchestrator {
	opts := Options{
		TaskTimeout: DefaultTaskTimeout,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = DefaultTaskTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Orchestrator{
		graph:       g,
		limiter:     limiter,
		gate:        gate,
		executor:    executor,
		taskTimeout: opts.TaskTimeout,
		logger:      opts.Logger,
	}
}

// Graph exposes the dependency graph for plan/suggestion surfaces.
func (o *Orchestrator) Graph() *graph.DependencyGraph { return o.graph }

// ProcessQuery runs the full pipeline for one query. The requested selection
// need not include transitive dependencies; they are expanded automatically.
// userProfile is passed through opaquely into each agent's context.
func (o *Orchestrator) ProcessQuery(
	ctx context.Context,
	query string,
	requested []core.AgentID,
	userProfile map[string]any,
) *Result {
	start := time.Now()
	runID := uuid.NewString()
	log := o.logger

	state := stateValidating
	log.Debug("run %s entered state %s", runID, state)

	if len(requested) == 0 {
		return o.failResult(runID, start, nil, "no agents requested")
	}

	expanded := o.graph.Expand(requested)
	if err := o.graph.ValidateSelection(expanded); err != nil {
		log.Warn("run %s selection validation failed: %v", runID, err)
		return o.failResult(runID, start, nil, err.Error())
	}

	state = statePlanning
	log.Debug("run %s entered state %s", runID, state)

	plan := o.graph.ExecutionPlan(expanded)
	if !plan.Valid {
		log.Warn("run %s planning failed: %s", runID, plan.Error)
		return o.failResult(runID, start, plan, plan.Error)
	}

	stages, err := o.graph.ExecutionStages(expanded)
	if err != nil {
		log.Warn("run %s stage computation failed: %v", runID, err)
		return o.failResult(runID, start, plan, err.Error())
	}

	state = stateExecuting
	log.Info("run %s %s %d agents across %d stages", runID, state, len(expanded), len(stages))

	rc := core.NewRunContext(runID, query, userProfile)
	for i, stage := range stages {
		if err := o.runStage(ctx, i, stage, rc); err != nil {
			// The stage's own execution path failed (cancellation or an
			// unsatisfiable token request), as opposed to individual agents
			// failing, which is tolerated.
			log.Error("run %s stage %d aborted: %v", runID, i, err)
			return o.failResult(runID, start, plan, fmt.Sprintf("stage %d aborted: %s", i, err))
		}
	}

	state = stateSynthesizing
	log.Debug("run %s entered state %s", runID, state)

	syn := synthesize(stages, rc)

	state = stateDone
	log.Info("run %s %s: %d agents consulted in %s", runID, state, len(syn.Consulted), time.Since(start))

	return &Result{
		Success:         true,
		Response:        syn.Response,
		Recommendations: syn.Recommendations,
		Warnings:        syn.Warnings,
		Confidence:      syn.Confidence,
		AgentsConsulted: syn.Consulted,
		Metadata: Metadata{
			RunID:          runID,
			TotalAgents:    len(expanded),
			TotalStages:    len(stages),
			ProcessingTime: time.Since(start).Seconds(),
			ExecutionPlan:  plan,
			Timestamp:      time.Now(),
		},
	}
}

// runStage executes one stage. The stage is split into sub-waves no larger
// than the limiter's capacity, so a single oversized stage can never request
// more tokens than the bucket can ever hold. Results are merged into the
// RunContext only after every task of the stage has settled.
func (o *Orchestrator) runStage(ctx context.Context, idx int, stage graph.Stage, rc *core.RunContext) error {
	start := time.Now()
	settled := make([]*core.AgentResult, 0, len(stage))

	for _, wave := range subWaves(stage, int(o.limiter.Capacity())) {
		if err := o.limiter.Acquire(ctx, float64(len(wave))); err != nil {
			return err
		}

		results := make(chan *core.AgentResult, len(wave))
		var wg sync.WaitGroup
		for _, id := range wave {
			wg.Add(1)
			go func(id core.AgentID) {
				defer wg.Done()
				results <- o.runAgent(ctx, id, rc)
			}(id)
		}
		wg.Wait()
		close(results)

		for r := range results {
			settled = append(settled, r)
		}
	}

	failures := 0
	for _, r := range settled {
		if !r.Success {
			failures++
		}
		rc.Record(r)
	}
	o.logger.Info("run %s stage %d settled: %d agents, %d failures in %s",
		rc.RunID, idx, len(stage), failures, time.Since(start))
	return nil
}

// runAgent executes one agent under the concurrency gate, converting every
// failure mode (executor error, timeout, cancelled admission) into a failed
// AgentResult so siblings and later stages continue undisturbed.
func (o *Orchestrator) runAgent(ctx context.Context, id core.AgentID, rc *core.RunContext) *core.AgentResult {
	agentCtx, enriched := o.buildAgentInput(id, rc)

	type execResult struct {
		output *core.AgentOutput
		err    error
	}

	var output *core.AgentOutput
	var execErr error

	gateErr := o.gate.RunGated(ctx, func() error {
		execCtx, cancel := context.WithTimeout(ctx, o.taskTimeout)
		defer cancel()

		// Buffered so a straggler executor can deliver its result and exit
		// even after the timeout branch has abandoned it; the goroutine never
		// shares variables with this one.
		done := make(chan execResult, 1)
		go func() {
			out, err := o.executor.Execute(execCtx, id, enriched, agentCtx)
			done <- execResult{output: out, err: err}
		}()

		// The select converts even a context-ignoring executor into a failed
		// result instead of stalling the stage.
		select {
		case r := <-done:
			output, execErr = r.output, r.err
		case <-execCtx.Done():
			execErr = fmt.Errorf("agent %s timed out after %s", id, o.taskTimeout)
		}
		return nil
	})
	if gateErr != nil {
		execErr = gateErr
	}
	if execErr == nil && output == nil {
		execErr = fmt.Errorf("agent %s returned no output", id)
	}

	if execErr != nil {
		o.logger.Warn("run %s agent %s failed: %v", rc.RunID, id, execErr)
		return core.NewFailedResult(id, execErr)
	}
	o.logger.Debug("run %s agent %s succeeded", rc.RunID, id)
	return core.NewAgentResult(id, output)
}

// subWaves splits a stage into chunks of at most size agents.
func subWaves(stage graph.Stage, size int) []graph.Stage {
	if size < 1 {
		size = 1
	}
	if len(stage) <= size {
		return []graph.Stage{stage}
	}
	var waves []graph.Stage
	for start := 0; start < len(stage); start += size {
		end := start + size
		if end > len(stage) {
			end = len(stage)
		}
		waves = append(waves, stage[start:end])
	}
	return waves
}

func (o *Orchestrator) failResult(runID string, start time.Time, plan *graph.Plan, msg string) *Result {
	return &Result{
		Success: false,
		Error:   msg,
		Metadata: Metadata{
			RunID:          runID,
			ProcessingTime: time.Since(start).Seconds(),
			ExecutionPlan:  plan,
			Timestamp:      time.Now(),
		},
	}
}
