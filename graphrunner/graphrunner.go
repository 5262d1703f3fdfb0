// Package graphrunner implements the outer graph driver (spec §4.5/§5):
// it drives a compiled graph node-by-node, persists a checkpoint and
// returns an "awaiting resume" result when a node suspends, and
// resumes a previously suspended thread by reloading its checkpoint
// and re-entering the loop at the saved position.
//
// Grounded on the teacher's graph.StateRunnable.InvokeWithConfig
// driver loop (graph/state_graph.go): the single-active-node walk,
// the errors.As(*NodeInterrupt) branch that turns a node failure into
// a pause instead of a run failure, and ctx.Done() cancellation
// checked between node executions. AgentMap graphs are always
// single-entry/single-active-node (spec §5), so this driver walks one
// node at a time rather than reusing the teacher's parallel-frontier
// fan-out.
package graphrunner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/agerr"
	"github.com/agentmap-go/agentmap/assembler"
	"github.com/agentmap-go/agentmap/checkpoint"
	"github.com/agentmap-go/agentmap/graphbundle"
	"github.com/agentmap-go/agentmap/state"
	"github.com/agentmap-go/agentmap/tracker"
)

// Status reports what became of a Run/Resume call.
type Status int

const (
	// StatusCompleted means the graph ran to a terminal node.
	StatusCompleted Status = iota
	// StatusSuspended means a SuspendAgent paused the run; a
	// checkpoint was persisted and Resume can continue it.
	StatusSuspended
)

// Result is the outer driver's report for one Run/Resume call.
type Result struct {
	Status   Status
	State    state.State
	Success  bool
	Summary  tracker.Summary
	ThreadID string
}

// trackerSetter is the minimal surface the driver needs to inject a
// fresh tracker into an agent instance before invoking it; every
// concrete agent gets this for free by embedding *agent.BaseAgent.
type trackerSetter interface {
	SetExecutionTracker(t *tracker.Tracker)
}

// Service compiles graph bundles on demand and drives them, wiring in
// the checkpoint backend that makes suspend/resume durable. It
// implements the subgraphInvoker surface agent/builtin.GraphAgent
// depends on; the composition root registers it under the
// "graph_runner" capability and a separate *BundleResolver (see
// bundle.go) under "graph_bundle".
type Service struct {
	factories map[string]assembler.AgentFactory
	deps      assembler.Deps
	store     checkpoint.Store
	logger    agentlog.Logger
}

// New creates a graph runner service. factories/deps are the same
// arguments the composition root passes to assembler.Assemble;
// store persists suspend checkpoints (checkpoint/memory for tests and
// single-process deployments, or one of the durable backends).
func New(factories map[string]assembler.AgentFactory, deps assembler.Deps, store checkpoint.Store) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = agentlog.NoOpLogger{}
	}
	return &Service{factories: factories, deps: deps, store: store, logger: logger}
}

// Compile assembles bundle into a runnable graph using this service's
// factories and dependencies.
func (s *Service) Compile(bundle *graphbundle.Bundle) (*assembler.CompiledGraph, error) {
	return assembler.Assemble(bundle, s.factories, s.deps)
}

// Run compiles and executes bundle from its entry point with
// initialState.
func (s *Service) Run(ctx context.Context, bundle *graphbundle.Bundle, initialState map[string]any) (Result, error) {
	cg, err := s.Compile(bundle)
	if err != nil {
		return Result{}, err
	}
	trk := tracker.New(tracker.AllSuccess)
	return s.drive(ctx, cg, cg.EntryPoint, toState(initialState), trk)
}

// Resume reloads the checkpoint for threadID and re-enters the graph
// at its saved position, attaching resumeValue to the context so the
// suspended node's Process call observes it via agent.ResumeValue.
func (s *Service) Resume(ctx context.Context, bundle *graphbundle.Bundle, threadID string, resumeValue any) (Result, error) {
	if s.store == nil {
		return Result{}, fmt.Errorf("graphrunner: no checkpoint store configured, cannot resume")
	}
	cp, err := s.store.Load(ctx, threadID)
	if err != nil {
		return Result{}, fmt.Errorf("graphrunner: loading checkpoint for thread %q: %w", threadID, err)
	}
	if cp == nil {
		return Result{}, fmt.Errorf("graphrunner: no checkpoint found for thread %q", threadID)
	}

	cg, err := s.Compile(bundle)
	if err != nil {
		return Result{}, err
	}

	trk := tracker.New(tracker.AllSuccess)
	trk.SetThreadID(threadID)
	ctx = agent.WithResumeValue(ctx, resumeValue)

	result, err := s.drive(ctx, cg, cp.Position, toState(cp.State), trk)
	if err != nil {
		return result, err
	}
	if result.Status == StatusCompleted {
		if clearErr := s.store.Clear(ctx, threadID); clearErr != nil {
			s.logger.Warn("graphrunner: failed to clear checkpoint for thread %q: %s", threadID, clearErr)
		}
	}
	return result, nil
}

// RunSubgraph implements the subgraphInvoker surface
// agent/builtin.GraphAgent depends on (spec §4.4): it runs bundle as
// a nested graph and reports the child's summary for the parent
// tracker to record. parentTracker's thread ID is propagated to the
// child tracker so a nested suspend (not supported; see below) would
// at least correlate under the same thread.
func (s *Service) RunSubgraph(ctx context.Context, bundle *graphbundle.Bundle, initialState map[string]any, parentTracker *tracker.Tracker) (map[string]any, bool, tracker.Summary, error) {
	cg, err := s.Compile(bundle)
	if err != nil {
		return nil, false, tracker.Summary{}, err
	}

	trk := tracker.New(tracker.AllSuccess)
	if parentTracker != nil {
		trk.SetThreadID(parentTracker.ThreadID())
	}

	result, err := s.drive(ctx, cg, cg.EntryPoint, toState(initialState), trk)
	if err != nil {
		return nil, false, trk.Summary(), err
	}
	if result.Status == StatusSuspended {
		return nil, false, result.Summary, fmt.Errorf("graphrunner: subgraph %q suspended; nested suspend/resume is not supported", bundle.Name)
	}
	return map[string]any(result.State), result.Success, result.Summary, nil
}

// drive runs the single-active-node walk starting at current,
// persisting a checkpoint and returning StatusSuspended if the
// in-flight node raises an *agerr.InterruptSignal.
func (s *Service) drive(ctx context.Context, cg *assembler.CompiledGraph, current string, st state.State, trk *tracker.Tracker) (Result, error) {
	for current != "" {
		select {
		case <-ctx.Done():
			trk.ForceFailure()
			return Result{Status: StatusCompleted, State: st, Success: false, Summary: trk.Summary(), ThreadID: trk.ThreadID()},
				&agerr.CancellationError{Node: current}
		default:
		}

		runner, ok := cg.Agents[current]
		if !ok {
			return Result{}, fmt.Errorf("graphrunner: graph %q has no node %q", cg.Name, current)
		}
		if setter, ok := runner.(trackerSetter); ok {
			setter.SetExecutionTracker(trk)
		}

		partial, err := agent.Run(ctx, runner, st)
		if err != nil {
			var interrupt *agerr.InterruptSignal
			if errors.As(err, &interrupt) {
				if saveErr := s.saveCheckpoint(ctx, interrupt, st); saveErr != nil {
					return Result{}, fmt.Errorf("graphrunner: node %q suspended but checkpoint save failed: %w", interrupt.NodeName, saveErr)
				}
				trk.SetThreadID(interrupt.ThreadID)
				return Result{
					Status:   StatusSuspended,
					State:    st,
					Summary:  trk.Summary(),
					ThreadID: interrupt.ThreadID,
				}, nil
			}
			return Result{}, err
		}

		st = state.Merge(st, partial)

		router, ok := cg.Routers[current]
		if !ok {
			break
		}
		next, cont := router(st)
		if !cont {
			break
		}
		current = next
	}

	trk.UpdateGraphSuccess()
	return Result{
		Status:   StatusCompleted,
		State:    st,
		Success:  trk.GraphSuccess(),
		Summary:  trk.Summary(),
		ThreadID: trk.ThreadID(),
	}, nil
}

// saveCheckpoint persists the suspension point. The version number is
// the count of already-saved versions for this thread plus one, so
// every suspend of the same thread (e.g. a graph that suspends more
// than once across its run) keeps its own history entry.
func (s *Service) saveCheckpoint(ctx context.Context, interrupt *agerr.InterruptSignal, st state.State) error {
	if s.store == nil {
		return fmt.Errorf("no checkpoint store configured")
	}
	existing, err := s.store.List(ctx, interrupt.ThreadID)
	if err != nil {
		return err
	}
	cp := &checkpoint.Checkpoint{
		ThreadID:  interrupt.ThreadID,
		Position:  interrupt.NodeName,
		State:     st,
		Metadata:  interrupt.Context,
		Timestamp: time.Now(),
		Version:   len(existing) + 1,
	}
	return s.store.Save(ctx, cp)
}

func toState(m map[string]any) state.State {
	if m == nil {
		return state.State{}
	}
	return state.State(m)
}
