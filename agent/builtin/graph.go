package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentmap-go/agentmap/agent"
	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/graphbundle"
	"github.com/agentmap-go/agentmap/state"
	"github.com/agentmap-go/agentmap/tracker"
)

// bundleResolver is the minimal surface GraphAgent needs from a graph
// bundle service: turning its declared workflow reference (Context
// `{workflow=...}` or, legacy, its Prompt) into a compiled bundle.
// Declared locally per this package's duck-typed-capability
// convention, matched against registry.GraphBundleCapableAgent.
type bundleResolver interface {
	ResolveBundle(workflowRef string) (*graphbundle.Bundle, error)
}

// subgraphInvoker is the minimal surface GraphAgent needs from a graph
// runner service: executing a compiled bundle as a nested run, linked
// to the parent's execution tracker (spec §4.4).
type subgraphInvoker interface {
	RunSubgraph(ctx context.Context, bundle *graphbundle.Bundle, initialState map[string]any, parentTracker *tracker.Tracker) (finalState map[string]any, success bool, summary tracker.Summary, err error)
}

// GraphAgent composes a pre-resolved sub-graph into the parent run
// (spec §4.4). Its sub-graph bundle is resolved eagerly at assembly
// time (ResolveSubgraphBundle, called by assembler.Assemble right
// after registry.Configure) rather than lazily from
// state["subgraph_bundles"] on first Process call — this keeps
// compilation eager and sub-graph-not-found failures surface before
// any node runs, per §4.4's explicit requirement, and lets the agent
// hold its own resolved bundle directly instead of threading it
// through state. Grounded on original_source's graph_agent.py; the
// nested-invoke idiom is the teacher's graph/subgraph.go
// Subgraph.Execute / state-conversion pattern.
type GraphAgent struct {
	*agent.BaseAgent

	bundleSvc  bundleResolver
	runnerSvc  subgraphInvoker
	funcResSvc agent.FuncResolutionService

	bundle      *graphbundle.Bundle
	lastSummary *tracker.Summary
	rawState    state.State
}

func NewGraphAgent(name, prompt string, ctx map[string]any, logger agentlog.Logger, adapter state.Adapter) *GraphAgent {
	return &GraphAgent{BaseAgent: agent.NewBaseAgent(name, prompt, ctx, logger, adapter)}
}

// ConfigureGraphBundleService implements registry.GraphBundleCapableAgent.
func (a *GraphAgent) ConfigureGraphBundleService(svc any) error {
	r, ok := svc.(bundleResolver)
	if !ok {
		return fmt.Errorf("graph agent %q: configured graph bundle service does not satisfy ResolveBundle(ref)", a.AgentName())
	}
	a.bundleSvc = r
	return nil
}

// ConfigureGraphRunnerService implements registry.GraphRunnerCapableAgent.
func (a *GraphAgent) ConfigureGraphRunnerService(svc any) error {
	r, ok := svc.(subgraphInvoker)
	if !ok {
		return fmt.Errorf("graph agent %q: configured graph runner service does not satisfy RunSubgraph(...)", a.AgentName())
	}
	a.runnerSvc = r
	return nil
}

// ConfigureFunctionResolutionService implements
// registry.FunctionResolutionCapableAgent. GraphAgent keeps its own
// handle (rather than relying on BaseAgent's, whose
// ConfigureFunctionResolutionService takes the narrower
// agent.FuncResolutionService parameter type and so does not itself
// satisfy the `any`-typed capability marker) purely for its own
// function-based input-mapping case below.
func (a *GraphAgent) ConfigureFunctionResolutionService(svc any) {
	if fr, ok := svc.(agent.FuncResolutionService); ok {
		a.funcResSvc = fr
	}
}

// ResolveSubgraphBundle is called once by the assembler immediately
// after service injection (spec §4.4). Any failure here is promoted
// to a hard assembly error — the one capability whose absence does
// not degrade gracefully.
func (a *GraphAgent) ResolveSubgraphBundle() error {
	if a.bundleSvc == nil {
		return fmt.Errorf("graph agent %q: no graph bundle service configured", a.AgentName())
	}
	ref := a.workflowRef()
	if ref == "" {
		return fmt.Errorf("graph agent %q: no workflow reference (set Context {workflow=...} or the Prompt column)", a.AgentName())
	}
	bundle, err := a.bundleSvc.ResolveBundle(ref)
	if err != nil {
		return fmt.Errorf("graph agent %q: %w", a.AgentName(), err)
	}
	a.bundle = bundle
	return nil
}

// PreProcess stashes the parent's full, unprojected state so Process
// can still pass it through to the child graph when no Input_Fields
// are declared — the lifecycle engine's step-1 input projection
// (agent/lifecycle.go) has already narrowed "inputs" down to the
// declared fields (empty, when none are declared) by the time Process
// runs, so that argument alone cannot serve the whole-state-bag
// passthrough case.
func (a *GraphAgent) PreProcess(s state.State, inputs map[string]any) (state.State, map[string]any) {
	a.rawState = s
	return s, inputs
}

func (a *GraphAgent) workflowRef() string {
	if v, ok := a.Context()["workflow"].(string); ok && v != "" {
		return v
	}
	return a.Prompt()
}

func (a *GraphAgent) Process(ctx context.Context, inputs map[string]any) (agent.Outcome, error) {
	a.LogInfo("executing subgraph for node")

	if a.bundle == nil {
		return agent.Completed(agent.StateUpdates{
			"error":                    fmt.Sprintf("no resolved subgraph bundle for node %q", a.AgentName()),
			state.KeyLastActionSuccess: false,
		}), nil
	}
	if a.runnerSvc == nil {
		return agent.Completed(agent.StateUpdates{
			"error":                    fmt.Sprintf("no graph runner service configured for node %q", a.AgentName()),
			state.KeyLastActionSuccess: false,
		}), nil
	}

	subgraphState := a.prepareSubgraphState(inputs)

	finalState, success, summary, err := a.runnerSvc.RunSubgraph(ctx, a.bundle, subgraphState, a.CurrentExecutionTracker())
	a.lastSummary = &summary
	if err != nil {
		a.LogError("error executing subgraph: %s", err)
		return agent.Completed(agent.StateUpdates{
			"error":                    fmt.Sprintf("failed to execute subgraph for node %q: %s", a.AgentName(), err),
			state.KeyLastActionSuccess: false,
		}), nil
	}
	if !success {
		a.LogError("subgraph %q failed", a.bundle.Name)
		return agent.Completed(agent.StateUpdates{
			"error":                    fmt.Sprintf("subgraph %q failed", a.bundle.Name),
			state.KeyLastActionSuccess: false,
		}), nil
	}

	a.LogInfo("subgraph execution completed successfully")
	return agent.Completed(a.processSubgraphResult(finalState)), nil
}

// PostProcess records the child run's summary against the parent
// tracker and applies output_field mapping / graph_success on top of
// whatever Process returned.
func (a *GraphAgent) PostProcess(s state.State, _ map[string]any, outcome agent.Outcome) (state.State, agent.Outcome) {
	if a.lastSummary != nil {
		if parent := a.CurrentExecutionTracker(); parent != nil {
			parent.RecordSubgraphExecution(a.AgentName(), *a.lastSummary)
		}
		a.lastSummary = nil
	}

	result, ok := outcome.Value().(agent.StateUpdates)
	if !ok {
		m, isMap := outcome.Value().(map[string]any)
		if !isMap {
			return s, outcome
		}
		result = agent.StateUpdates(m)
	}
	if _, isErr := result["error"]; isErr {
		return s, agent.Completed(result)
	}

	graphSuccess := true
	if v, ok := result[state.KeyGraphSuccess].(bool); ok {
		graphSuccess = v
	} else if v, ok := result[state.KeyLastActionSuccess].(bool); ok {
		graphSuccess = v
	}

	updates := agent.StateUpdates{state.KeyLastActionSuccess: graphSuccess}
	fields := a.OutputFields()
	if len(fields) == 1 {
		updates[fields[0]] = map[string]any(result)
	}
	return s, agent.Completed(updates)
}

// prepareSubgraphState implements spec §4.4's three input-mapping
// cases: a single func: input field, field-to-field target=source
// mappings, or direct passthrough of the named (or all) fields.
func (a *GraphAgent) prepareSubgraphState(inputs map[string]any) map[string]any {
	fields := a.InputFields()

	if len(fields) == 1 && fields[0].IsFunc {
		return a.applyFunctionMapping(fields[0].FuncName, inputs)
	}

	hasMapping := false
	for _, f := range fields {
		if f.Target != f.Source {
			hasMapping = true
			break
		}
	}
	if hasMapping {
		out := make(map[string]any, len(fields))
		for _, f := range fields {
			if v, ok := inputs[f.Source]; ok {
				out[f.Target] = v
			}
		}
		return out
	}

	if len(fields) == 0 {
		source := inputs
		if a.rawState != nil {
			source = a.rawState
		}
		out := make(map[string]any, len(source))
		for k, v := range source {
			if k != state.KeySubgraphBundles {
				out[k] = v
			}
		}
		return out
	}

	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := inputs[f.Source]; ok {
			out[f.Source] = v
		}
	}
	return out
}

func (a *GraphAgent) applyFunctionMapping(funcName string, inputs map[string]any) map[string]any {
	passthrough := func() map[string]any {
		out := make(map[string]any, len(inputs))
		for k, v := range inputs {
			if k != state.KeySubgraphBundles {
				out[k] = v
			}
		}
		return out
	}

	if a.funcResSvc == nil {
		a.LogWarn("function mapping %q requested but no function resolution service configured", funcName)
		return passthrough()
	}
	fn, err := a.funcResSvc.ImportFunction(funcName)
	if err != nil {
		a.LogError("error in mapping function: %s", err)
		return passthrough()
	}
	mapped, err := fn(inputs)
	if err != nil {
		a.LogError("error in mapping function: %s", err)
		return passthrough()
	}
	a.LogDebug("applied function mapping: %s", funcName)
	return mapped
}

// processSubgraphResult implements spec §4.4's output-field handling:
// a target=source mapping, a specific field, or the whole result.
func (a *GraphAgent) processSubgraphResult(result map[string]any) any {
	raw, _ := a.Context()["output_field"].(string)
	if target, source, ok := strings.Cut(raw, "="); ok && source != "" {
		if v, present := result[strings.TrimSpace(source)]; present {
			return map[string]any{strings.TrimSpace(target): v}
		}
	}

	fields := a.OutputFields()
	if len(fields) == 1 {
		if v, ok := result[fields[0]]; ok {
			return v
		}
	}
	return result
}
