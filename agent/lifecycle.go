package agent

import (
	"context"
	"fmt"
	"reflect"

	"github.com/agentmap-go/agentmap/agerr"
	"github.com/agentmap-go/agentmap/state"
	"github.com/agentmap-go/agentmap/tracker"
)

// Runner is the interface the lifecycle engine drives. Every concrete
// agent satisfies it by embedding *BaseAgent (which provides Identity
// and the infrastructure accessors) and implementing Process.
type Runner interface {
	Identity
	Processor
	CurrentExecutionTracker() *tracker.Tracker
	Adapter() state.Adapter
	FunctionResolutionServiceOrNil() FuncResolutionService
	LogDebug(format string, v ...any)
	LogWarn(format string, v ...any)
	LogError(format string, v ...any)
}

// funcResolverAdapter bridges FuncResolutionService to
// state.FuncResolver so state.Adapter.GetInputs can call it without
// the state package importing agent (which would cycle).
type funcResolverAdapter struct{ svc FuncResolutionService }

func (f funcResolverAdapter) ResolveInputFunc(name string) (func(state.State) (map[string]any, error), bool) {
	if f.svc == nil {
		return nil, false
	}
	return f.svc.ResolveInputFunc(name)
}

// Run executes the fixed pre-process/process/post-process pipeline
// (spec §4.1) for a single node invocation. It never returns a non-nil
// error except *agerr.InterruptSignal, which the caller (normally the
// graph runner) is expected to catch with errors.As and handle per
// §4.5/§7.
func Run(ctx context.Context, a Runner, s state.State) (map[string]any, error) {
	t := a.CurrentExecutionTracker()
	name := a.AgentName()

	// Step 1: input projection.
	var resolver state.FuncResolver
	if svc := a.FunctionResolutionServiceOrNil(); svc != nil {
		resolver = funcResolverAdapter{svc}
	}
	inputs, err := a.Adapter().GetInputs(s, a.InputFields(), resolver)
	if err != nil {
		if t != nil {
			t.RecordNodeStart(name, nil)
		}
		return errorPartial(t, name, s, err), nil
	}

	// Step 2: tracking start.
	if t != nil {
		t.RecordNodeStart(name, inputs)
	}

	workingState := s
	workingInputs := inputs

	// Step 3: pre-process hook (identity by default).
	if pp, ok := a.(PreProcessor); ok {
		workingState, workingInputs = pp.PreProcess(workingState, workingInputs)
	}

	// Step 4: process.
	outcome, perr := a.Process(ctx, workingInputs)
	if perr != nil {
		return errorPartial(t, name, workingState, &agerr.ProcessError{Agent: name, Err: perr}), nil
	}

	// Suspension: re-raise for the outer driver; do not record a
	// result yet (spec testable property 10 — a single start and a
	// single successful result only after resume completes the node).
	if outcome.IsSuspended() {
		req := outcome.SuspendRequestValue()
		threadID := req.ThreadID
		if threadID == "" && t != nil {
			threadID = t.ThreadID()
		}
		return nil, &agerr.InterruptSignal{
			NodeName: req.NodeName,
			ThreadID: threadID,
			Inputs:   req.Inputs,
			Context:  req.Context,
		}
	}

	// Step 5: post-process hook (identity by default).
	if ppost, ok := a.(PostProcessor); ok {
		workingState, outcome = ppost.PostProcess(workingState, workingInputs, outcome)
	}

	// Step 6: output coercion & validation.
	partial, err := coerceOutput(a, outcome)
	if err != nil {
		return errorPartial(t, name, workingState, err), nil
	}

	// A PostProcess hook may have written directly onto workingState
	// (e.g. LLMAgent stashing updated memory under its memory key)
	// rather than routing the change through outcome/StateUpdates;
	// carry those writes into the returned partial too, since the
	// graph runner only ever merges partial back into the graph's
	// state, never workingState itself.
	for k, v := range workingState {
		if ov, ok := s[k]; !ok || !reflect.DeepEqual(ov, v) {
			if _, already := partial[k]; !already {
				partial[k] = v
			}
		}
	}

	// Step 7: set last_action_success=true unless an explicit
	// StateUpdates result (FailureAgent's or GraphAgent's post-process)
	// already set it, and record the node's result under that flag.
	success, set := partial[state.KeyLastActionSuccess].(bool)
	if !set {
		success = true
		partial[state.KeyLastActionSuccess] = true
	}
	if t != nil {
		t.RecordNodeResult(name, success, partial, "")
	}
	return partial, nil
}

// coerceOutput implements spec §4.1 step 6.
func coerceOutput(a Runner, outcome Outcome) (map[string]any, error) {
	value := outcome.Value()

	if su, ok := value.(StateUpdates); ok {
		out := make(map[string]any, len(su))
		for k, v := range su {
			out[k] = v
		}
		return out, nil
	}

	fields := a.OutputFields()
	switch len(fields) {
	case 0:
		return map[string]any{}, nil
	case 1:
		if value == nil {
			return map[string]any{}, nil
		}
		return map[string]any{fields[0]: value}, nil
	default:
		partial, warnings, err := validateMultiOutput(a.AgentName(), fields, a.ValidationMode(), value)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			a.LogWarn("%s", w)
		}
		return partial, nil
	}
}

// errorPartial implements spec §4.1 step 8 / §7 propagation policy:
// build the error state-updates partial, record the failed result,
// and return it. The caller always treats the returned (map, nil) as
// Run's terminal value for non-interrupt failures.
func errorPartial(t *tracker.Tracker, name string, s state.State, err error) map[string]any {
	msg := fmt.Sprintf("Error in %s: %s", name, err.Error())
	partial := map[string]any{
		state.KeyLastActionSuccess: false,
		state.KeyErrors:            state.AppendError(s, msg),
	}
	if t != nil {
		t.RecordNodeResult(name, false, nil, msg)
	}
	return partial
}
