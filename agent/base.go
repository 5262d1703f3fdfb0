// Package agent implements the Agent Lifecycle Engine (spec §4.1): the
// fixed pre-process/process/post-process pipeline, multi-output
// validation, and the run() contract every built-in and host agent
// shares by embedding BaseAgent.
package agent

import (
	"context"

	"github.com/agentmap-go/agentmap/agentlog"
	"github.com/agentmap-go/agentmap/state"
	"github.com/agentmap-go/agentmap/tracker"
)

// ValidationMode controls multi-output validation behavior (spec
// §4.1). Warn is the documented default.
type ValidationMode int

const (
	ValidationWarn ValidationMode = iota
	ValidationIgnore
	ValidationError
)

// ParseValidationMode maps the CSV/context string form to the enum,
// defaulting to Warn for anything unrecognized or empty.
func ParseValidationMode(s string) ValidationMode {
	switch s {
	case "ignore":
		return ValidationIgnore
	case "error":
		return ValidationError
	default:
		return ValidationWarn
	}
}

// Processor is the one method every concrete agent must implement:
// the business logic that turns projected inputs into a value (or a
// suspend request).
type Processor interface {
	Process(ctx context.Context, inputs map[string]any) (Outcome, error)
}

// PreProcessor optionally rewrites state/inputs before Process runs.
// Default behavior (when an agent doesn't implement this) is identity.
type PreProcessor interface {
	PreProcess(s state.State, inputs map[string]any) (state.State, map[string]any)
}

// PostProcessor optionally rewrites state/output after Process runs.
// Default behavior is identity. Returning agent.StateUpdates(...) as
// the Outcome's value bypasses output-field coercion entirely.
type PostProcessor interface {
	PostProcess(s state.State, inputs map[string]any, output Outcome) (state.State, Outcome)
}

// Identity is the interface implemented by every BaseAgent so callers
// can read its declared contract without type-asserting to a concrete
// built-in type.
type Identity interface {
	AgentName() string
	Prompt() string
	Context() map[string]any
	InputFields() []state.InputField
	OutputFields() []string
	ValidationMode() ValidationMode
}

// BaseAgent carries the identity and infrastructure handles common to
// every agent (spec §3 "Agent instance"). Concrete agents embed it and
// implement Processor, optionally PreProcessor/PostProcessor.
type BaseAgent struct {
	Name    string
	PromptV string
	Ctx     map[string]any

	InputFieldsV  []state.InputField
	OutputFieldsV []string
	ValidationM   ValidationMode

	logger  agentlog.Logger
	adapter state.Adapter

	// currentTracker is injected per run via SetExecutionTracker; it is
	// the only field BaseAgent mutates outside construction (spec §3:
	// "never mutated between runs except for the 'current execution
	// tracker' handle injected per run").
	currentTracker *tracker.Tracker

	functionResolution FuncResolutionService
}

// FuncResolutionService is the capability interface for the
// function-resolution business service (spec §4.2/§6): locating a
// named routing or input-mapping function.
type FuncResolutionService interface {
	ExtractFuncRef(s string) (string, bool)
	ImportFunction(name string) (func(map[string]any) (map[string]any, error), error)
	ResolveInputFunc(name string) (func(state.State) (map[string]any, error), bool)
	ResolveRouteFunc(name string) (state.RouteFunc, bool)
}

// NewBaseAgent constructs a BaseAgent. adapter defaults to
// state.MapAdapter{} when nil.
func NewBaseAgent(name, prompt string, ctx map[string]any, logger agentlog.Logger, adapter state.Adapter) *BaseAgent {
	if ctx == nil {
		ctx = map[string]any{}
	}
	if adapter == nil {
		adapter = state.MapAdapter{}
	}
	if logger == nil {
		logger = agentlog.NoOpLogger{}
	}

	inputFields := parseContextInputFields(ctx)
	outputFields := parseContextOutputFields(ctx)
	validation := ValidationWarn
	if v, ok := ctx["output_validation"].(string); ok {
		validation = ParseValidationMode(v)
	}

	return &BaseAgent{
		Name:          name,
		PromptV:       prompt,
		Ctx:           ctx,
		InputFieldsV:  inputFields,
		OutputFieldsV: outputFields,
		ValidationM:   validation,
		logger:        logger,
		adapter:       adapter,
	}
}

func parseContextInputFields(ctx map[string]any) []state.InputField {
	raw, _ := ctx["input_fields"].(string)
	return state.ParseInputFields(raw)
}

func parseContextOutputFields(ctx map[string]any) []string {
	raw, _ := ctx["output_field"].(string)
	return state.ParseOutputFields(raw)
}

// --- Identity ---

func (a *BaseAgent) AgentName() string                    { return a.Name }
func (a *BaseAgent) Prompt() string                       { return a.PromptV }
func (a *BaseAgent) Context() map[string]any              { return a.Ctx }
func (a *BaseAgent) InputFields() []state.InputField      { return a.InputFieldsV }
func (a *BaseAgent) OutputFields() []string               { return a.OutputFieldsV }
func (a *BaseAgent) ValidationMode() ValidationMode        { return a.ValidationM }

// --- Infrastructure wiring (not business services; set once at
// assembly time per spec §3) ---

// SetLogger assigns the agent's logger handle.
func (a *BaseAgent) SetLogger(logger agentlog.Logger) { a.logger = logger }

// SetStateAdapter assigns the state adapter handle.
func (a *BaseAgent) SetStateAdapter(adapter state.Adapter) { a.adapter = adapter }

// SetExecutionTracker injects the current run's tracker. Called once
// per run by the graph runner before invoking the entry node.
func (a *BaseAgent) SetExecutionTracker(t *tracker.Tracker) { a.currentTracker = t }

// CurrentExecutionTracker returns the tracker for the in-flight run,
// or nil if none has been injected yet.
func (a *BaseAgent) CurrentExecutionTracker() *tracker.Tracker { return a.currentTracker }

// ConfigureFunctionResolutionService wires the function-resolution
// capability (spec §4.2) used for func: input-field projection.
// GraphAgent keeps its own handle for its mapping functions.
func (a *BaseAgent) ConfigureFunctionResolutionService(svc FuncResolutionService) {
	a.functionResolution = svc
	a.logDebug("function resolution service configured")
}

// FunctionResolutionServiceOrNil returns the configured service, or nil.
func (a *BaseAgent) FunctionResolutionServiceOrNil() FuncResolutionService {
	return a.functionResolution
}

func (a *BaseAgent) logDebug(format string, v ...any) { a.logger.Debug("["+a.Name+"] "+format, v...) }
func (a *BaseAgent) logInfo(format string, v ...any)  { a.logger.Info("["+a.Name+"] "+format, v...) }
func (a *BaseAgent) logWarn(format string, v ...any)  { a.logger.Warn("["+a.Name+"] "+format, v...) }
func (a *BaseAgent) logError(format string, v ...any) { a.logger.Error("["+a.Name+"] "+format, v...) }

// LogDebug/LogInfo/LogWarn/LogError are exported so built-in agents
// (which embed BaseAgent from another package) can log with the same
// [Name]-prefixed convention without exposing the raw logger.
func (a *BaseAgent) LogDebug(format string, v ...any) { a.logDebug(format, v...) }
func (a *BaseAgent) LogInfo(format string, v ...any)  { a.logInfo(format, v...) }
func (a *BaseAgent) LogWarn(format string, v ...any)  { a.logWarn(format, v...) }
func (a *BaseAgent) LogError(format string, v ...any) { a.logError(format, v...) }

// Adapter exposes the configured state adapter for subtypes that need
// direct access (e.g. GraphAgent reading subgraph_bundles).
func (a *BaseAgent) Adapter() state.Adapter { return a.adapter }
