package agent

import "context"

type outcomeKind int

const (
	kindCompleted outcomeKind = iota
	kindSuspended
)

// Outcome is the sum type process() returns in place of the source's
// raise-an-exception suspension model (spec §9 design note:
// "Outcome = Completed(value) | Suspended(metadata)"). The lifecycle
// engine branches on Kind() rather than catching a language-level
// exception.
type Outcome struct {
	kind    outcomeKind
	value   any
	suspend *SuspendRequest
}

// SuspendRequest is the structured interrupt payload a SuspendAgent
// raises (spec §4.5): {type: "suspend", node_name, thread_id, inputs,
// context}.
type SuspendRequest struct {
	NodeName string
	ThreadID string
	Inputs   map[string]any
	Context  map[string]any
}

// Completed wraps a normal process() return value.
func Completed(value any) Outcome {
	return Outcome{kind: kindCompleted, value: value}
}

// Suspended wraps a suspend request.
func Suspended(req SuspendRequest) Outcome {
	return Outcome{kind: kindSuspended, suspend: &req}
}

// IsSuspended reports whether this outcome represents a suspension.
func (o Outcome) IsSuspended() bool { return o.kind == kindSuspended }

// Value returns the completed value (nil if suspended).
func (o Outcome) Value() any { return o.value }

// SuspendRequestValue returns the suspend payload, or nil if not suspended.
func (o Outcome) SuspendRequestValue() *SuspendRequest { return o.suspend }

// StateUpdates marks a post-process return value as an explicit
// multi-field write intent that bypasses output-field validation
// (spec §4.1, step 5: "A post-processor may replace output with a
// dict of the form {"state_updates": {...}}").
type StateUpdates map[string]any

type resumeValueKey struct{}

// WithResumeValue attaches a resume value to ctx. This is how the
// graph runner re-drives a suspended node: the node's process() reads
// it back via ResumeValue and returns Completed(...) instead of
// Suspended(...), exactly mirroring the teacher's
// graph.WithResumeValue/graph.GetResumeValue context-carried resume
// idiom.
func WithResumeValue(ctx context.Context, value any) context.Context {
	return context.WithValue(ctx, resumeValueKey{}, value)
}

// ResumeValue retrieves the resume value from ctx, or nil if this is
// not a resumed invocation.
func ResumeValue(ctx context.Context) any {
	return ctx.Value(resumeValueKey{})
}

// Interrupt is the common helper a SuspendAgent (or any agent modeling
// cooperative suspension) calls from Process: on first invocation it
// returns a Suspended outcome; once the engine replays the node with
// a resume value attached to ctx, it returns Completed(resumeValue).
func Interrupt(ctx context.Context, req SuspendRequest) Outcome {
	if v := ResumeValue(ctx); v != nil {
		return Completed(v)
	}
	return Suspended(req)
}
