// Package tracker implements the per-run Execution Tracker (spec
// §4.6): an append-only record of node outcomes, a configurable
// success policy, and nested sub-graph summary storage.
package tracker

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SuccessPolicy decides how per-node outcomes roll up into the
// run-level graph_success flag.
type SuccessPolicy int

const (
	// AllSuccess requires every recorded node to have succeeded
	// (cumulative AND). This is the default per spec §9's Open
	// Question resolution.
	AllSuccess SuccessPolicy = iota
	// AtLeastOneSuccess requires only one recorded node to have
	// succeeded.
	AtLeastOneSuccess
	// Custom delegates the decision to CustomFn.
	Custom
)

// CustomSuccessFn evaluates graph success from the full node record
// list. Used only when the tracker's policy is Custom.
type CustomSuccessFn func(records []NodeRecord) bool

// NodeRecord is one entry in the tracker's append-only history.
type NodeRecord struct {
	NodeName   string
	StartedAt  time.Time
	FinishedAt time.Time
	Success    bool
	Inputs     map[string]any
	Output     map[string]any
	Error      string
}

// Summary is the structured record returned by Tracker.Summary. The
// graph runner returns it in Result.Summary, and a GraphAgent records
// its child's summary on the parent tracker; it is not written into
// the state under state.KeyExecutionSummary.
type Summary struct {
	RunID               string
	Path                []string
	NodeRecords         []NodeRecord
	SubGraphSummaries   map[string]Summary
	GraphSuccess        bool
}

// Tracker is owned by exactly one graph run (the outer driver, or a
// GraphAgent acting as the outer driver for its child). It is not
// safe to share across concurrent runs of different graphs, but its
// own methods are internally synchronized.
type Tracker struct {
	mu sync.Mutex

	runID    string
	threadID string
	policy   SuccessPolicy
	customFn CustomSuccessFn

	records      []NodeRecord
	subgraphs    map[string]Summary
	graphSuccess bool
}

// New creates a tracker with a fresh run ID. threadID correlates
// suspend/resume checkpoints (spec §4.5); if empty, one is generated
// lazily the first time a SuspendAgent asks for it.
func New(policy SuccessPolicy) *Tracker {
	return &Tracker{
		runID:        uuid.NewString(),
		policy:       policy,
		subgraphs:    make(map[string]Summary),
		graphSuccess: true,
	}
}

// NewWithCustomPolicy creates a tracker using a Custom success policy.
func NewWithCustomPolicy(fn CustomSuccessFn) *Tracker {
	t := New(Custom)
	t.customFn = fn
	return t
}

// RunID returns the run correlation ID.
func (t *Tracker) RunID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runID
}

// ThreadID returns the thread correlation ID used by suspend/resume,
// generating one on first access if none was set.
func (t *Tracker) ThreadID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.threadID == "" {
		t.threadID = uuid.NewString()
	}
	return t.threadID
}

// SetThreadID pins the thread ID, e.g. when resuming a checkpoint
// that already has one.
func (t *Tracker) SetThreadID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threadID = id
}

// RecordNodeStart appends a started-but-unfinished record. Idempotent
// per (name, run-id): calling it again while a prior record for the
// same name is still open (no result recorded yet) is a no-op,
// matching spec §4.6's idempotency contract. A node revisited later
// in the same run (e.g. via a loop edge) after its prior record
// finished starts a fresh record.
func (t *Tracker) RecordNodeStart(name string, inputs map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.records) - 1; i >= 0; i-- {
		if t.records[i].NodeName == name {
			if t.records[i].FinishedAt.IsZero() {
				return
			}
			break
		}
	}
	t.records = append(t.records, NodeRecord{
		NodeName:  name,
		StartedAt: time.Now(),
		Inputs:    inputs,
	})
}

// RecordNodeResult finalizes the most recent unfinished record for
// name with its outcome.
func (t *Tracker) RecordNodeResult(name string, success bool, output map[string]any, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.records) - 1; i >= 0; i-- {
		if t.records[i].NodeName == name && t.records[i].FinishedAt.IsZero() {
			t.records[i].FinishedAt = time.Now()
			t.records[i].Success = success
			t.records[i].Output = output
			t.records[i].Error = errMsg
			break
		}
	}
	t.updateGraphSuccessLocked()
}

// RecordSubgraphExecution stores a child GraphAgent's summary under
// the parent node's name so nested depth is preserved (spec §4.6).
func (t *Tracker) RecordSubgraphExecution(parentNode string, summary Summary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subgraphs[parentNode] = summary
}

// UpdateGraphSuccess recomputes graph_success per the configured
// policy. It is called automatically by RecordNodeResult, and is also
// exposed directly so callers (e.g. the runner enforcing an explicit
// failure) can force a recomputation.
func (t *Tracker) UpdateGraphSuccess() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updateGraphSuccessLocked()
}

func (t *Tracker) updateGraphSuccessLocked() bool {
	switch t.policy {
	case AtLeastOneSuccess:
		success := false
		for _, r := range t.records {
			if !r.FinishedAt.IsZero() && r.Success {
				success = true
				break
			}
		}
		t.graphSuccess = success
	case Custom:
		if t.customFn != nil {
			t.graphSuccess = t.customFn(t.records)
		}
	default: // AllSuccess
		// Cumulative AND: once false, stays false, matching spec §9's
		// resolution of the two disagreeing source code paths.
		if !t.graphSuccess {
			return t.graphSuccess
		}
		success := true
		for _, r := range t.records {
			if !r.FinishedAt.IsZero() && !r.Success {
				success = false
				break
			}
		}
		t.graphSuccess = success
	}
	return t.graphSuccess
}

// GraphSuccess returns the current rolled-up success flag.
func (t *Tracker) GraphSuccess() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.graphSuccess
}

// ForceFailure marks the run as failed regardless of policy, used
// when the outer driver detects cancellation or a timeout that isn't
// attributable to a single node record.
func (t *Tracker) ForceFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.graphSuccess = false
}

// Path returns the ordered sequence of node names visited so far.
func (t *Tracker) Path() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	path := make([]string, len(t.records))
	for i, r := range t.records {
		path[i] = r.NodeName
	}
	return path
}

// Summary returns the structured record for this run (spec §4.6).
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	records := make([]NodeRecord, len(t.records))
	copy(records, t.records)
	subs := make(map[string]Summary, len(t.subgraphs))
	for k, v := range t.subgraphs {
		subs[k] = v
	}
	path := make([]string, len(records))
	for i, r := range records {
		path[i] = r.NodeName
	}
	return Summary{
		RunID:             t.runID,
		Path:              path,
		NodeRecords:       records,
		SubGraphSummaries: subs,
		GraphSuccess:      t.graphSuccess,
	}
}
