package importer

import "time"

// RunState is the terminal state of one import run
type RunState string

const (
	StateDone          RunState = "done"
	StatePartiallyDone RunState = "partially_done"
	StateAborted       RunState = "aborted"
)

// AbortReason says why a run never posted (or never should have)
type AbortReason string

const (
	AbortMissingRequiredSelection AbortReason = "missing_required_selection"
	AbortNoResolvableLines        AbortReason = "no_resolvable_lines"
	AbortHeaderCreationFailed     AbortReason = "header_creation_failed"
	AbortCancelled                AbortReason = "cancelled"
)

// Counts is the batch completion report. Always counts, never a single
// pass/fail flag: a batch with three matched lines and two failed ones is a
// normal outcome the operator needs to see in full.
type Counts struct {
	Matched int `json:"matched"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
	Posted  int `json:"posted"`
}

// Result is the aggregate outcome of one import run. DocumentID is zero
// unless header creation succeeded; on a partial failure it identifies the
// orphaned header.
type Result struct {
	RunID       string           `json:"run_id"`
	StartedAt   time.Time        `json:"started_at"`
	State       RunState         `json:"state"`
	Reason      AbortReason      `json:"reason,omitempty"`
	DocumentID  int64            `json:"document_id,omitempty"`
	Resolutions []LineResolution `json:"resolutions"`
	Counts      Counts           `json:"counts"`
	Err         error            `json:"-"`
}

// ErrorMessage returns the run-level error as text for transport
func (r *Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func (r *Result) abort(reason AbortReason, err error) *Result {
	r.State = StateAborted
	r.Reason = reason
	r.Err = err
	return r
}

func countResolutions(resolutions []LineResolution) Counts {
	var c Counts
	for _, r := range resolutions {
		switch r.State {
		case StateMatched:
			c.Matched++
		case StateCreated:
			c.Created++
		case StateFailed:
			c.Failed++
		}
	}
	return c
}
