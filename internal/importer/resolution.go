package importer

import (
	"github.com/rezonia/docvision/internal/model"
)

// ResolutionState is the per-line lifecycle: Unresolved → Matching →
// Matched | Created | Failed. The terminal states hold for one import
// attempt only; a rerun starts every line fresh.
type ResolutionState int

const (
	StateUnresolved ResolutionState = iota
	StateMatching
	StateMatched
	StateCreated
	StateFailed
)

func (s ResolutionState) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateMatching:
		return "matching"
	case StateMatched:
		return "matched"
	case StateCreated:
		return "created"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Resolved reports whether the line carries a usable item id
func (s ResolutionState) Resolved() bool {
	return s == StateMatched || s == StateCreated
}

// LineInput is one line handed to the orchestrator: the normalized source
// line plus the operator's optional match-key overrides.
type LineInput struct {
	Line            model.SourceLine `json:"line"`
	OverrideCode    string           `json:"code,omitempty"`
	OverrideBarcode string           `json:"barcode,omitempty"`
}

// MatchKey derives the single lookup key for the line. A code override takes
// precedence over a barcode override; with neither the line cannot be
// matched and no remote call is worth making.
func (in LineInput) MatchKey() (model.MatchKey, bool) {
	if in.OverrideCode != "" {
		return model.MatchKey{Kind: model.MatchByCode, Value: in.OverrideCode}, true
	}
	if in.OverrideBarcode != "" {
		return model.MatchKey{Kind: model.MatchByBarcode, Value: in.OverrideBarcode}, true
	}
	return model.MatchKey{}, false
}

// LineResolution is the per-line outcome of one reconciliation pass
type LineResolution struct {
	Index  int              `json:"index"`
	Line   model.SourceLine `json:"line"`
	Key    *model.MatchKey  `json:"key,omitempty"`
	State  ResolutionState  `json:"-"`
	Status string           `json:"status"`
	ItemID int64            `json:"item_id,omitempty"`
	Reason string           `json:"reason,omitempty"`
}

func (r *LineResolution) setState(s ResolutionState) {
	r.State = s
	r.Status = s.String()
}

func (r *LineResolution) fail(reason string) {
	r.setState(StateFailed)
	r.Reason = reason
}
