// Package importer implements the import reconciliation pipeline: it turns
// the line items of a source trade document plus the operator's import
// parameters into one posted purchase document in the ledger.
//
// Per line: derive a match key, look it up in the catalog, optionally create
// the missing item, derive money fields. Line failures stay on their line;
// the batch posts whatever resolved. Posting is two calls, header first,
// then the full operations array.
package importer

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rezonia/docvision/internal/ledger"
	"github.com/rezonia/docvision/internal/model"
)

// placeholder display name for auto-created items with an empty source name
const placeholderItemName = "Новый товар"

// Ledger is the remote surface the pipeline needs. *ledger.Client satisfies
// it; tests substitute counters and failure scripts.
type Ledger interface {
	MatchItem(ctx context.Context, kind model.MatchKind, value string) (int64, bool, error)
	AddItem(ctx context.Context, fields ledger.ItemFields) (int64, error)
	AddPurchaseDocument(ctx context.Context, header ledger.PurchaseHeader) (int64, error)
	AddPurchaseOperations(ctx context.Context, ops []ledger.PurchaseOperation) (int64, error)
}

// Importer drives import runs against one ledger
type Importer struct {
	ledger      Ledger
	defaults    Defaults
	concurrency int
	log         *slog.Logger
	now         func() time.Time
}

// Option configures the importer
type Option func(*Importer)

// WithConcurrency bounds how many lines are matched in parallel
func WithConcurrency(n int) Option {
	return func(imp *Importer) {
		if n > 0 {
			imp.concurrency = n
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(log *slog.Logger) Option {
	return func(imp *Importer) {
		imp.log = log
	}
}

// WithClock overrides the header timestamp source (used by tests)
func WithClock(now func() time.Time) Option {
	return func(imp *Importer) {
		imp.now = now
	}
}

// NewImporter creates an importer posting to the given ledger
func NewImporter(l Ledger, defaults Defaults, opts ...Option) *Importer {
	imp := &Importer{
		ledger:      l,
		defaults:    defaults,
		concurrency: 8,
		log:         slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Run executes one full import: validate parameters, resolve every line,
// decide batch viability, post header then operations.
//
// Each run owns its resolutions; nothing is cached across runs, and a rerun
// after a partial posting failure creates a second header. The ledger offers
// no idempotency key, so the result carries the document id and the operator
// acts on the orphan.
func (imp *Importer) Run(ctx context.Context, lines []LineInput, params Parameters) *Result {
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: imp.now().UTC(),
	}

	log := imp.log.With("run_id", res.RunID)

	// Validating
	if err := params.Validate(); err != nil {
		log.Warn("import aborted", "reason", AbortMissingRequiredSelection, "error", err)
		return res.abort(AbortMissingRequiredSelection, err)
	}

	// PerLineProcessing
	res.Resolutions = imp.resolveAll(ctx, lines, params)
	res.Counts = countResolutions(res.Resolutions)

	log.Info("lines resolved",
		"total", len(lines),
		"matched", res.Counts.Matched,
		"created", res.Counts.Created,
		"failed", res.Counts.Failed)

	// Deciding
	if res.Counts.Matched+res.Counts.Created == 0 {
		return res.abort(AbortNoResolvableLines, nil)
	}

	// A cancelled run must not post anything, even if in-flight matches
	// completed above.
	if ctx.Err() != nil {
		return res.abort(AbortCancelled, ctx.Err())
	}

	// Posting: header first, operations never before it
	header := ledger.PurchaseHeader{
		Date:               imp.now().Unix(),
		PartnerID:          params.PartnerID,
		StockID:            params.StockID,
		CurrencyID:         params.CurrencyID,
		AttachedUserID:     params.AttachedUserID,
		Description:        params.Description,
		VATCalculationType: params.VATConvention.Wire(),
		PriceTypeID:        params.PriceTypeID,
	}

	docID, err := imp.ledger.AddPurchaseDocument(ctx, header)
	if err != nil {
		log.Error("header creation failed", "error", err)
		return res.abort(AbortHeaderCreationFailed, err)
	}
	res.DocumentID = docID

	ops := buildOperations(docID, res.Resolutions)
	posted, err := imp.ledger.AddPurchaseOperations(ctx, ops)
	if err != nil {
		// The header now exists with zero operations. Surface that
		// distinctly so the operator can void it or retry just the
		// operations step.
		res.State = StatePartiallyDone
		res.Err = model.NewPartialPostError(docID, err)
		log.Error("operations post failed after header creation",
			"document_id", docID, "error", err)
		return res
	}

	res.State = StateDone
	res.Counts.Posted = int(posted)
	log.Info("import done", "document_id", docID, "posted", posted)
	return res
}

// resolveAll runs the per-line pipeline for every line. Lines are
// independent, so matching fans out across a bounded set of goroutines;
// each line's create only ever follows its own negative match, inside the
// same goroutine.
func (imp *Importer) resolveAll(ctx context.Context, lines []LineInput, params Parameters) []LineResolution {
	out := make([]LineResolution, len(lines))

	sem := make(chan struct{}, imp.concurrency)
	var wg sync.WaitGroup
	for i := range lines {
		wg.Add(1)
		go func(i int, in LineInput) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			out[i] = imp.resolveLine(ctx, i, in, params)
		}(i, lines[i])
	}
	wg.Wait()

	return out
}

// resolveLine is the per-line state machine: Unresolved → Matching →
// Matched | Created | Failed. A failure here never propagates past the line.
func (imp *Importer) resolveLine(ctx context.Context, index int, in LineInput, params Parameters) LineResolution {
	r := LineResolution{Index: index, Line: in.Line}
	r.setState(StateUnresolved)

	key, ok := in.MatchKey()
	if !ok {
		// No key, no round-trip.
		r.fail("no code/barcode supplied")
		return r
	}
	r.Key = &key
	r.setState(StateMatching)

	itemID, found, err := imp.ledger.MatchItem(ctx, key.Kind, key.Value)
	if err != nil {
		r.fail(err.Error())
		return r
	}

	if found {
		r.setState(StateMatched)
		r.ItemID = itemID
		return r
	}

	if !params.AutoCreateMissing {
		r.fail("Not found")
		return r
	}

	id, err := imp.ledger.AddItem(ctx, imp.itemFields(in, params))
	if err != nil {
		r.fail(err.Error())
		return r
	}

	r.setState(StateCreated)
	r.ItemID = id
	return r
}

// itemFields builds the minimal catalog record for an unmatched line
func (imp *Importer) itemFields(in LineInput, params Parameters) ledger.ItemFields {
	fields := ledger.ItemFields{
		GroupID:     imp.defaults.ItemGroupID,
		VATID:       imp.defaults.VATID,
		UnitID:      imp.defaults.UnitID,
		Name:        in.Line.Name,
		PackageCode: in.Line.PackageCode,
	}
	if fields.Name == "" {
		fields.Name = placeholderItemName
	}
	if params.ItemGroupID != nil {
		fields.GroupID = *params.ItemGroupID
	}
	if in.OverrideCode != "" {
		if code, err := strconv.ParseInt(in.OverrideCode, 10, 64); err == nil {
			fields.Code = &code
		}
	}
	if in.OverrideBarcode != "" {
		fields.Articul = in.OverrideBarcode
	}
	if params.PartnerID != 0 {
		partnerID := params.PartnerID
		fields.PartnerID = &partnerID
	}
	return fields
}

// buildOperations assembles the operations array in source line order,
// skipping lines that did not resolve
func buildOperations(documentID int64, resolutions []LineResolution) []ledger.PurchaseOperation {
	var ops []ledger.PurchaseOperation
	for _, r := range resolutions {
		if !r.State.Resolved() {
			continue
		}
		lp := Price(r.Line)
		ops = append(ops, ledger.PurchaseOperation{
			DocumentID: documentID,
			ItemID:     r.ItemID,
			Quantity:   lp.Quantity,
			Cost:       lp.Cost,
			Price:      lp.Price,
			VATValue:   lp.VATValue,
		})
	}
	return ops
}
