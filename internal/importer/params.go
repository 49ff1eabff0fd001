package importer

import (
	"github.com/rezonia/docvision/internal/ledger"
	"github.com/rezonia/docvision/internal/model"
)

// VATConvention is the operator's choice of how VAT is expressed on the
// posted document header
type VATConvention string

const (
	VATConventionNone       VATConvention = "none"
	VATConventionIncluded   VATConvention = "included"
	VATConventionAddedOnTop VATConvention = "added_on_top"
)

// Wire maps the convention to the ledger's header enum
func (v VATConvention) Wire() ledger.VATCalculationType {
	switch v {
	case VATConventionIncluded:
		return ledger.VATIncludedInSum
	case VATConventionAddedOnTop:
		return ledger.VATAddedOnTop
	case VATConventionNone:
		return ledger.VATNone
	default:
		return ""
	}
}

// Parameters are the operator-chosen settings for one import run. They are
// validated as a unit before any remote call is made.
type Parameters struct {
	PartnerID         int64         `json:"partner_id"`
	StockID           int64         `json:"stock_id"`
	CurrencyID        int64         `json:"currency_id"`
	AttachedUserID    int64         `json:"attached_user_id"`
	PriceTypeID       *int64        `json:"price_type_id,omitempty"`
	ItemGroupID       *int64        `json:"item_group_id,omitempty"`
	VATConvention     VATConvention `json:"vat_convention,omitempty"`
	AutoCreateMissing bool          `json:"auto_create_missing"`
	Description       string        `json:"description,omitempty"`
}

// Validate checks the required selections. Partner, stock and currency must
// all be chosen before any per-line work starts.
func (p Parameters) Validate() error {
	if p.PartnerID == 0 {
		return model.NewValidationError("partner_id", nil, "required", "no partner selected")
	}
	if p.StockID == 0 {
		return model.NewValidationError("stock_id", nil, "required", "no stock selected")
	}
	if p.CurrencyID == 0 {
		return model.NewValidationError("currency_id", nil, "required", "no currency selected")
	}
	return nil
}

// Defaults are the fixed attributes applied to auto-created catalog items
// when the operator supplies no alternative. Deployment configuration, not
// business logic: the ids differ per ledger account.
type Defaults struct {
	ItemGroupID int64
	VATID       int64
	UnitID      int64
}
