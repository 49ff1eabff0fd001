package ledger

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/rezonia/docvision/internal/model"
)

// VATCalculationType is the textual VAT mode carried on a purchase-document
// header. The wire values are the gateway's own naming and read backwards:
// "Exclude" means the VAT is already inside the line sums, "Include" means it
// is added on top of them.
type VATCalculationType string

const (
	VATNone          VATCalculationType = "No"
	VATIncludedInSum VATCalculationType = "Exclude"
	VATAddedOnTop    VATCalculationType = "Include"
)

// PurchaseHeader is the DocPurchase/Add payload
type PurchaseHeader struct {
	Date               int64              `json:"date"`
	PartnerID          int64              `json:"partner_id"`
	StockID            int64              `json:"stock_id"`
	CurrencyID         int64              `json:"currency_id"`
	AttachedUserID     int64              `json:"attached_user_id"`
	ExchangeRate       *decimal.Decimal   `json:"exchange_rate,omitempty"`
	Description        string             `json:"description,omitempty"`
	VATCalculationType VATCalculationType `json:"vat_calculation_type,omitempty"`
	PriceTypeID        *int64             `json:"price_type_id,omitempty"`
}

// PurchaseOperation is one line of a posted purchase document. Price is a
// pointer: an absent price tells the ledger to apply its own default pricing,
// which is not the same as price zero.
type PurchaseOperation struct {
	DocumentID  int64            `json:"document_id"`
	ItemID      int64            `json:"item_id"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Cost        decimal.Decimal  `json:"cost"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	VATValue    decimal.Decimal  `json:"vat_value"`
	Description string           `json:"description,omitempty"`
}

// AddPurchaseDocument creates the document header and returns its id
func (c *Client) AddPurchaseDocument(ctx context.Context, header PurchaseHeader) (int64, error) {
	raw, err := c.call(ctx, "DocPurchase/Add", header)
	if err != nil {
		return 0, err
	}
	id, err := decodeNewID("DocPurchase/Add", raw)
	if err != nil {
		return 0, err
	}
	c.log.Info("purchase document created",
		"document_id", id,
		"partner_id", header.PartnerID,
		"stock_id", header.StockID)
	return id, nil
}

// operationsResult is the PurchaseOperation/Add result shape
type operationsResult struct {
	RowAffected int64   `json:"row_affected"`
	IDs         []int64 `json:"ids"`
}

// AddPurchaseOperations posts the full operations batch in one call. The
// request body is the bare array, not an object.
func (c *Client) AddPurchaseOperations(ctx context.Context, ops []PurchaseOperation) (int64, error) {
	raw, err := c.call(ctx, "PurchaseOperation/Add", ops)
	if err != nil {
		return 0, err
	}

	var out operationsResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, model.NewRemoteCallError("PurchaseOperation/Add", "", "decode result", err)
	}

	c.log.Info("purchase operations posted", "count", out.RowAffected)
	return out.RowAffected, nil
}
