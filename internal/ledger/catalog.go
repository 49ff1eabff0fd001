package ledger

import (
	"context"

	"github.com/rezonia/docvision/internal/model"
)

// maxMatchBatch is the gateway's limit on Item/Match entries per request
const maxMatchBatch = 250

// MatchQuery is one entry of an Item/Match request. Index is echoed back so
// each result stays addressable regardless of response order.
type MatchQuery struct {
	Index string `json:"index"`
	Value string `json:"value"`
}

// MatchResult is one entry of an Item/Match response
type MatchResult struct {
	Index  string `json:"index"`
	ItemID int64  `json:"item_id"`
	Value  string `json:"value"`
}

// MatchItems resolves catalog item ids for a batch of values of one kind
func (c *Client) MatchItems(ctx context.Context, kind model.MatchKind, queries []MatchQuery) ([]MatchResult, error) {
	if len(queries) > maxMatchBatch {
		return nil, model.NewValidationError("queries", len(queries), "max", "maximum 250 match entries per request")
	}

	payload := struct {
		Type string       `json:"type"`
		Data []MatchQuery `json:"data"`
	}{
		Type: string(kind),
		Data: queries,
	}

	raw, err := c.call(ctx, "Item/Match", payload)
	if err != nil {
		return nil, err
	}
	return decodeList[MatchResult]("Item/Match", raw)
}

// MatchItem resolves a single value to a catalog item id. The second return
// reports whether the ledger knows the value at all.
func (c *Client) MatchItem(ctx context.Context, kind model.MatchKind, value string) (int64, bool, error) {
	results, err := c.MatchItems(ctx, kind, []MatchQuery{{Index: "0", Value: value}})
	if err != nil {
		return 0, false, err
	}
	for _, r := range results {
		if r.ItemID != 0 {
			return r.ItemID, true, nil
		}
	}
	return 0, false, nil
}

// ItemFields is the Item/Add payload. Optional fields are pointers or
// omitempty strings so absent values never reach the wire as blanks.
type ItemFields struct {
	GroupID     int64  `json:"group_id"`
	VATID       int64  `json:"vat_id"`
	UnitID      int64  `json:"unit_id"`
	Name        string `json:"name,omitempty"`
	Code        *int64 `json:"code,omitempty"`
	Articul     string `json:"articul,omitempty"`
	PackageCode string `json:"package_code,omitempty"`
	PartnerID   *int64 `json:"partner_id,omitempty"`
}

// AddItem creates a catalog item and returns its id
func (c *Client) AddItem(ctx context.Context, fields ItemFields) (int64, error) {
	raw, err := c.call(ctx, "Item/Add", fields)
	if err != nil {
		return 0, err
	}
	id, err := decodeNewID("Item/Add", raw)
	if err != nil {
		return 0, err
	}
	c.log.Info("catalog item created", "item_id", id, "name", fields.Name)
	return id, nil
}
