package ledger

import (
	"context"
)

// Partner is a ledger-side counterparty record
type Partner struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"fullname,omitempty"`
	TIN         string `json:"tin,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DeletedMark bool   `json:"deleted_mark,omitempty"`
}

// PartnerGroup is a grouping node for partners
type PartnerGroup struct {
	ID       int64  `json:"id"`
	ParentID int64  `json:"parent_id,omitempty"`
	Name     string `json:"name"`
}

// PartnerFilter narrows a Partner/Get call
type PartnerFilter struct {
	IDs         []int64 `json:"ids,omitempty"`
	GroupIDs    []int64 `json:"group_ids,omitempty"`
	Search      string  `json:"search,omitempty"`
	DeletedMark *bool   `json:"deleted_mark,omitempty"`
	Limit       int     `json:"limit,omitempty"`
	Offset      int     `json:"offset,omitempty"`
}

// PartnerFields is the Partner/Add payload. Name, GroupID and LegalStatus
// are required by the gateway; everything else is optional and omitted when
// blank rather than sent as an empty string.
type PartnerFields struct {
	Name        string `json:"name"`
	GroupID     int64  `json:"group_id"`
	LegalStatus string `json:"legal_status"`
	FullName    string `json:"fullname,omitempty"`
	TIN         string `json:"tin,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	PINFL       string `json:"pinfl,omitempty"`
	BankDetails string `json:"bank_details,omitempty"`
	Code        *int64 `json:"code,omitempty"`
	Comment     string `json:"comment,omitempty"`
}

// Partners lists counterparties matching the filter
func (c *Client) Partners(ctx context.Context, filter PartnerFilter) ([]Partner, error) {
	raw, err := c.call(ctx, "Partner/Get", filter)
	if err != nil {
		return nil, err
	}
	return decodeList[Partner]("Partner/Get", raw)
}

// PartnerGroups lists all partner groups
func (c *Client) PartnerGroups(ctx context.Context) ([]PartnerGroup, error) {
	raw, err := c.call(ctx, "PartnerGroup/Get", struct{}{})
	if err != nil {
		return nil, err
	}
	return decodeList[PartnerGroup]("PartnerGroup/Get", raw)
}

// AddPartner creates a counterparty and returns its id
func (c *Client) AddPartner(ctx context.Context, fields PartnerFields) (int64, error) {
	raw, err := c.call(ctx, "Partner/Add", fields)
	if err != nil {
		return 0, err
	}
	id, err := decodeNewID("Partner/Add", raw)
	if err != nil {
		return 0, err
	}
	c.log.Info("partner created", "partner_id", id, "name", fields.Name)
	return id, nil
}
