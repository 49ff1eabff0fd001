package source

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/rezonia/docvision/internal/model"
)

// DocumentSummary is one row of the document list
type DocumentSummary struct {
	DocID                   string   `json:"doc_id"`
	Name                    string   `json:"name"`
	DocDate                 string   `json:"doc_date"`
	DocStatus               int      `json:"doc_status"`
	DocType                 string   `json:"doctype"`
	PartnerTIN              string   `json:"partnerTin"`
	PartnerCompany          string   `json:"partnerCompany"`
	TotalSum                *float64 `json:"total_sum"`
	TotalDeliverySum        *float64 `json:"total_delivery_sum"`
	TotalDeliverySumWithVat *float64 `json:"total_delivery_sum_with_vat"`
	HasVAT                  bool     `json:"has_vat"`
	Created                 string   `json:"created"`
	Updated                 string   `json:"updated"`
}

// DocumentList is the document list response
type DocumentList struct {
	Data  []DocumentSummary `json:"data"`
	Total int               `json:"total"`
}

func parseDocumentList(body []byte) (*DocumentList, error) {
	var list DocumentList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, model.NewRemoteCallError("documents", "", "decode document list", err)
	}
	return &list, nil
}

// Document is one fetched source document. The full payload is kept raw:
// its JSON tree varies by document type and provider, so typed access goes
// through gjson lookups instead of a struct mirror.
type Document struct {
	ID  string
	raw []byte
}

// NewDocument wraps a raw document payload
func NewDocument(id string, raw []byte) *Document {
	return &Document{ID: id, raw: raw}
}

// Raw returns the unmodified payload
func (d *Document) Raw() []byte {
	return d.raw
}

// Name returns the document's display name
func (d *Document) Name() string {
	return gjson.GetBytes(d.raw, "data.document.name").String()
}

// Status returns the source-side document status code
func (d *Document) Status() int {
	return int(gjson.GetBytes(d.raw, "data.document.doc_status").Int())
}

// SellerName returns the seller party name, empty when absent
func (d *Document) SellerName() string {
	return gjson.GetBytes(d.raw, "data.json.seller.name").String()
}

// SellerTIN returns the seller tax id, empty when absent
func (d *Document) SellerTIN() string {
	return gjson.GetBytes(d.raw, "data.json.seller.tin").String()
}

// BuyerName returns the buyer party name, empty when absent
func (d *Document) BuyerName() string {
	return gjson.GetBytes(d.raw, "data.json.buyer.name").String()
}

// Date returns the invoice date string from the factura block
func (d *Document) Date() string {
	return gjson.GetBytes(d.raw, "data.json.facturadoc.facturadate").String()
}

// Lines extracts the normalized line items of the document
func (d *Document) Lines() []model.SourceLine {
	return Lines(d.raw)
}
