package model

// SourceLine is one canonical line item extracted from a source trade
// document. It is a read-only snapshot: the normalizer fills it once and the
// import pipeline never mutates it.
type SourceLine struct {
	Name        string `json:"name"`
	Barcode     string `json:"barcode,omitempty"`
	PackageCode string `json:"package_code,omitempty"`
	PackageName string `json:"package_name,omitempty"`
	CatalogCode string `json:"catalog_code,omitempty"`

	// Quantity defaults to 1 when the source omits it.
	Quantity float64 `json:"quantity"`

	// DeliverySum is the ex-VAT line amount. Zero when absent.
	DeliverySum float64 `json:"delivery_sum"`

	// DeliverySumWithVat is the inc-VAT line amount; nil when the source
	// does not carry one. Absence matters downstream: no inc-VAT amount
	// means no unit price is sent and the ledger applies its own pricing.
	DeliverySumWithVat *float64 `json:"delivery_sum_with_vat,omitempty"`

	VATRate float64 `json:"vat_rate"`
}

// MatchKind selects the catalog field a match key is compared against
type MatchKind string

const (
	MatchByCode    MatchKind = "Code"
	MatchByName    MatchKind = "Name"
	MatchByArticul MatchKind = "Articul"
	MatchByBarcode MatchKind = "Barcode"
)

// MatchKey is the single lookup key derived for a line. Exactly one kind is
// chosen per line; a code override wins over a barcode override.
type MatchKey struct {
	Kind  MatchKind `json:"kind"`
	Value string    `json:"value"`
}
