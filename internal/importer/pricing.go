package importer

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/rezonia/docvision/internal/model"
)

// LinePrice holds the derived money fields for one resolved line
type LinePrice struct {
	Quantity decimal.Decimal
	Cost     decimal.Decimal
	Price    *decimal.Decimal
	VATValue decimal.Decimal
}

// Price derives unit cost, unit price and VAT value for a line. Pure and
// deterministic: same line in, bit-identical LinePrice out.
//
// A non-positive quantity is coerced to 1 so unit cost is never a division
// by zero or negative. Price is only produced when the source carried a
// finite inc-VAT sum; an absent price tells the ledger to apply its own
// default pricing, which is different from price zero. The VAT convention
// chosen by the operator lives on the document header and never changes
// these numbers.
func Price(line model.SourceLine) LinePrice {
	qty := line.Quantity
	if qty <= 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
		qty = 1
	}

	q := decimal.NewFromFloat(qty)
	cost := decimal.NewFromFloat(finiteOrZero(line.DeliverySum)).Div(q).Round(2)

	lp := LinePrice{
		Quantity: q,
		Cost:     cost,
		VATValue: decimal.NewFromFloat(finiteOrZero(line.VATRate)),
	}

	if line.DeliverySumWithVat != nil {
		v := *line.DeliverySumWithVat
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			price := decimal.NewFromFloat(v).Div(q).Round(2)
			lp.Price = &price
		}
	}

	return lp
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
