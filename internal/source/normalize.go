package source

import (
	"math"

	"github.com/tidwall/gjson"

	"github.com/rezonia/docvision/internal/model"
)

// Lines extracts canonical line records from a raw document payload.
//
// The product entries arrive loosely typed and partially filled; extraction
// never fails. Absent or malformed numeric fields degrade to zero and an
// absent quantity degrades to one, so the operator always sees every line of
// the batch even when some are incomplete.
func Lines(raw []byte) []model.SourceLine {
	products := gjson.GetBytes(raw, "data.json.productlist.products")
	if !products.IsArray() {
		return nil
	}

	var lines []model.SourceLine
	products.ForEach(func(_, p gjson.Result) bool {
		lines = append(lines, normalizeLine(p))
		return true
	})
	return lines
}

func normalizeLine(p gjson.Result) model.SourceLine {
	line := model.SourceLine{
		Name:        p.Get("name").String(),
		Barcode:     p.Get("barcode").String(),
		PackageCode: p.Get("packagecode").String(),
		PackageName: p.Get("packagename").String(),
		CatalogCode: p.Get("catalogcode").String(),
		Quantity:    1,
		DeliverySum: numberOrZero(p.Get("deliverysum")),
		VATRate:     numberOrZero(p.Get("vatrate")),
	}

	if q := p.Get("count"); q.Exists() {
		line.Quantity = numberOrZero(q)
	}

	if s := p.Get("deliverysumwithvat"); s.Exists() && s.Type == gjson.Number {
		v := s.Float()
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			line.DeliverySumWithVat = &v
		}
	}

	return line
}

// numberOrZero reads a numeric field defensively: JSON numbers pass through,
// numeric strings parse, everything else is zero.
func numberOrZero(r gjson.Result) float64 {
	switch r.Type {
	case gjson.Number:
		return r.Float()
	case gjson.String:
		v := r.Float()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	default:
		return 0
	}
}
