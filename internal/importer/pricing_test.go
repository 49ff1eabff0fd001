package importer_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/docvision/internal/importer"
	"github.com/rezonia/docvision/internal/model"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestPrice_WidgetScenario(t *testing.T) {
	line := model.SourceLine{
		Name:               "Widget",
		Barcode:            "123",
		Quantity:           2,
		DeliverySum:        1000,
		DeliverySumWithVat: floatPtr(1200),
		VATRate:            12,
	}

	lp := importer.Price(line)

	assert.True(t, lp.Quantity.Equal(decimal.NewFromInt(2)), "quantity = %s", lp.Quantity)
	assert.True(t, lp.Cost.Equal(decimal.NewFromInt(500)), "cost = %s", lp.Cost)
	require.NotNil(t, lp.Price)
	assert.True(t, lp.Price.Equal(decimal.NewFromInt(600)), "price = %s", lp.Price)
	assert.True(t, lp.VATValue.Equal(decimal.NewFromInt(12)), "vat = %s", lp.VATValue)
}

func TestPrice_QuantityCoercion(t *testing.T) {
	tests := []struct {
		name     string
		quantity float64
	}{
		{name: "zero quantity", quantity: 0},
		{name: "negative quantity", quantity: -3},
		{name: "NaN quantity", quantity: math.NaN()},
		{name: "infinite quantity", quantity: math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lp := importer.Price(model.SourceLine{
				Quantity:    tt.quantity,
				DeliverySum: 100,
			})
			assert.True(t, lp.Quantity.Equal(decimal.NewFromInt(1)), "quantity = %s", lp.Quantity)
			assert.True(t, lp.Cost.Equal(decimal.NewFromInt(100)), "cost = %s", lp.Cost)
		})
	}
}

func TestPrice_NoPriceWithoutIncVATSum(t *testing.T) {
	lp := importer.Price(model.SourceLine{
		Quantity:    5,
		DeliverySum: 250,
	})

	assert.Nil(t, lp.Price, "price must be absent, not zero, when the source had no inc-VAT sum")
	assert.True(t, lp.Cost.Equal(decimal.NewFromInt(50)))
}

func TestPrice_NonFiniteIncVATSumDropsPrice(t *testing.T) {
	lp := importer.Price(model.SourceLine{
		Quantity:           1,
		DeliverySum:        100,
		DeliverySumWithVat: floatPtr(math.NaN()),
	})
	assert.Nil(t, lp.Price)
}

func TestPrice_Rounding(t *testing.T) {
	lp := importer.Price(model.SourceLine{
		Quantity:           3,
		DeliverySum:        100,
		DeliverySumWithVat: floatPtr(115),
	})

	assert.Equal(t, "33.33", lp.Cost.String())
	require.NotNil(t, lp.Price)
	assert.Equal(t, "38.33", lp.Price.String())
}

func TestPrice_Deterministic(t *testing.T) {
	line := model.SourceLine{
		Name:               "Widget",
		Quantity:           7,
		DeliverySum:        999.99,
		DeliverySumWithVat: floatPtr(1119.99),
		VATRate:            12,
	}

	first := importer.Price(line)
	second := importer.Price(line)

	assert.True(t, first.Quantity.Equal(second.Quantity))
	assert.True(t, first.Cost.Equal(second.Cost))
	assert.True(t, first.VATValue.Equal(second.VATValue))
	require.NotNil(t, first.Price)
	require.NotNil(t, second.Price)
	assert.True(t, first.Price.Equal(*second.Price))
}
