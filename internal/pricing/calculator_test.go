package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_storefront/internal/domain"
)

func newTestCalculator() *Calculator {
	return NewCalculator(Config{
		ShippingFee:           DefaultShippingFee,
		FreeShippingThreshold: DefaultFreeShippingThreshold,
	})
}

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: "poster-1", Title: "Sunset", Type: domain.ProductTypePoster, Price: map[string]float64{"M": 300, "L": 450}},
		{ID: "polaroid-1", Title: "Beach", Type: domain.ProductTypePolaroid, Price: map[string]float64{"std": 49.99}},
	}
}

func TestCalculate_FlatOfferWithShipping(t *testing.T) {
	calc := newTestCalculator()
	offers := []domain.Offer{
		{ID: "flat50", Type: domain.OfferTypeFlat, Value: 50, Active: true, Conditions: domain.OfferConditions{MinSubtotal: 500}},
	}

	quote, err := calc.Calculate(
		[]domain.CartLineItem{{ProductID: "poster-1", Size: "M", Quantity: 2}},
		testProducts(),
		offers,
	)
	require.NoError(t, err)

	assert.Equal(t, 600.0, quote.Subtotal)
	assert.Equal(t, 50.0, quote.Discount)
	assert.Equal(t, 79.0, quote.Shipping)
	assert.Equal(t, 629.0, quote.Total)
	assert.Equal(t, "INR", quote.Currency)
	require.Len(t, quote.AppliedOffers, 1)
	assert.Equal(t, "flat50", quote.AppliedOffers[0].ID)
	assert.Equal(t, 50.0, quote.AppliedOffers[0].Amount)

	require.Len(t, quote.Items, 1)
	assert.Equal(t, 300.0, quote.Items[0].UnitPrice)
	assert.Equal(t, 600.0, quote.Items[0].LineTotal)
	assert.Equal(t, "Sunset", quote.Items[0].Title)
}

func TestCalculate_LineTotalsSumToSubtotal(t *testing.T) {
	calc := newTestCalculator()

	quote, err := calc.Calculate([]domain.CartLineItem{
		{ProductID: "poster-1", Size: "L", Quantity: 1},
		{ProductID: "polaroid-1", Size: "std", Quantity: 3},
	}, testProducts(), nil)
	require.NoError(t, err)

	var sum float64
	for _, item := range quote.Items {
		assert.InDelta(t, item.UnitPrice*float64(item.Quantity), item.LineTotal, 0.001)
		sum += item.LineTotal
	}
	assert.InDelta(t, sum, quote.Subtotal, 0.001)
	assert.Equal(t, 599.97, quote.Subtotal)
}

func TestCalculate_FreeShippingThreshold(t *testing.T) {
	calc := newTestCalculator()
	products := []domain.Product{
		{ID: "a", Price: map[string]float64{"x": 999}},
		{ID: "b", Price: map[string]float64{"x": 998.99}},
	}

	quote, err := calc.Calculate([]domain.CartLineItem{{ProductID: "a", Size: "x", Quantity: 1}}, products, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, quote.Shipping)

	quote, err = calc.Calculate([]domain.CartLineItem{{ProductID: "b", Size: "x", Quantity: 1}}, products, nil)
	require.NoError(t, err)
	assert.Equal(t, 79.0, quote.Shipping)
}

func TestCalculate_OffersStackAndSkip(t *testing.T) {
	calc := newTestCalculator()
	offers := []domain.Offer{
		{ID: "pct10", Type: domain.OfferTypePercentage, Value: 10, Active: true},
		{ID: "flat100", Type: domain.OfferTypeFlat, Value: 100, Active: true, Conditions: domain.OfferConditions{MinSubtotal: 1000}},
		{ID: "off", Type: domain.OfferTypeFlat, Value: 500, Active: false},
		{ID: "big", Type: domain.OfferTypeFlat, Value: 1000, Active: true, Conditions: domain.OfferConditions{MinSubtotal: 5000}},
	}

	quote, err := calc.Calculate([]domain.CartLineItem{{ProductID: "poster-1", Size: "L", Quantity: 3}}, testProducts(), offers)
	require.NoError(t, err)

	assert.Equal(t, 1350.0, quote.Subtotal)
	assert.Equal(t, 235.0, quote.Discount)
	assert.Equal(t, 0.0, quote.Shipping)
	assert.Equal(t, 1115.0, quote.Total)
	require.Len(t, quote.AppliedOffers, 2)
	assert.Equal(t, "pct10", quote.AppliedOffers[0].ID)
	assert.Equal(t, 135.0, quote.AppliedOffers[0].Amount)
	assert.Equal(t, "flat100", quote.AppliedOffers[1].ID)
}

func TestCalculate_TotalClampedAtZero(t *testing.T) {
	calc := newTestCalculator()
	offers := []domain.Offer{{ID: "huge", Type: domain.OfferTypeFlat, Value: 5000, Active: true}}

	quote, err := calc.Calculate([]domain.CartLineItem{{ProductID: "poster-1", Size: "M", Quantity: 1}}, testProducts(), offers)
	require.NoError(t, err)

	assert.Equal(t, 5000.0, quote.Discount)
	assert.Equal(t, 0.0, quote.Total)
}

func TestCalculate_Errors(t *testing.T) {
	calc := newTestCalculator()

	tests := []struct {
		name string
		item domain.CartLineItem
		want error
	}{
		{"unknown product", domain.CartLineItem{ProductID: "nope", Size: "M", Quantity: 1}, domain.ErrInvalidProduct},
		{"unknown size", domain.CartLineItem{ProductID: "poster-1", Size: "XXL", Quantity: 1}, domain.ErrInvalidSize},
		{"zero quantity", domain.CartLineItem{ProductID: "poster-1", Size: "M", Quantity: 0}, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := calc.Calculate([]domain.CartLineItem{tt.item}, testProducts(), nil)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Nil(t, quote)
		})
	}
}

func TestNewCalculator_DefaultCurrency(t *testing.T) {
	calc := NewCalculator(Config{Currency: ""})
	quote, err := calc.Calculate(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultCurrency, quote.Currency)
	assert.Empty(t, quote.Items)
}
