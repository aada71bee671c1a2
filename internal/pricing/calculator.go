// Package pricing turns cart lines into priced order lines and totals.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_storefront/internal/domain"
)

const (
	DefaultShippingFee           = 79
	DefaultFreeShippingThreshold = 999
	DefaultCurrency              = "INR"
)

type Config struct {
	ShippingFee           float64
	FreeShippingThreshold float64
	Currency              string
}

type Quote struct {
	Items         []domain.LineItem     `json:"items"`
	Subtotal      float64               `json:"subtotal"`
	Discount      float64               `json:"discount"`
	Shipping      float64               `json:"shipping"`
	Total         float64               `json:"total"`
	Currency      string                `json:"currency"`
	AppliedOffers []domain.AppliedOffer `json:"applied_offers"`
}

type Calculator struct {
	shippingFee   decimal.Decimal
	freeThreshold decimal.Decimal
	currency      string
}

func NewCalculator(cfg Config) *Calculator {
	currency := cfg.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Calculator{
		shippingFee:   decimal.NewFromFloat(cfg.ShippingFee),
		freeThreshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
		currency:      currency,
	}
}

// Calculate prices items against the catalog and applies every qualifying offer.
// Offers stack additively; the total never drops below zero.
func (c *Calculator) Calculate(items []domain.CartLineItem, products []domain.Product, offers []domain.Offer) (*Quote, error) {
	catalog := make(map[string]domain.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	quote := &Quote{
		Items:         make([]domain.LineItem, 0, len(items)),
		AppliedOffers: []domain.AppliedOffer{},
		Currency:      c.currency,
	}

	subtotal := decimal.Zero
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, domain.NewValidationError("quantity", fmt.Sprintf("must be at least 1 for product %s", item.ProductID))
		}
		product, ok := catalog[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProduct, item.ProductID)
		}
		price, ok := product.PriceFor(item.Size)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no size %q", domain.ErrInvalidSize, item.ProductID, item.Size)
		}

		unit := decimal.NewFromFloat(price)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		quote.Items = append(quote.Items, domain.LineItem{
			ProductID:     product.ID,
			Title:         product.Title,
			Type:          product.Type,
			Size:          item.Size,
			Quantity:      item.Quantity,
			UnitPrice:     money(unit),
			LineTotal:     money(lineTotal),
			CustomArtwork: item.CustomArtwork,
		})
	}

	subtotalF := money(subtotal)
	discount := decimal.Zero
	for _, offer := range offers {
		if !offer.Qualifies(subtotalF) {
			continue
		}
		amount := offerAmount(offer, subtotal)
		discount = discount.Add(amount)
		quote.AppliedOffers = append(quote.AppliedOffers, domain.AppliedOffer{
			ID:     offer.ID,
			Title:  offer.Title,
			Type:   offer.Type,
			Value:  offer.Value,
			Amount: money(amount),
		})
	}

	shipping := c.shippingFee
	if subtotal.GreaterThanOrEqual(c.freeThreshold) {
		shipping = decimal.Zero
	}

	total := subtotal.Sub(discount).Add(shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}

	quote.Subtotal = subtotalF
	quote.Discount = money(discount)
	quote.Shipping = money(shipping)
	quote.Total = money(total)
	return quote, nil
}

func offerAmount(offer domain.Offer, subtotal decimal.Decimal) decimal.Decimal {
	value := decimal.NewFromFloat(offer.Value)
	switch offer.Type {
	case domain.OfferTypePercentage:
		return subtotal.Mul(value).Div(decimal.NewFromInt(100))
	case domain.OfferTypeFlat:
		return value
	default:
		return decimal.Zero
	}
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
