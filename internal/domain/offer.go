package domain

type OfferType string

const (
	OfferTypePercentage OfferType = "percentage"
	OfferTypeFlat       OfferType = "flat"
)

type OfferConditions struct {
	MinSubtotal float64 `json:"min_subtotal" validate:"gte=0"`
}

type Offer struct {
	ID         string          `json:"id" validate:"omitempty,max=64"`
	Title      string          `json:"title"`
	Type       OfferType       `json:"type" validate:"required,oneof=percentage flat"`
	Value      float64         `json:"value" validate:"gt=0"`
	Active     bool            `json:"active"`
	Conditions OfferConditions `json:"conditions"`
}

// Qualifies reports whether an active offer applies to the given subtotal.
func (o Offer) Qualifies(subtotal float64) bool {
	return o.Active && subtotal >= o.Conditions.MinSubtotal
}

// AppliedOffer is the snapshot of an offer stored on a priced cart or order.
type AppliedOffer struct {
	ID     string    `json:"id"`
	Title  string    `json:"title,omitempty"`
	Type   OfferType `json:"type"`
	Value  float64   `json:"value"`
	Amount float64   `json:"amount"`
}
