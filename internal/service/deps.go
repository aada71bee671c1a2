package service

import (
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/payment/upi"
	"github.com/fjod/go_storefront/internal/pricing"
)

type Validator interface {
	Struct(s any) error
}

type Pricer interface {
	Calculate(items []domain.CartLineItem, products []domain.Product, offers []domain.Offer) (*pricing.Quote, error)
}

type UPIGenerator interface {
	Instruction(orderID string, amount float64) (*upi.Instruction, error)
}
