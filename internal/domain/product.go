package domain

import (
	"sort"
	"time"
)

type ProductType string

const (
	ProductTypePoster   ProductType = "poster"
	ProductTypePolaroid ProductType = "polaroid"
)

type Product struct {
	ID          string             `json:"id" validate:"omitempty,max=64"`
	Type        ProductType        `json:"type" validate:"required,oneof=poster polaroid"`
	Title       string             `json:"title" validate:"required,max=200"`
	Description string             `json:"description"`
	Price       map[string]float64 `json:"price" validate:"required,min=1,dive,keys,required,endkeys,gte=0"`
	Stock       map[string]int     `json:"stock" validate:"omitempty,dive,keys,required,endkeys,gte=0"`
	Category    string             `json:"category"`
	Tags        []string           `json:"tags"`
	Featured    bool               `json:"featured"`
	Images      []string           `json:"images,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// PriceFor returns the unit price of the given size.
func (p Product) PriceFor(size string) (float64, bool) {
	price, ok := p.Price[size]
	return price, ok
}

// MinPrice is the lowest price over all sizes, used by the catalog price filters.
func (p Product) MinPrice() float64 {
	first := true
	var lowest float64
	for _, price := range p.Price {
		if first || price < lowest {
			lowest = price
			first = false
		}
	}
	return lowest
}

// Sizes returns the size keys in a stable order.
func (p Product) Sizes() []string {
	sizes := make([]string, 0, len(p.Price))
	for size := range p.Price {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)
	return sizes
}

// NormalizeTags drops empty and duplicate tags, keeping first-seen order.
func (p *Product) NormalizeTags() {
	seen := make(map[string]struct{}, len(p.Tags))
	tags := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	p.Tags = tags
}
