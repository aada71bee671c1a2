package domain

import "time"

// CartLineItem is one product+size+quantity entry submitted by a client.
type CartLineItem struct {
	ProductID     string `json:"product_id" validate:"required"`
	Size          string `json:"size" validate:"required"`
	Quantity      int    `json:"quantity" validate:"gte=1,lte=99"`
	CustomArtwork string `json:"custom_artwork,omitempty" validate:"omitempty,max=512"`
}

// Cart is keyed by the client's session id.
type Cart struct {
	ID        string         `json:"id"`
	Items     []CartLineItem `json:"items"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// AddItem merges the line into the cart, incrementing quantity on a matching product and size.
func (c *Cart) AddItem(item CartLineItem) {
	for i, existing := range c.Items {
		if existing.ProductID == item.ProductID && existing.Size == item.Size {
			c.Items[i].Quantity += item.Quantity
			if item.CustomArtwork != "" {
				c.Items[i].CustomArtwork = item.CustomArtwork
			}
			return
		}
	}
	c.Items = append(c.Items, item)
}

// RemoveItem drops the matching line and reports whether one was removed.
func (c *Cart) RemoveItem(productID, size string) bool {
	for i, existing := range c.Items {
		if existing.ProductID == productID && (size == "" || existing.Size == size) {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}
