package models

import (
	"fmt"
)

// Product represents an affiliate product as returned by a product source.
// The engine treats it as read-only input.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"original_price,omitempty"` // 0 = not provided
	DiscountRate  float64 `json:"discount_rate,omitempty"`  // percent, 0 = not provided
	Sales         int     `json:"sales"`
	Rating        float64 `json:"rating,omitempty"` // 0-5, 0 = not provided
	ShopName      string  `json:"shop_name,omitempty"`
	FreeShipping  bool    `json:"free_shipping"`
	ImageURL      string  `json:"image_url"`
}

// Validate checks the product invariants
func (p *Product) Validate() error {
	if p.Price < 0 {
		return fmt.Errorf("product %s: price must be non-negative, got %.2f", p.ID, p.Price)
	}
	if p.DiscountRate < 0 || p.DiscountRate > 100 {
		return fmt.Errorf("product %s: discount rate must be in [0,100], got %.1f", p.ID, p.DiscountRate)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("product %s: rating must be in [0,5], got %.1f", p.ID, p.Rating)
	}
	return nil
}

// EffectiveOriginalPrice returns the pre-discount price to show on a card.
// An explicit original price wins; otherwise it is derived from the
// discount rate as price / (1 - rate/100). A rate of 100 or more would
// produce an infinite price, so it is treated as "no original price".
func (p *Product) EffectiveOriginalPrice() (float64, bool) {
	if p.OriginalPrice > p.Price {
		return p.OriginalPrice, true
	}
	if p.DiscountRate > 0 && p.DiscountRate < 100 {
		return p.Price / (1 - p.DiscountRate/100), true
	}
	return 0, false
}
