package model

import "time"

// Listing is a seller's active offer of a quantity of one item type
// at a fixed total price.
type Listing struct {
	ID                int64     `json:"id"`
	SellerID          string    `json:"seller_id"`
	SellerName        string    `json:"seller_name"`
	ItemPayload       []byte    `json:"item_payload"`
	ItemNameLowercase string    `json:"item_name_lowercase"`
	PriceTotal        int64     `json:"price_total"`
	QuantityInitial   int       `json:"quantity_initial"`
	QuantityRemaining int       `json:"quantity_remaining"`
	ListedAt          time.Time `json:"listed_at"`
}

// PricePerUnit returns the integer price of a single unit.
func (l *Listing) PricePerUnit() int64 {
	if l.QuantityInitial <= 0 {
		return l.PriceTotal
	}
	return l.PriceTotal / int64(l.QuantityInitial)
}

// PriceForRemaining returns the total price of the unsold quantity.
func (l *Listing) PriceForRemaining() int64 {
	return l.PricePerUnit() * int64(l.QuantityRemaining)
}

// SoldOut reports whether no units remain.
func (l *Listing) SoldOut() bool {
	return l.QuantityRemaining <= 0
}

// SellerInfo is a distinct (seller id, display name) pair used for the
// seller-level enumeration one level above items.
type SellerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
