package domain

import "time"

// Product is a catalog entry. Identity is the unique name; products are
// created on first restock and never deleted.
type Product struct {
	Name      string
	Price     Amount
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewProduct(name string, price Amount, stock int) *Product {
	return &Product{
		Name:      name,
		Price:     price,
		Stock:     stock,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
