package port

import (
	"context"

	"github.com/mzawadzki/storekeeper/internal/core/domain"
)

//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock

type CatalogPort interface {
	// FindByName returns (nil, nil) for an unknown product; absence is a
	// branch for the caller, not an error.
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	GetAll(ctx context.Context) ([]*domain.Product, error)
	// Restock creates the product on first sight; on an existing product it
	// overwrites the unit price and increments the stock count.
	Restock(ctx context.Context, name string, price domain.Amount, count int) error
	// DeductStock fails with an insufficient-stock error instead of ever
	// driving the count negative.
	DeductStock(ctx context.Context, name string, count int) error
}
