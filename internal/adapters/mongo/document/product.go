package document

import (
	"time"

	"github.com/mzawadzki/storekeeper/internal/core/domain"
)

type ProductDocument struct {
	Name      string    `bson:"name"`
	Price     int64     `bson:"price"`
	Stock     int       `bson:"stock"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (doc *ProductDocument) ToDomain() *domain.Product {
	return &domain.Product{
		Name:      doc.Name,
		Price:     domain.Amount(doc.Price),
		Stock:     doc.Stock,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
