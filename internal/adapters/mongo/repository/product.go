package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mzawadzki/storekeeper/internal/adapters/mongo/document"
	"github.com/mzawadzki/storekeeper/internal/core/domain"
	"github.com/mzawadzki/storekeeper/internal/core/logger"
	"github.com/mzawadzki/storekeeper/internal/core/port"
	"github.com/mzawadzki/storekeeper/internal/core/serviceerrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) port.CatalogPort {
	repo := &ProductRepository{collection: db.Collection("products")}

	if err := repo.createIndexes(context.Background()); err != nil {
		logger.Error(context.Background(), "failed to create indexes", err, map[string]any{
			"collection": "products",
		})
	}

	return repo
}

func (r *ProductRepository) createIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *ProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	var doc document.ProductDocument
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, parseError(err)
	}
	return doc.ToDomain(), nil
}

func (r *ProductRepository) GetAll(ctx context.Context) ([]*domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, parseError(err)
	}
	defer cursor.Close(ctx)

	var docs []document.ProductDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, parseError(err)
	}

	products := make([]*domain.Product, len(docs))
	for i := range docs {
		products[i] = docs[i].ToDomain()
	}

	return products, nil
}

// Restock is a single upsert: the supplied unit price overwrites the stored
// one and the count is added to the stock. A new name creates the product.
func (r *ProductRepository) Restock(ctx context.Context, name string, price domain.Amount, count int) error {
	now := time.Now()
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{
			"$set":         bson.M{"price": price.Cents(), "updated_at": now},
			"$inc":         bson.M{"stock": count},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return parseError(err)
}

// DeductStock matches only while enough stock remains, so the count can
// never go negative even if a concurrent writer slips between the service's
// availability check and this update.
func (r *ProductRepository) DeductStock(ctx context.Context, name string, count int) error {
	result := r.collection.FindOneAndUpdate(ctx,
		bson.M{"name": name, "stock": bson.M{"$gte": count}},
		bson.M{
			"$inc": bson.M{"stock": -count},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return serviceerrors.NewInsufficientStockError(fmt.Sprintf("insufficient stock for product %q", name))
		}
		return result.Err()
	}

	return nil
}
