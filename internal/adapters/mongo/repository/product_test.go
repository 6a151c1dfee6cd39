package repository_test

import (
	"context"
	"testing"

	"github.com/mzawadzki/storekeeper/internal/adapters/mongo/repository"
	"github.com/mzawadzki/storekeeper/internal/core/domain"
	"github.com/mzawadzki/storekeeper/internal/core/serviceerrors"
)

func TestProductRepository_Restock(t *testing.T) {
	freshDB := testClient.Database("test_product_restock")
	repo := repository.NewProductRepository(freshDB)
	ctx := context.Background()

	t.Run("creates product on first restock", func(t *testing.T) {
		err := repo.Restock(ctx, "chleb", domain.NewAmountFromCents(350), 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		product, err := repo.FindByName(ctx, "chleb")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if product == nil {
			t.Fatal("expected product, got nil")
		}
		if product.Price != domain.Amount(350) {
			t.Fatalf("expected price 350, got %d", product.Price)
		}
		if product.Stock != 10 {
			t.Fatalf("expected stock 10, got %d", product.Stock)
		}
	})

	t.Run("repeat restock adds stock and overwrites price", func(t *testing.T) {
		if err := repo.Restock(ctx, "mleko", domain.NewAmountFromCents(289), 5); err != nil {
			t.Fatalf("first restock failed: %v", err)
		}
		if err := repo.Restock(ctx, "mleko", domain.NewAmountFromCents(305), 3); err != nil {
			t.Fatalf("second restock failed: %v", err)
		}

		product, err := repo.FindByName(ctx, "mleko")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if product.Stock != 8 {
			t.Fatalf("expected stock 8, got %d", product.Stock)
		}
		if product.Price != domain.Amount(305) {
			t.Fatalf("expected price 305, got %d", product.Price)
		}
	})
}

func TestProductRepository_FindByName(t *testing.T) {
	freshDB := testClient.Database("test_product_find")
	repo := repository.NewProductRepository(freshDB)
	ctx := context.Background()

	t.Run("returns nil for unknown product", func(t *testing.T) {
		product, err := repo.FindByName(ctx, "nope")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if product != nil {
			t.Fatalf("expected nil, got %+v", product)
		}
	})
}

func TestProductRepository_GetAll(t *testing.T) {
	freshDB := testClient.Database("test_product_getall")
	repo := repository.NewProductRepository(freshDB)
	ctx := context.Background()

	t.Run("returns empty list when no products", func(t *testing.T) {
		products, err := repo.GetAll(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(products) != 0 {
			t.Fatalf("expected 0 products, got %d", len(products))
		}
	})

	t.Run("returns products sorted by name", func(t *testing.T) {
		_ = repo.Restock(ctx, "mleko", domain.NewAmountFromCents(289), 5)
		_ = repo.Restock(ctx, "chleb", domain.NewAmountFromCents(350), 10)

		products, err := repo.GetAll(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(products) != 2 {
			t.Fatalf("expected 2 products, got %d", len(products))
		}
		if products[0].Name != "chleb" || products[1].Name != "mleko" {
			t.Fatalf("expected [chleb mleko], got [%s %s]", products[0].Name, products[1].Name)
		}
	})
}

func TestProductRepository_DeductStock(t *testing.T) {
	freshDB := testClient.Database("test_product_deduct")
	repo := repository.NewProductRepository(freshDB)
	ctx := context.Background()

	t.Run("deducts when enough stock", func(t *testing.T) {
		_ = repo.Restock(ctx, "chleb", domain.NewAmountFromCents(350), 10)

		if err := repo.DeductStock(ctx, "chleb", 4); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		product, _ := repo.FindByName(ctx, "chleb")
		if product.Stock != 6 {
			t.Fatalf("expected stock 6, got %d", product.Stock)
		}
	})

	t.Run("deducts down to exactly zero", func(t *testing.T) {
		_ = repo.Restock(ctx, "ser", domain.NewAmountFromCents(1200), 3)

		if err := repo.DeductStock(ctx, "ser", 3); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		product, _ := repo.FindByName(ctx, "ser")
		if product.Stock != 0 {
			t.Fatalf("expected stock 0, got %d", product.Stock)
		}
	})

	t.Run("rejects deduction past zero", func(t *testing.T) {
		_ = repo.Restock(ctx, "maslo", domain.NewAmountFromCents(799), 2)

		err := repo.DeductStock(ctx, "maslo", 3)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !serviceerrors.IsOfKind(err, serviceerrors.KindInsufficientStock) {
			t.Fatalf("expected KindInsufficientStock, got %v", err)
		}

		product, _ := repo.FindByName(ctx, "maslo")
		if product.Stock != 2 {
			t.Fatalf("expected stock untouched at 2, got %d", product.Stock)
		}
	})

	t.Run("rejects deduction for unknown product", func(t *testing.T) {
		err := repo.DeductStock(ctx, "nope", 1)
		if !serviceerrors.IsOfKind(err, serviceerrors.KindInsufficientStock) {
			t.Fatalf("expected KindInsufficientStock, got %v", err)
		}
	})
}
