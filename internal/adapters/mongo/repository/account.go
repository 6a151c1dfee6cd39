package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mzawadzki/storekeeper/internal/adapters/mongo/document"
	"github.com/mzawadzki/storekeeper/internal/core/domain"
	"github.com/mzawadzki/storekeeper/internal/core/port"
	"github.com/mzawadzki/storekeeper/internal/core/serviceerrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AccountRepository backs the ledger with the single account row. Every
// mutation is a guarded update whose filter carries the solvency condition,
// so the strict balance > 0 invariant holds at the storage layer no matter
// what the caller checked beforehand.
type AccountRepository struct {
	collection *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{collection: db.Collection("account")}
}

var _ port.LedgerPort = (*AccountRepository)(nil)

// EnsureSeed writes the starting balance exactly once; subsequent starts
// leave the row alone. Bootstrap fails fast if this errors.
func (r *AccountRepository) EnsureSeed(ctx context.Context, balance domain.Amount) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": document.AccountID},
		bson.M{"$setOnInsert": bson.M{"balance": balance.Cents()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to seed account: %w", err)
	}
	return nil
}

func (r *AccountRepository) Balance(ctx context.Context) (domain.Amount, error) {
	var doc document.AccountDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": document.AccountID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, serviceerrors.NewNotFoundError("account row missing; database was not seeded")
	}
	if err != nil {
		return 0, err
	}
	return domain.NewAmountFromCents(doc.Balance), nil
}

func (r *AccountRepository) Credit(ctx context.Context, amount domain.Amount) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": document.AccountID},
		bson.M{"$inc": bson.M{"balance": amount.Cents()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return serviceerrors.NewNotFoundError("account row missing; database was not seeded")
	}
	return nil
}

// Debit succeeds only while the remaining balance stays strictly positive.
func (r *AccountRepository) Debit(ctx context.Context, amount domain.Amount) error {
	return r.guardedApply(ctx, amount.Cents()*-1,
		fmt.Sprintf("insufficient funds for debit of %s", amount))
}

// Adjust applies a signed delta under the same strict rule: the resulting
// balance must remain greater than zero.
func (r *AccountRepository) Adjust(ctx context.Context, delta domain.Amount) error {
	return r.guardedApply(ctx, delta.Cents(),
		fmt.Sprintf("insufficient funds for withdrawal of %s", delta.Abs()))
}

func (r *AccountRepository) guardedApply(ctx context.Context, delta int64, rejectMessage string) error {
	result := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": document.AccountID, "balance": bson.M{"$gt": -delta}},
		bson.M{"$inc": bson.M{"balance": delta}},
	)
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return serviceerrors.NewInsufficientFundsError(rejectMessage)
		}
		return result.Err()
	}
	return nil
}
