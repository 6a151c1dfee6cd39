package port

import (
	"context"

	"github.com/mzawadzki/storekeeper/internal/core/domain"
)

//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock

type LedgerPort interface {
	Balance(ctx context.Context) (domain.Amount, error)
	Credit(ctx context.Context, amount domain.Amount) error
	// Debit succeeds only while the remaining balance stays strictly
	// positive; otherwise it fails with an insufficient-funds error and
	// leaves the balance untouched.
	Debit(ctx context.Context, amount domain.Amount) error
	// Adjust applies a signed delta under the same strict solvency rule.
	Adjust(ctx context.Context, delta domain.Amount) error
}
