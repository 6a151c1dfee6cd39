package port

import (
	"context"

	"github.com/mzawadzki/storekeeper/internal/core/domain"
)

//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock

type AuditPort interface {
	Append(ctx context.Context, message string) error
	GetAll(ctx context.Context) ([]*domain.Record, error)
	// GetRange returns records with startSeq <= seq <= endSeq, both bounds
	// inclusive.
	GetRange(ctx context.Context, startSeq, endSeq int64) ([]*domain.Record, error)
}
