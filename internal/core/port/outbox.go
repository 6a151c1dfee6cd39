package port

import (
	"context"

	"github.com/mzawadzki/storekeeper/internal/core/domain"
)

//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock

// OutboxPort stores an event in the same transaction as the state change it
// describes; a background handler later relays it to the broker.
type OutboxPort interface {
	Enqueue(ctx context.Context, event domain.Event) error
}
