package mongo

import (
	"context"

	"github.com/mzawadzki/storekeeper/internal/core/port"
	"go.mongodb.org/mongo-driver/mongo"
)

// TransactionManager runs a callback inside one mongo session so a store
// operation either fully commits or leaves no trace.
type TransactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) port.TransactionManager {
	return &TransactionManager{client: client}
}

func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := tm.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})

	return err
}
