package repository

import (
	"errors"

	"github.com/mzawadzki/storekeeper/internal/core/serviceerrors"
	"go.mongodb.org/mongo-driver/mongo"
)

func parseError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return serviceerrors.NewNotFoundError("entity not found")
	}
	if mongo.IsDuplicateKeyError(err) {
		return serviceerrors.NewConflictError("duplicate key error")
	}
	return err
}
