package serviceerrors

import (
	"errors"
	"strings"
)

type ErrorKind int

const (
	KindNotFound ErrorKind = iota
	KindConflict
	KindUnprocessableEntity
	KindInvalidRequest
	KindInsufficientFunds
	KindInsufficientStock
	KindOutOfStock
)

func IsOfKind(err error, kind ErrorKind) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Kind == kind
	}
	return false
}

type ServiceError struct {
	Kind    ErrorKind
	Message string
	// Details carries the individual validation messages when the error is
	// a rejected input; empty for domain rejections.
	Details []string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: message}
}

func NewConflictError(message string) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: message}
}

func NewUnprocessableEntityError(message string) *ServiceError {
	return &ServiceError{Kind: KindUnprocessableEntity, Message: message}
}

func NewInvalidRequestError(message string) *ServiceError {
	return &ServiceError{Kind: KindInvalidRequest, Message: message}
}

func NewValidationError(messages []string) *ServiceError {
	return &ServiceError{
		Kind:    KindInvalidRequest,
		Message: strings.Join(messages, "; "),
		Details: messages,
	}
}

func NewInsufficientFundsError(message string) *ServiceError {
	return &ServiceError{Kind: KindInsufficientFunds, Message: message}
}

func NewInsufficientStockError(message string) *ServiceError {
	return &ServiceError{Kind: KindInsufficientStock, Message: message}
}

func NewOutOfStockError(message string) *ServiceError {
	return &ServiceError{Kind: KindOutOfStock, Message: message}
}
