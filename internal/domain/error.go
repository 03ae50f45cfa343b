package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrAlreadyExists     = errors.New("entity already exists")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnauthorized      = errors.New("caller is not an administrator")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrStoreConflict     = errors.New("concurrent write conflict")
	ErrTransientFailure  = errors.New("operation failed after retries")
	ErrDeliveryFailure   = errors.New("message delivery failed")
)
