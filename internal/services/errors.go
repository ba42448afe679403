package services

import "errors"

// Service-level errors, mapped onto problem documents at the transport
// layer.
var (
	// Collection trigger errors
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrUnknownSource    = errors.New("unknown collection source")

	// Operation lookup errors
	ErrOperationNotFound = errors.New("operation not found")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)
