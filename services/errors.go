package services

import "errors"

// Error kinds surfaced to callers. Messages double as the wire-level
// codes the HTTP layer returns, matched with errors.Is.
var (
	ErrRatingSlipNotFound = errors.New("RATING_SLIP_NOT_FOUND")
	ErrInvalidState       = errors.New("INVALID_STATE")
	ErrSeatOccupied       = errors.New("SEAT_OCCUPIED")
	ErrValidation         = errors.New("VALIDATION_ERROR")
	ErrRatingSlipClosed   = errors.New("RATING_SLIP_ALREADY_CLOSED")
	ErrInternal           = errors.New("INTERNAL_ERROR")
)
