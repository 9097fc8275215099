package loyalty

import (
	"context"
	"errors"

	"pitfloor/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var (
	ErrPlayerNotFound = errors.New("PLAYER_NOT_FOUND")
	ErrInvalidRequest = errors.New("VALIDATION_ERROR")
)

// AccrualRequest carries everything the points formula needs. The
// idempotency key is derived by the caller; this package only honors
// it as the dedupe token.
type AccrualRequest struct {
	PlayerID        uint
	RatingSlipID    uint
	AverageBet      decimal.Decimal
	DurationSeconds int64
	GameSettings    datatypes.JSON
	IdempotencyKey  string
	CorrelationID   string
}

type AccrualResult struct {
	PointsEarned int64
	NewBalance   int64
	Tier         string
	Entry        *models.LoyaltyLedgerEntry

	// Duplicate is set when the request collapsed onto an entry written
	// by an earlier attempt with the same key.
	Duplicate bool
}

// Accruer posts gameplay points for a closed rating slip. It must be
// idempotent on the request key: retried calls return the original
// ledger entry instead of writing a second one.
type Accruer interface {
	AccrueFromSlip(ctx context.Context, req AccrualRequest) (*AccrualResult, error)
}

// LedgerReader answers whether a gameplay accrual already landed for a
// slip. Saga recovery checks this before re-attempting the accrual.
type LedgerReader interface {
	FindGameplayEntry(ctx context.Context, ratingSlipID uint) (*models.LoyaltyLedgerEntry, error)
}
