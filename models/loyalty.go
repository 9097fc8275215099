package models

import "gorm.io/gorm"

const (
	TrxTypeGameplay    = "GAMEPLAY"
	TrxTypeManualBonus = "MANUAL_BONUS"
)

// LoyaltyLedgerEntry is an append-only points posting. Entries are
// immutable once written. The unique IdempotencyKey is what collapses
// retried accruals to a single posting: the GAMEPLAY key is derived
// from the rating slip alone, so at most one gameplay entry can ever
// exist per slip.
type LoyaltyLedgerEntry struct {
	gorm.Model

	PlayerID     uint  `gorm:"index" json:"player_id"`
	RatingSlipID *uint `gorm:"index" json:"rating_slip_id,omitempty"`

	TransactionType string `gorm:"size:16;index" json:"transaction_type"`
	PointsChange    int64  `json:"points_change"`

	BalanceBefore int64  `json:"balance_before"`
	BalanceAfter  int64  `json:"balance_after"`
	TierBefore    string `gorm:"size:16" json:"tier_before"`
	TierAfter     string `gorm:"size:16" json:"tier_after"`

	IdempotencyKey string `gorm:"size:128;uniqueIndex" json:"-"`
	CorrelationID  string `gorm:"size:64;index" json:"correlation_id"`
	Note           string `gorm:"size:255" json:"note"`
}
