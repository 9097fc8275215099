package loyalty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pitfloor/database"
	"pitfloor/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tier thresholds on lifetime point balance.
var tierFloors = []struct {
	name  string
	floor int64
}{
	{"PLATINUM", 200_000},
	{"GOLD", 50_000},
	{"SILVER", 10_000},
	{"BRONZE", 0},
}

func TierFor(balance int64) string {
	for _, t := range tierFloors {
		if balance >= t.floor {
			return t.name
		}
	}
	return "BRONZE"
}

type Service struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{db: db, log: log.With().Str("component", "loyalty").Logger()}
}

// AccrueFromSlip posts gameplay points for a closed slip. The write is
// collapsed by the unique idempotency key on the ledger: a duplicate
// insert, whether from a retry or a racing recovery, surfaces as a
// key conflict and the original entry is returned instead.
func (s *Service) AccrueFromSlip(ctx context.Context, req AccrualRequest) (*AccrualResult, error) {
	if req.PlayerID == 0 || req.RatingSlipID == 0 || req.IdempotencyKey == "" {
		return nil, ErrInvalidRequest
	}
	if req.AverageBet.IsNegative() || req.DurationSeconds < 0 {
		return nil, ErrInvalidRequest
	}

	if existing, err := s.findByKey(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return duplicateResult(existing), nil
	}

	points := computePoints(req.AverageBet, req.DurationSeconds, req.GameSettings)

	var result *AccrualResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var player models.Player
		if err := database.Locked(tx).First(&player, req.PlayerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlayerNotFound
			}
			return err
		}

		before := player.PointsBalance
		after := before + points
		slipID := req.RatingSlipID

		entry := models.LoyaltyLedgerEntry{
			PlayerID:        player.ID,
			RatingSlipID:    &slipID,
			TransactionType: models.TrxTypeGameplay,
			PointsChange:    points,
			BalanceBefore:   before,
			BalanceAfter:    after,
			TierBefore:      player.Tier,
			TierAfter:       TierFor(after),
			IdempotencyKey:  req.IdempotencyKey,
			CorrelationID:   req.CorrelationID,
			Note:            fmt.Sprintf("gameplay accrual slip %d", slipID),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		player.PointsBalance = after
		player.Tier = entry.TierAfter
		if err := tx.Save(&player).Error; err != nil {
			return err
		}

		result = &AccrualResult{
			PointsEarned: points,
			NewBalance:   after,
			Tier:         entry.TierAfter,
			Entry:        &entry,
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race against another attempt with the same key.
		existing, ferr := s.findByKey(ctx, req.IdempotencyKey)
		if ferr != nil || existing == nil {
			return nil, fmt.Errorf("accrual conflict on key but entry not readable: %w", err)
		}
		return duplicateResult(existing), nil
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("player_id", req.PlayerID).
		Uint("rating_slip_id", req.RatingSlipID).
		Int64("points", result.PointsEarned).
		Str("correlation_id", req.CorrelationID).
		Msg("gameplay points accrued")
	return result, nil
}

// FindGameplayEntry returns the gameplay posting for a slip, or nil
// when none exists.
func (s *Service) FindGameplayEntry(ctx context.Context, ratingSlipID uint) (*models.LoyaltyLedgerEntry, error) {
	var entry models.LoyaltyLedgerEntry
	err := s.db.WithContext(ctx).
		Where("rating_slip_id = ? AND transaction_type = ?", ratingSlipID, models.TrxTypeGameplay).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Service) findByKey(ctx context.Context, key string) (*models.LoyaltyLedgerEntry, error) {
	var entry models.LoyaltyLedgerEntry
	err := s.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func duplicateResult(entry *models.LoyaltyLedgerEntry) *AccrualResult {
	return &AccrualResult{
		PointsEarned: entry.PointsChange,
		NewBalance:   entry.BalanceAfter,
		Tier:         entry.TierAfter,
		Entry:        entry,
		Duplicate:    true,
	}
}

// computePoints is a theoretical-win style formula: average bet times
// hours played times the table's point multiplier. The multiplier
// rides in the game-settings snapshot taken when the slip opened, so
// later table reconfiguration cannot change an accrual.
func computePoints(averageBet decimal.Decimal, durationSeconds int64, settings []byte) int64 {
	multiplier := decimal.NewFromInt(1)
	if len(settings) > 0 {
		var parsed struct {
			PointMultiplier *float64 `json:"point_multiplier"`
		}
		if err := json.Unmarshal(settings, &parsed); err == nil && parsed.PointMultiplier != nil && *parsed.PointMultiplier > 0 {
			multiplier = decimal.NewFromFloat(*parsed.PointMultiplier)
		}
	}

	hours := decimal.NewFromInt(durationSeconds).Div(decimal.NewFromInt(3600))
	return averageBet.Mul(hours).Mul(multiplier).IntPart()
}
