package loyalty

import (
	"context"
	"errors"
	"fmt"

	"pitfloor/database"
	"pitfloor/models"

	"gorm.io/gorm"
)

// ManualBonusRequest is a staff-issued points adjustment. The key is
// derived by the caller from (player, staff, date, sequence) so the
// same staff member can issue several distinct bonuses per day while
// a double-submitted form collapses onto one posting.
type ManualBonusRequest struct {
	PlayerID       uint
	ActorID        uint
	Points         int64
	Note           string
	IdempotencyKey string
	CorrelationID  string
}

func (s *Service) ManualBonus(ctx context.Context, req ManualBonusRequest) (*AccrualResult, error) {
	if req.PlayerID == 0 || req.ActorID == 0 || req.Points == 0 || req.IdempotencyKey == "" {
		return nil, ErrInvalidRequest
	}

	if existing, err := s.findByKey(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return duplicateResult(existing), nil
	}

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
		after := before + req.Points

		entry := models.LoyaltyLedgerEntry{
			PlayerID:        player.ID,
			TransactionType: models.TrxTypeManualBonus,
			PointsChange:    req.Points,
			BalanceBefore:   before,
			BalanceAfter:    after,
			TierBefore:      player.Tier,
			TierAfter:       TierFor(after),
			IdempotencyKey:  req.IdempotencyKey,
			CorrelationID:   req.CorrelationID,
			Note:            req.Note,
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
			PointsEarned: req.Points,
			NewBalance:   after,
			Tier:         entry.TierAfter,
			Entry:        &entry,
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, ferr := s.findByKey(ctx, req.IdempotencyKey)
		if ferr != nil || existing == nil {
			return nil, fmt.Errorf("bonus conflict on key but entry not readable: %w", err)
		}
		return duplicateResult(existing), nil
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("player_id", req.PlayerID).
		Uint("actor_id", req.ActorID).
		Int64("points", req.Points).
		Msg("manual bonus posted")
	return result, nil
}
