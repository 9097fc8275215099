package services

import (
	"context"
	"fmt"
	"time"

	"pitfloor/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// MoveService relocates a live session to another table/seat. The
// source slip is closed and the destination slip created in one
// transaction: the player is never observably at zero or two tables.
type MoveService struct {
	db        *gorm.DB
	lifecycle *LifecycleService
	log       zerolog.Logger
}

func NewMoveService(db *gorm.DB, lifecycle *LifecycleService, log zerolog.Logger) *MoveService {
	return &MoveService{
		db:        db,
		lifecycle: lifecycle,
		log:       log.With().Str("component", "move").Logger(),
	}
}

type MoveResult struct {
	ClosedSlip *models.RatingSlip `json:"closed_slip"`
	NewSlip    *models.RatingSlip `json:"new_slip"`

	// MoveGroupID links the whole chain; AccumulatedSeconds is the
	// chain total carried onto the new slip.
	MoveGroupID        string `json:"move_group_id"`
	AccumulatedSeconds int64  `json:"accumulated_seconds"`
}

// Move closes slipID and opens its successor at the destination.
// The first move of a session mints the move group id; later moves
// inherit it. The new slip's segment timer starts at zero while its
// AccumulatedSeconds carries the chain total, so the latest slip in a
// chain always reports the whole session's duration.
func (s *MoveService) Move(ctx context.Context, actorID, slipID, destTableID uint, destSeatNumber *int) (*MoveResult, error) {
	if destTableID == 0 {
		return nil, fmt.Errorf("%w: destination table required", ErrValidation)
	}

	var result MoveResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source, err := lockSlip(tx, slipID)
		if err != nil {
			return err
		}
		if source.Status == models.SlipStatusClosed {
			return ErrRatingSlipClosed
		}

		table, err := loadTable(tx, destTableID)
		if err != nil {
			return err
		}
		if destSeatNumber != nil && (*destSeatNumber < 1 || *destSeatNumber > table.SeatCount) {
			return fmt.Errorf("%w: seat %d out of range for table %s", ErrValidation, *destSeatNumber, table.TableCode)
		}

		// Release the source seat first so a move to the same seat does
		// not collide with its own occupancy row. Rolls back with the
		// rest of the transaction if anything below fails.
		if err := tx.Where("rating_slip_id = ?", source.ID).Delete(&models.SeatOccupancy{}).Error; err != nil {
			return err
		}
		if destSeatNumber != nil {
			if err := checkSeatFree(tx, destTableID, *destSeatNumber); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		groupID := uuid.New().String()
		if source.MoveGroupID != nil {
			groupID = *source.MoveGroupID
		}
		chainTotal := source.TotalSeconds(now)

		if err := closeInTx(tx, source, nil, now); err != nil {
			return err
		}
		if source.MoveGroupID == nil {
			if err := tx.Model(&models.RatingSlip{}).
				Where("id = ?", source.ID).
				Update("move_group_id", groupID).Error; err != nil {
				return err
			}
			source.MoveGroupID = &groupID
		}

		next := models.RatingSlip{
			VisitID:            source.VisitID,
			TableID:            destTableID,
			SeatNumber:         destSeatNumber,
			Status:             models.SlipStatusOpen,
			AverageBet:         source.AverageBet,
			AccumulatedSeconds: chainTotal,
			LastStartedAt:      &now,
			MoveGroupID:        &groupID,
			PreviousSlipID:     &source.ID,
			GameSettings:       source.GameSettings,
			OpenedAt:           now,
		}
		if err := tx.Create(&next).Error; err != nil {
			return err
		}

		if destSeatNumber != nil {
			if err := claimSeat(tx, destTableID, *destSeatNumber, next.ID); err != nil {
				return err
			}
		}

		result = MoveResult{
			ClosedSlip:         source,
			NewSlip:            &next,
			MoveGroupID:        groupID,
			AccumulatedSeconds: chainTotal,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("actor_id", actorID).
		Uint("from_slip", slipID).
		Uint("to_slip", result.NewSlip.ID).
		Str("move_group_id", result.MoveGroupID).
		Msg("rating slip moved")
	return &result, nil
}
