package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pitfloor/database"
	"pitfloor/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LifecycleService owns the rating-slip state machine:
// open -> paused <-> open -> closed, with closed terminal. It only
// validates transition legality; seat exclusivity is enforced by the
// seat_occupancies unique index it writes through.
type LifecycleService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewLifecycleService(db *gorm.DB, log zerolog.Logger) *LifecycleService {
	return &LifecycleService{db: db, log: log.With().Str("component", "lifecycle").Logger()}
}

type StartParams struct {
	VisitID      uint
	TableID      uint
	SeatNumber   *int
	AverageBet   decimal.Decimal
	GameSettings datatypes.JSON
}

// Start opens a new slip. Fails SEAT_OCCUPIED when another open or
// paused slip already holds the same table+seat.
func (s *LifecycleService) Start(ctx context.Context, p StartParams) (*models.RatingSlip, error) {
	if p.VisitID == 0 || p.TableID == 0 {
		return nil, fmt.Errorf("%w: visit and table required", ErrValidation)
	}
	if p.AverageBet.IsNegative() {
		return nil, fmt.Errorf("%w: average bet must not be negative", ErrValidation)
	}

	var slip models.RatingSlip
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var visit models.Visit
		if err := tx.First(&visit, p.VisitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: visit %d not found", ErrValidation, p.VisitID)
			}
			return err
		}

		table, err := loadTable(tx, p.TableID)
		if err != nil {
			return err
		}
		if p.SeatNumber != nil && (*p.SeatNumber < 1 || *p.SeatNumber > table.SeatCount) {
			return fmt.Errorf("%w: seat %d out of range for table %s", ErrValidation, *p.SeatNumber, table.TableCode)
		}

		if p.SeatNumber != nil {
			if err := checkSeatFree(tx, p.TableID, *p.SeatNumber); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		slip = models.RatingSlip{
			VisitID:       p.VisitID,
			TableID:       p.TableID,
			SeatNumber:    p.SeatNumber,
			Status:        models.SlipStatusOpen,
			AverageBet:    p.AverageBet,
			GameSettings:  p.GameSettings,
			OpenedAt:      now,
			LastStartedAt: &now,
		}
		if err := tx.Create(&slip).Error; err != nil {
			return err
		}

		if p.SeatNumber != nil {
			return claimSeat(tx, p.TableID, *p.SeatNumber, slip.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint("slip_id", slip.ID).Uint("table_id", p.TableID).Msg("rating slip started")
	return &slip, nil
}

// Pause freezes elapsed-time accrual. Legal only from open.
func (s *LifecycleService) Pause(ctx context.Context, slipID uint) (*models.RatingSlip, error) {
	return s.transition(ctx, slipID, models.SlipStatusOpen, func(slip *models.RatingSlip, now time.Time) map[string]interface{} {
		return map[string]interface{}{
			"status":              models.SlipStatusPaused,
			"accumulated_seconds": slip.TotalSeconds(now),
			"last_started_at":     nil,
		}
	})
}

// Resume restarts elapsed-time accrual. Legal only from paused.
func (s *LifecycleService) Resume(ctx context.Context, slipID uint) (*models.RatingSlip, error) {
	return s.transition(ctx, slipID, models.SlipStatusPaused, func(slip *models.RatingSlip, now time.Time) map[string]interface{} {
		return map[string]interface{}{
			"status":          models.SlipStatusOpen,
			"last_started_at": now,
		}
	})
}

// Close ends the session from open or paused. Closing an already
// closed slip returns it unchanged so upstream retries are harmless;
// rejecting re-entry into the completion saga is the saga's job, not
// this primitive's.
func (s *LifecycleService) Close(ctx context.Context, slipID uint, finalAverageBet *decimal.Decimal) (*models.RatingSlip, error) {
	var out *models.RatingSlip
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slip, err := lockSlip(tx, slipID)
		if err != nil {
			return err
		}
		if slip.Status == models.SlipStatusClosed {
			out = slip
			return nil
		}
		if err := closeInTx(tx, slip, finalAverageBet, time.Now().UTC()); err != nil {
			return err
		}
		out = slip
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint("slip_id", slipID).Msg("rating slip closed")
	return out, nil
}

func (s *LifecycleService) GetByID(ctx context.Context, slipID uint) (*models.RatingSlip, error) {
	var slip models.RatingSlip
	if err := s.db.WithContext(ctx).First(&slip, slipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRatingSlipNotFound
		}
		return nil, err
	}
	return &slip, nil
}

// FindActiveByTableSeat lists open/paused slips holding a seat.
func (s *LifecycleService) FindActiveByTableSeat(ctx context.Context, tableID uint, seatNumber int) ([]models.RatingSlip, error) {
	var slips []models.RatingSlip
	err := s.db.WithContext(ctx).
		Where("table_id = ? AND seat_number = ? AND status IN ?",
			tableID, seatNumber, []string{models.SlipStatusOpen, models.SlipStatusPaused}).
		Find(&slips).Error
	return slips, err
}

func (s *LifecycleService) transition(
	ctx context.Context,
	slipID uint,
	fromStatus string,
	fields func(slip *models.RatingSlip, now time.Time) map[string]interface{},
) (*models.RatingSlip, error) {
	var out models.RatingSlip
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slip, err := lockSlip(tx, slipID)
		if err != nil {
			return err
		}
		if slip.Status == models.SlipStatusClosed {
			return ErrRatingSlipClosed
		}
		if slip.Status != fromStatus {
			return fmt.Errorf("%w: cannot transition from %s", ErrInvalidState, slip.Status)
		}

		// Guarded update: a racing transition between the read and the
		// write leaves RowsAffected at zero instead of clobbering it.
		res := tx.Model(&models.RatingSlip{}).
			Where("id = ? AND status = ?", slipID, fromStatus).
			Updates(fields(slip, time.Now().UTC()))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}
		return tx.First(&out, slipID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// lockSlip loads a slip under a row lock.
func lockSlip(tx *gorm.DB, slipID uint) (*models.RatingSlip, error) {
	var slip models.RatingSlip
	if err := database.Locked(tx).First(&slip, slipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRatingSlipNotFound
		}
		return nil, err
	}
	return &slip, nil
}

func loadTable(tx *gorm.DB, tableID uint) (*models.GamingTable, error) {
	var table models.GamingTable
	if err := tx.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: table %d not found", ErrValidation, tableID)
		}
		return nil, err
	}
	if !table.IsActive {
		return nil, fmt.Errorf("%w: table %s is not active", ErrValidation, table.TableCode)
	}
	return &table, nil
}

func checkSeatFree(tx *gorm.DB, tableID uint, seatNumber int) error {
	var count int64
	if err := tx.Model(&models.SeatOccupancy{}).
		Where("table_id = ? AND seat_number = ?", tableID, seatNumber).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrSeatOccupied
	}
	return nil
}

// claimSeat inserts the occupancy row. The unique (table, seat) index
// is the race backstop: when two writers pass the pre-check together,
// the second insert comes back as a duplicate-key conflict.
func claimSeat(tx *gorm.DB, tableID uint, seatNumber int, slipID uint) error {
	occ := models.SeatOccupancy{TableID: tableID, SeatNumber: seatNumber, RatingSlipID: slipID}
	if err := tx.Create(&occ).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSeatOccupied
		}
		return err
	}
	return nil
}

// closeInTx performs the guarded close inside an open transaction and
// mirrors the result onto the struct. Shared with the move engine so a
// move's close+create commits or rolls back as one unit.
func closeInTx(tx *gorm.DB, slip *models.RatingSlip, finalAverageBet *decimal.Decimal, now time.Time) error {
	total := slip.TotalSeconds(now)
	fields := map[string]interface{}{
		"status":              models.SlipStatusClosed,
		"accumulated_seconds": total,
		"last_started_at":     nil,
		"closed_at":           now,
	}
	if finalAverageBet != nil {
		if finalAverageBet.IsNegative() {
			return fmt.Errorf("%w: average bet must not be negative", ErrValidation)
		}
		fields["average_bet"] = *finalAverageBet
	}

	res := tx.Model(&models.RatingSlip{}).
		Where("id = ? AND status IN ?", slip.ID, []string{models.SlipStatusOpen, models.SlipStatusPaused}).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidState
	}

	if err := tx.Where("rating_slip_id = ?", slip.ID).Delete(&models.SeatOccupancy{}).Error; err != nil {
		return err
	}

	slip.Status = models.SlipStatusClosed
	slip.AccumulatedSeconds = total
	slip.LastStartedAt = nil
	slip.ClosedAt = &now
	if finalAverageBet != nil {
		slip.AverageBet = *finalAverageBet
	}
	return nil
}
