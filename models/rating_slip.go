package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SlipStatusOpen   = "open"
	SlipStatusPaused = "paused"
	SlipStatusClosed = "closed"
)

// RatingSlip is one player's timed presence at a table/seat. A slip is
// never physically deleted; closed slips are retained for audit.
type RatingSlip struct {
	gorm.Model

	VisitID uint  `gorm:"index;not null" json:"visit_id"`
	Visit   Visit `json:"-"`

	TableID    uint `gorm:"index" json:"table_id"`
	SeatNumber *int `json:"seat_number,omitempty"`

	Status string `gorm:"size:8;index;default:open" json:"status"`

	AverageBet decimal.Decimal `gorm:"type:numeric(12,2)" json:"average_bet"`

	// AccumulatedSeconds holds the chain total folded up to the start of
	// the current segment. The live segment is tracked by LastStartedAt
	// and folded in on pause/close/move.
	AccumulatedSeconds int64      `json:"accumulated_seconds"`
	LastStartedAt      *time.Time `json:"-"`

	// MoveGroupID links every slip produced by successive moves of one
	// continuous session. Minted by the first move, inherited afterwards.
	MoveGroupID    *string `gorm:"size:36;index" json:"move_group_id,omitempty"`
	PreviousSlipID *uint   `gorm:"index" json:"previous_slip_id,omitempty"`

	GameSettings datatypes.JSON `json:"game_settings,omitempty"`

	OpenedAt time.Time  `json:"opened_at"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`
}

// IsActive reports whether the slip still holds its seat.
func (s RatingSlip) IsActive() bool {
	return s.Status == SlipStatusOpen || s.Status == SlipStatusPaused
}

// TotalSeconds returns the chain total including the live segment.
func (s RatingSlip) TotalSeconds(now time.Time) int64 {
	total := s.AccumulatedSeconds
	if s.Status == SlipStatusOpen && s.LastStartedAt != nil {
		total += int64(now.Sub(*s.LastStartedAt).Seconds())
	}
	return total
}

// SeatOccupancy is the write-time seat-exclusivity guard: one row per
// actively held (table, seat), removed when the holding slip closes or
// moves away. The unique index makes the second of two racing writers
// fail with a duplicate-key conflict. No soft delete here on purpose;
// a soft-deleted row would keep blocking the seat.
type SeatOccupancy struct {
	ID           uint      `gorm:"primarykey"`
	TableID      uint      `gorm:"uniqueIndex:ux_seat_occupancy_table_seat,priority:1"`
	SeatNumber   int       `gorm:"uniqueIndex:ux_seat_occupancy_table_seat,priority:2"`
	RatingSlipID uint      `gorm:"index"`
	CreatedAt    time.Time
}
