package models

import (
	"time"

	"gorm.io/gorm"
)

type Player struct {
	gorm.Model

	PlayerCode    string `gorm:"uniqueIndex;size:32" json:"player_code"`
	Name          string `gorm:"size:128" json:"name"`
	PointsBalance int64  `json:"points_balance"`
	Tier          string `gorm:"size:16;default:BRONZE" json:"tier"`
	IsActive      bool   `gorm:"default:true" json:"is_active"`

	Visits        []Visit              `gorm:"foreignKey:PlayerID"`
	LedgerEntries []LoyaltyLedgerEntry `gorm:"foreignKey:PlayerID"`
}

// Visit is one check-in on the floor; every rating slip belongs to
// exactly one visit.
type Visit struct {
	gorm.Model

	PlayerID     uint       `gorm:"index;not null" json:"player_id"`
	Player       Player     `json:"-"`
	CheckedInAt  time.Time  `json:"checked_in_at"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
}

type Staff struct {
	gorm.Model

	StaffCode string `gorm:"uniqueIndex;size:32" json:"staff_code"`
	SecretKey string `gorm:"size:128" json:"-"`
	Name      string `gorm:"size:128" json:"name"`
	Role      string `gorm:"size:32" json:"role"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`
}
