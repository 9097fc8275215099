package models

import "gorm.io/gorm"

type GamingTable struct {
	gorm.Model

	TableCode string `gorm:"uniqueIndex;size:16" json:"table_code"`
	PitCode   string `gorm:"index;size:16" json:"pit_code"`
	GameType  string `gorm:"size:32" json:"game_type"`
	SeatCount int    `json:"seat_count"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`
}
