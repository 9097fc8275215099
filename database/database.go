package database

import (
	"fmt"
	"os"
	"strconv"

	"pitfloor/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var DB *gorm.DB

func Connect() *gorm.DB {
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	name := os.Getenv("DB_NAME")
	sslmode := os.Getenv("DB_SSLMODE")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, pass, name, port, sslmode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	DB = db
	log.Info().Str("host", host).Str("db", name).Msg("connected to database")

	autoMigrateEnv := os.Getenv("DB_AUTO_MIGRATE")
	autoMigrate, err := strconv.ParseBool(autoMigrateEnv)
	if err != nil && autoMigrateEnv != "" {
		log.Warn().Str("value", autoMigrateEnv).Msg("invalid DB_AUTO_MIGRATE")
	}

	if autoMigrate {
		if err := Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("failed to auto-migrate database")
		}
		log.Info().Msg("auto migration completed")
	}

	return db
}

// Migrate creates or updates the schema for every entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Player{},
		&models.Staff{},
		&models.GamingTable{},
		&models.Visit{},
		&models.RatingSlip{},
		&models.SeatOccupancy{},
		&models.LoyaltyLedgerEntry{},
	)
}

// Locked adds a FOR UPDATE row lock on dialects that have one. The
// sqlite test dialect is single-writer and rejects the clause.
func Locked(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
