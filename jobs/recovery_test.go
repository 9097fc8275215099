package jobs

import (
	"testing"
	"time"

	"pitfloor/database"
	"pitfloor/loyalty"
	"pitfloor/models"
	"pitfloor/services"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func sweepFixture(t *testing.T) (*gorm.DB, *services.CompletionService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	loyaltySvc := loyalty.NewService(db, zerolog.Nop())
	lifecycle := services.NewLifecycleService(db, zerolog.Nop())
	completion := services.NewCompletionService(db, lifecycle, loyaltySvc, loyaltySvc, zerolog.Nop())
	return db, completion
}

func seedClosedSlip(t *testing.T, db *gorm.DB, closedAgo time.Duration) *models.RatingSlip {
	t.Helper()

	player := models.Player{PlayerCode: "P-3001", Tier: "BRONZE", IsActive: true}
	require.NoError(t, db.Create(&player).Error)
	visit := models.Visit{PlayerID: player.ID, CheckedInAt: time.Now().UTC().Add(-2 * time.Hour)}
	require.NoError(t, db.Create(&visit).Error)
	table := models.GamingTable{TableCode: "BJ-09", GameType: "blackjack", SeatCount: 7, IsActive: true}
	require.NoError(t, db.Create(&table).Error)

	closedAt := time.Now().UTC().Add(-closedAgo)
	slip := models.RatingSlip{
		VisitID:            visit.ID,
		TableID:            table.ID,
		Status:             models.SlipStatusClosed,
		AverageBet:         decimal.NewFromInt(25),
		AccumulatedSeconds: 3600,
		OpenedAt:           closedAt.Add(-time.Hour),
		ClosedAt:           &closedAt,
	}
	require.NoError(t, db.Create(&slip).Error)
	return &slip
}

func TestSweep_RecoversAbandonedAccruals(t *testing.T) {
	db, completion := sweepFixture(t)
	slip := seedClosedSlip(t, db, 30*time.Minute)

	sweep(db, completion, zerolog.Nop(), 10*time.Minute)

	var count int64
	require.NoError(t, db.Model(&models.LoyaltyLedgerEntry{}).
		Where("rating_slip_id = ? AND transaction_type = ?", slip.ID, models.TrxTypeGameplay).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// A second sweep finds nothing left to do.
	sweep(db, completion, zerolog.Nop(), 10*time.Minute)
	require.NoError(t, db.Model(&models.LoyaltyLedgerEntry{}).
		Where("rating_slip_id = ?", slip.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSweep_RespectsGraceWindow(t *testing.T) {
	db, completion := sweepFixture(t)
	slip := seedClosedSlip(t, db, time.Minute)

	// Closed only a minute ago: still inside the grace window, likely
	// an in-flight completion, so the sweeper leaves it alone.
	sweep(db, completion, zerolog.Nop(), 10*time.Minute)

	var count int64
	require.NoError(t, db.Model(&models.LoyaltyLedgerEntry{}).
		Where("rating_slip_id = ?", slip.ID).
		Count(&count).Error)
	assert.Zero(t, count)
}
