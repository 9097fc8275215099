package services

import (
	"context"
	"testing"
	"time"

	"pitfloor/database"
	"pitfloor/loyalty"
	"pitfloor/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// Keep every query on the one connection holding the in-memory db.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

type fixtures struct {
	player models.Player
	visit  models.Visit
	tableA models.GamingTable
	tableB models.GamingTable
	tableC models.GamingTable
}

func seedFixtures(t *testing.T, db *gorm.DB) fixtures {
	t.Helper()

	f := fixtures{
		player: models.Player{PlayerCode: "P-1001", Name: "Ada Kowalski", Tier: "BRONZE", IsActive: true},
		tableA: models.GamingTable{TableCode: "BJ-01", PitCode: "PIT-1", GameType: "blackjack", SeatCount: 7, IsActive: true},
		tableB: models.GamingTable{TableCode: "BJ-02", PitCode: "PIT-1", GameType: "blackjack", SeatCount: 7, IsActive: true},
		tableC: models.GamingTable{TableCode: "RO-01", PitCode: "PIT-2", GameType: "roulette", SeatCount: 8, IsActive: true},
	}
	require.NoError(t, db.Create(&f.player).Error)
	require.NoError(t, db.Create(&f.tableA).Error)
	require.NoError(t, db.Create(&f.tableB).Error)
	require.NoError(t, db.Create(&f.tableC).Error)

	f.visit = models.Visit{PlayerID: f.player.ID, CheckedInAt: time.Now().UTC()}
	require.NoError(t, db.Create(&f.visit).Error)
	return f
}

func newLifecycle(db *gorm.DB) *LifecycleService {
	return NewLifecycleService(db, zerolog.Nop())
}

func newMove(db *gorm.DB, lc *LifecycleService) *MoveService {
	return NewMoveService(db, lc, zerolog.Nop())
}

func newCompletion(db *gorm.DB, lc *LifecycleService, accruer loyalty.Accruer, ledger loyalty.LedgerReader) *CompletionService {
	return NewCompletionService(db, lc, accruer, ledger, zerolog.Nop())
}

func intPtr(v int) *int { return &v }

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

// backdateSegment pretends the slip's live segment started secs ago.
func backdateSegment(t *testing.T, db *gorm.DB, slipID uint, secs int) {
	t.Helper()
	started := time.Now().UTC().Add(-time.Duration(secs) * time.Second)
	require.NoError(t, db.Model(&models.RatingSlip{}).
		Where("id = ?", slipID).
		Update("last_started_at", started).Error)
}

func startSlip(t *testing.T, lc *LifecycleService, f fixtures, tableID uint, seat *int) *models.RatingSlip {
	t.Helper()
	slip, err := lc.Start(context.Background(), StartParams{
		VisitID:    f.visit.ID,
		TableID:    tableID,
		SeatNumber: seat,
		AverageBet: dec("25"),
	})
	require.NoError(t, err)
	return slip
}
