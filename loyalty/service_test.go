package loyalty

import (
	"context"
	"testing"
	"time"

	"pitfloor/database"
	"pitfloor/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
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

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func seedPlayer(t *testing.T, db *gorm.DB, balance int64) models.Player {
	t.Helper()
	player := models.Player{
		PlayerCode:    "P-2001",
		Name:          "Miguel Obrador",
		PointsBalance: balance,
		Tier:          TierFor(balance),
		IsActive:      true,
	}
	require.NoError(t, db.Create(&player).Error)
	return player
}

func gameplayRequest(playerID uint, key string) AccrualRequest {
	return AccrualRequest{
		PlayerID:        playerID,
		RatingSlipID:    11,
		AverageBet:      decimal.NewFromInt(50),
		DurationSeconds: 3600,
		IdempotencyKey:  key,
		CorrelationID:   "corr-1",
	}
}

func TestAccrueFromSlip_PostsAndUpdatesPlayer(t *testing.T) {
	db := openTestDB(t)
	player := seedPlayer(t, db, 100)
	svc := NewService(db, zerolog.Nop())

	res, err := svc.AccrueFromSlip(context.Background(), gameplayRequest(player.ID, "key-a"))
	require.NoError(t, err)

	// 50 average bet for one hour at the default multiplier.
	assert.EqualValues(t, 50, res.PointsEarned)
	assert.EqualValues(t, 150, res.NewBalance)
	assert.False(t, res.Duplicate)

	require.NotNil(t, res.Entry)
	assert.EqualValues(t, 100, res.Entry.BalanceBefore)
	assert.EqualValues(t, 150, res.Entry.BalanceAfter)
	assert.Equal(t, models.TrxTypeGameplay, res.Entry.TransactionType)
	assert.Equal(t, "corr-1", res.Entry.CorrelationID)

	var got models.Player
	require.NoError(t, db.First(&got, player.ID).Error)
	assert.EqualValues(t, 150, got.PointsBalance)
}

func TestAccrueFromSlip_IdempotentOnKey(t *testing.T) {
	db := openTestDB(t)
	player := seedPlayer(t, db, 0)
	svc := NewService(db, zerolog.Nop())

	first, err := svc.AccrueFromSlip(context.Background(), gameplayRequest(player.ID, "key-b"))
	require.NoError(t, err)

	second, err := svc.AccrueFromSlip(context.Background(), gameplayRequest(player.ID, "key-b"))
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.PointsEarned, second.PointsEarned)
	assert.Equal(t, first.NewBalance, second.NewBalance)

	var count int64
	require.NoError(t, db.Model(&models.LoyaltyLedgerEntry{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var got models.Player
	require.NoError(t, db.First(&got, player.ID).Error)
	assert.Equal(t, first.NewBalance, got.PointsBalance, "duplicate must not move the balance")
}

func TestAccrueFromSlip_MultiplierFromGameSettings(t *testing.T) {
	db := openTestDB(t)
	player := seedPlayer(t, db, 0)
	svc := NewService(db, zerolog.Nop())

	req := gameplayRequest(player.ID, "key-c")
	req.DurationSeconds = 1800
	req.GameSettings = datatypes.JSON([]byte(`{"point_multiplier": 2.0, "house_edge": 0.02}`))

	res, err := svc.AccrueFromSlip(context.Background(), req)
	require.NoError(t, err)
	// 50 bet, half an hour, x2.
	assert.EqualValues(t, 50, res.PointsEarned)
}

func TestAccrueFromSlip_Validation(t *testing.T) {
	db := openTestDB(t)
	player := seedPlayer(t, db, 0)
	svc := NewService(db, zerolog.Nop())

	req := gameplayRequest(player.ID, "")
	_, err := svc.AccrueFromSlip(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = gameplayRequest(player.ID, "key-d")
	req.AverageBet = decimal.NewFromInt(-5)
	_, err = svc.AccrueFromSlip(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = gameplayRequest(9999, "key-e")
	_, err = svc.AccrueFromSlip(context.Background(), req)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestAccrueFromSlip_TierUpgrade(t *testing.T) {
	db := openTestDB(t)
	player := seedPlayer(t, db, 9_990)
	svc := NewService(db, zerolog.Nop())

	res, err := svc.AccrueFromSlip(context.Background(), gameplayRequest(player.ID, "key-f"))
	require.NoError(t, err)

	assert.Equal(t, "SILVER", res.Tier)
	assert.Equal(t, "BRONZE", res.Entry.TierBefore)
	assert.Equal(t, "SILVER", res.Entry.TierAfter)
}

func TestFindGameplayEntry(t *testing.T) {
	db := openTestDB(t)
	player := seedPlayer(t, db, 0)
	svc := NewService(db, zerolog.Nop())

	entry, err := svc.FindGameplayEntry(context.Background(), 11)
	require.NoError(t, err)
	assert.Nil(t, entry)

	_, err = svc.AccrueFromSlip(context.Background(), gameplayRequest(player.ID, "key-g"))
	require.NoError(t, err)

	entry, err = svc.FindGameplayEntry(context.Background(), 11)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.TrxTypeGameplay, entry.TransactionType)
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, "BRONZE", TierFor(0))
	assert.Equal(t, "BRONZE", TierFor(9_999))
	assert.Equal(t, "SILVER", TierFor(10_000))
	assert.Equal(t, "GOLD", TierFor(50_000))
	assert.Equal(t, "PLATINUM", TierFor(200_000))
}

func TestManualBonus_IdempotentPerSequence(t *testing.T) {
	db := openTestDB(t)
	player := seedPlayer(t, db, 0)
	svc := NewService(db, zerolog.Nop())

	req := ManualBonusRequest{
		PlayerID:       player.ID,
		ActorID:        3,
		Points:         500,
		Note:           "birthday comp",
		IdempotencyKey: "manual-key-1",
	}
	first, err := svc.ManualBonus(context.Background(), req)
	require.NoError(t, err)
	assert.EqualValues(t, 500, first.PointsEarned)

	// Double submission of the same form collapses.
	second, err := svc.ManualBonus(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	// A distinct sequence gets a distinct key and posts again.
	req.IdempotencyKey = "manual-key-2"
	third, err := svc.ManualBonus(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, third.Duplicate)
	assert.EqualValues(t, 1000, third.NewBalance)
}

func TestMemoryRateLimiter(t *testing.T) {
	limiter := NewMemoryRateLimiter()

	assert.True(t, limiter.CheckAndConsume("bonus:3:7", time.Minute))
	assert.False(t, limiter.CheckAndConsume("bonus:3:7", time.Minute))
	assert.True(t, limiter.CheckAndConsume("bonus:3:8", time.Minute), "different key is unaffected")

	assert.True(t, limiter.CheckAndConsume("fast", time.Nanosecond))
	time.Sleep(2 * time.Nanosecond)
	assert.True(t, limiter.CheckAndConsume("fast", time.Nanosecond), "window expiry frees the key")
}
