package jobs

import (
	"context"
	"os"
	"strconv"
	"time"

	"pitfloor/correlation"
	"pitfloor/models"
	"pitfloor/services"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	defaultSweepSchedule = "@every 5m"
	sweepBatchSize       = 50
)

// StartRecoverySweeper schedules the accrual back-stop: any slip that
// closed longer than the grace window ago and still has no gameplay
// ledger entry is an abandoned partial completion, and Recover is run
// for it. Each sweep attempt mints its own correlation id since the
// original one is gone with the caller that abandoned it.
func StartRecoverySweeper(db *gorm.DB, completion *services.CompletionService, log zerolog.Logger) *cron.Cron {
	schedule := os.Getenv("RECOVERY_SWEEP_SCHEDULE")
	if schedule == "" {
		schedule = defaultSweepSchedule
	}

	graceMinutes := 10
	if v := os.Getenv("RECOVERY_GRACE_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			graceMinutes = parsed
		}
	}

	logger := log.With().Str("component", "recovery-sweeper").Logger()

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		sweep(db, completion, logger, time.Duration(graceMinutes)*time.Minute)
	}); err != nil {
		logger.Error().Err(err).Str("schedule", schedule).Msg("failed to schedule recovery sweep")
		return c
	}
	c.Start()

	logger.Info().Str("schedule", schedule).Int("grace_minutes", graceMinutes).Msg("recovery sweeper started")
	return c
}

func sweep(db *gorm.DB, completion *services.CompletionService, log zerolog.Logger, grace time.Duration) {
	cutoff := time.Now().UTC().Add(-grace)

	var slipIDs []uint
	err := db.Model(&models.RatingSlip{}).
		Where("status = ? AND closed_at < ?", models.SlipStatusClosed, cutoff).
		Where("NOT EXISTS (SELECT 1 FROM loyalty_ledger_entries e WHERE e.rating_slip_id = rating_slips.id AND e.transaction_type = ?)",
			models.TrxTypeGameplay).
		Order("closed_at ASC").
		Limit(sweepBatchSize).
		Pluck("rating_slips.id", &slipIDs).Error
	if err != nil {
		log.Error().Err(err).Msg("sweep query failed")
		return
	}
	if len(slipIDs) == 0 {
		return
	}

	log.Info().Int("count", len(slipIDs)).Msg("recovering pending accruals")
	for _, id := range slipIDs {
		corrID := correlation.NewID()
		outcome := completion.Recover(context.Background(), corrID, id)
		switch outcome.Status {
		case services.SagaCompleted:
			log.Info().Uint("slip_id", id).Str("correlation_id", corrID).Msg("accrual recovered")
		case services.SagaPartial:
			log.Warn().Uint("slip_id", id).Str("reason", outcome.Reason).Msg("accrual still pending")
		default:
			log.Error().Uint("slip_id", id).Err(outcome.Err).Msg("recovery rejected")
		}
	}
}
