package services

import (
	"context"
	"errors"

	"pitfloor/loyalty"
	"pitfloor/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type SagaStatus string

const (
	SagaCompleted SagaStatus = "COMPLETED"
	SagaPartial   SagaStatus = "PARTIAL_COMPLETION"
	SagaRejected  SagaStatus = "REJECTED"
)

// SagaOutcome reports where the close+accrue saga landed. It holds no
// durable state of its own: the same answer is always reconstructible
// from the slip's status and the presence of a gameplay ledger entry.
type SagaOutcome struct {
	Status SagaStatus `json:"status"`

	Slip    *models.RatingSlip     `json:"slip,omitempty"`
	Accrual *loyalty.AccrualResult `json:"accrual,omitempty"`

	// Recovery payload, set on PARTIAL_COMPLETION.
	SlipID        uint   `json:"slip_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Reason        string `json:"reason,omitempty"`

	// Err carries the rejection kind on REJECTED.
	Err error `json:"-"`
}

// CompletionService runs the two-step completion saga: close the
// session, then accrue loyalty points. Closing is sequenced first
// because it is safe to leave committed and unsafe to reverse; the
// accrual is the step allowed to fail, since the deterministic
// gameplay key makes it retryable forever without double-crediting.
// The saga never rolls the close back.
type CompletionService struct {
	db        *gorm.DB
	lifecycle *LifecycleService
	accruer   loyalty.Accruer
	ledger    loyalty.LedgerReader
	log       zerolog.Logger
}

func NewCompletionService(
	db *gorm.DB,
	lifecycle *LifecycleService,
	accruer loyalty.Accruer,
	ledger loyalty.LedgerReader,
	log zerolog.Logger,
) *CompletionService {
	return &CompletionService{
		db:        db,
		lifecycle: lifecycle,
		accruer:   accruer,
		ledger:    ledger,
		log:       log.With().Str("component", "completion").Logger(),
	}
}

// Complete closes the slip and accrues its gameplay points.
// A slip that is already closed is rejected here even though the close
// primitive tolerates it: re-running the saga on a closed slip must go
// through Recover, which checks the ledger before re-accruing.
func (s *CompletionService) Complete(ctx context.Context, correlationID string, slipID uint) SagaOutcome {
	slip, err := s.lifecycle.GetByID(ctx, slipID)
	if err != nil {
		if errors.Is(err, ErrRatingSlipNotFound) {
			return rejected(err)
		}
		return rejected(ErrInternal)
	}
	if slip.Status == models.SlipStatusClosed {
		return rejected(ErrInvalidState)
	}

	closed, err := s.lifecycle.Close(ctx, slipID, nil)
	if err != nil {
		// Nothing committed; the whole saga is safe to retry.
		s.log.Error().Err(err).Uint("slip_id", slipID).Str("correlation_id", correlationID).
			Msg("close step failed")
		return rejected(ErrInternal)
	}

	return s.accrue(ctx, correlationID, closed)
}

// Recover re-attempts only the accrual step after a partial
// completion. Safe to call any number of times, with no knowledge of
// whether an abandoned attempt's accrual actually landed: the ledger
// lookup and the deterministic key collapse every path to one entry.
func (s *CompletionService) Recover(ctx context.Context, correlationID string, slipID uint) SagaOutcome {
	entry, err := s.ledger.FindGameplayEntry(ctx, slipID)
	if err != nil {
		s.log.Error().Err(err).Uint("slip_id", slipID).Msg("ledger lookup failed")
		return rejected(ErrInternal)
	}
	if entry != nil {
		slip, err := s.lifecycle.GetByID(ctx, slipID)
		if err != nil {
			return rejected(ErrInternal)
		}
		return SagaOutcome{
			Status: SagaCompleted,
			Slip:   slip,
			Accrual: &loyalty.AccrualResult{
				PointsEarned: entry.PointsChange,
				NewBalance:   entry.BalanceAfter,
				Tier:         entry.TierAfter,
				Entry:        entry,
				Duplicate:    true,
			},
		}
	}

	slip, err := s.lifecycle.GetByID(ctx, slipID)
	if err != nil {
		if errors.Is(err, ErrRatingSlipNotFound) {
			return rejected(err)
		}
		return rejected(ErrInternal)
	}
	if slip.Status != models.SlipStatusClosed {
		// Recovery only applies once the close step has committed.
		return rejected(ErrInvalidState)
	}

	return s.accrue(ctx, correlationID, slip)
}

func (s *CompletionService) accrue(ctx context.Context, correlationID string, slip *models.RatingSlip) SagaOutcome {
	playerID, err := s.playerForVisit(ctx, slip.VisitID)
	if err != nil {
		s.log.Error().Err(err).Uint("slip_id", slip.ID).Msg("player lookup failed")
		return partial(slip.ID, correlationID, "player lookup failed: "+err.Error())
	}

	res, err := s.accruer.AccrueFromSlip(ctx, loyalty.AccrualRequest{
		PlayerID:        playerID,
		RatingSlipID:    slip.ID,
		AverageBet:      slip.AverageBet,
		DurationSeconds: slip.AccumulatedSeconds,
		GameSettings:    slip.GameSettings,
		IdempotencyKey:  GameplayAccrualKey(slip.ID),
		CorrelationID:   correlationID,
	})
	if err != nil {
		// The close stays committed. The caller gets the recovery
		// payload and re-attempts the accrual later.
		s.log.Warn().Err(err).Uint("slip_id", slip.ID).Str("correlation_id", correlationID).
			Msg("accrual step failed, session remains closed")
		return partial(slip.ID, correlationID, err.Error())
	}

	return SagaOutcome{Status: SagaCompleted, Slip: slip, Accrual: res}
}

func (s *CompletionService) playerForVisit(ctx context.Context, visitID uint) (uint, error) {
	var visit models.Visit
	if err := s.db.WithContext(ctx).First(&visit, visitID).Error; err != nil {
		return 0, err
	}
	return visit.PlayerID, nil
}

func rejected(kind error) SagaOutcome {
	return SagaOutcome{Status: SagaRejected, Err: kind}
}

func partial(slipID uint, correlationID, reason string) SagaOutcome {
	return SagaOutcome{
		Status:        SagaPartial,
		SlipID:        slipID,
		CorrelationID: correlationID,
		Reason:        reason,
	}
}
