package loyaltyops

import (
	"errors"
	"fmt"
	"time"

	"pitfloor/helpers"
	"pitfloor/loyalty"
	"pitfloor/middlewares"
	"pitfloor/services"

	"github.com/gofiber/fiber/v2"
)

// One manual bonus per staff member per player within this window;
// distinct sequences are still throttled to catch rapid-fire misuse.
const bonusWindow = 10 * time.Second

type Handler struct {
	Loyalty *loyalty.Service
	Limiter loyalty.RateLimiter
}

func NewHandler(svc *loyalty.Service, limiter loyalty.RateLimiter) *Handler {
	return &Handler{Loyalty: svc, Limiter: limiter}
}

type ManualBonusRequest struct {
	PlayerID uint   `json:"player_id"`
	Points   int64  `json:"points"`
	Sequence int    `json:"sequence"`
	Note     string `json:"note"`
}

func (h *Handler) ManualBonus(c *fiber.Ctx) error {
	var req ManualBonusRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	if req.PlayerID == 0 || req.Points == 0 {
		return helpers.JSONError(c, "PLAYER_AND_POINTS_REQUIRED")
	}

	staff, ok := middlewares.StaffFromCtx(c)
	if !ok {
		return helpers.JSONError(c, "STAFF_CONTEXT_MISSING")
	}

	if !h.Limiter.CheckAndConsume(fmt.Sprintf("bonus:%d:%d", staff.ID, req.PlayerID), bonusWindow) {
		return helpers.JSONError(c, "TOO_MANY_REQUESTS")
	}

	key := services.ManualOpKey(req.PlayerID, staff.ID, time.Now(), req.Sequence)

	result, err := h.Loyalty.ManualBonus(c.UserContext(), loyalty.ManualBonusRequest{
		PlayerID:       req.PlayerID,
		ActorID:        staff.ID,
		Points:         req.Points,
		Note:           req.Note,
		IdempotencyKey: key,
		CorrelationID:  middlewares.CorrelationID(c),
	})
	if err != nil {
		if errors.Is(err, loyalty.ErrPlayerNotFound) || errors.Is(err, loyalty.ErrInvalidRequest) {
			return helpers.JSONError(c, err.Error())
		}
		return helpers.JSONError(c, "INTERNAL_ERROR")
	}
	return helpers.JSONSuccess(c, "Bonus posted", result)
}

func (h *Handler) GameplayEntry(c *fiber.Ctx) error {
	slipID, err := c.ParamsInt("slipId")
	if err != nil || slipID <= 0 {
		return helpers.JSONError(c, "VALIDATION_ERROR")
	}

	entry, err := h.Loyalty.FindGameplayEntry(c.UserContext(), uint(slipID))
	if err != nil {
		return helpers.JSONError(c, "INTERNAL_ERROR")
	}
	if entry == nil {
		return helpers.JSONSuccess(c, "No gameplay entry", nil)
	}
	return helpers.JSONSuccess(c, "Gameplay entry found", entry)
}
