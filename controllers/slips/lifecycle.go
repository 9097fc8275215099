package slips

import (
	"pitfloor/helpers"
	"pitfloor/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type StartRatingSlipRequest struct {
	VisitID      uint            `json:"visit_id"`
	TableID      uint            `json:"table_id"`
	SeatNumber   *int            `json:"seat_number"`
	AverageBet   decimal.Decimal `json:"average_bet"`
	GameSettings datatypes.JSON  `json:"game_settings"`
}

func (h *Handler) Start(c *fiber.Ctx) error {
	var req StartRatingSlipRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	slip, err := h.Lifecycle.Start(c.UserContext(), services.StartParams{
		VisitID:      req.VisitID,
		TableID:      req.TableID,
		SeatNumber:   req.SeatNumber,
		AverageBet:   req.AverageBet,
		GameSettings: req.GameSettings,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return helpers.JSONSuccess(c, "Rating slip started", slip)
}

func (h *Handler) GetByID(c *fiber.Ctx) error {
	id, err := slipIDParam(c)
	if err != nil {
		return serviceError(c, err)
	}
	slip, err := h.Lifecycle.GetByID(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return helpers.JSONSuccess(c, "Rating slip found", slip)
}

func (h *Handler) Pause(c *fiber.Ctx) error {
	id, err := slipIDParam(c)
	if err != nil {
		return serviceError(c, err)
	}
	slip, err := h.Lifecycle.Pause(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return helpers.JSONSuccess(c, "Rating slip paused", slip)
}

func (h *Handler) Resume(c *fiber.Ctx) error {
	id, err := slipIDParam(c)
	if err != nil {
		return serviceError(c, err)
	}
	slip, err := h.Lifecycle.Resume(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return helpers.JSONSuccess(c, "Rating slip resumed", slip)
}

type CloseRatingSlipRequest struct {
	AverageBet *decimal.Decimal `json:"average_bet"`
}

func (h *Handler) Close(c *fiber.Ctx) error {
	id, err := slipIDParam(c)
	if err != nil {
		return serviceError(c, err)
	}

	var req CloseRatingSlipRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helpers.JSONError(c, "INVALID_JSON")
		}
	}

	slip, err := h.Lifecycle.Close(c.UserContext(), id, req.AverageBet)
	if err != nil {
		return serviceError(c, err)
	}
	return helpers.JSONSuccess(c, "Rating slip closed", slip)
}
