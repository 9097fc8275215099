package slips

import (
	"pitfloor/helpers"
	"pitfloor/middlewares"

	"github.com/gofiber/fiber/v2"
)

type MoveRatingSlipRequest struct {
	DestinationTableID    uint `json:"destination_table_id"`
	DestinationSeatNumber *int `json:"destination_seat_number"`
}

func (h *Handler) MoveSlip(c *fiber.Ctx) error {
	id, err := slipIDParam(c)
	if err != nil {
		return serviceError(c, err)
	}

	var req MoveRatingSlipRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	staff, ok := middlewares.StaffFromCtx(c)
	if !ok {
		return helpers.JSONError(c, "STAFF_CONTEXT_MISSING")
	}

	result, err := h.Move.Move(c.UserContext(), staff.ID, id, req.DestinationTableID, req.DestinationSeatNumber)
	if err != nil {
		return serviceError(c, err)
	}
	return helpers.JSONSuccess(c, "Rating slip moved", result)
}
