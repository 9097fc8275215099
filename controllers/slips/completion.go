package slips

import (
	"pitfloor/helpers"
	"pitfloor/middlewares"
	"pitfloor/services"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) Complete(c *fiber.Ctx) error {
	id, err := slipIDParam(c)
	if err != nil {
		return serviceError(c, err)
	}

	outcome := h.Completion.Complete(c.UserContext(), middlewares.CorrelationID(c), id)
	return renderOutcome(c, outcome)
}

type RecoverRequest struct {
	CorrelationID string `json:"correlation_id"`
}

func (h *Handler) Recover(c *fiber.Ctx) error {
	id, err := slipIDParam(c)
	if err != nil {
		return serviceError(c, err)
	}

	var req RecoverRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helpers.JSONError(c, "INVALID_JSON")
		}
	}
	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = middlewares.CorrelationID(c)
	}

	outcome := h.Completion.Recover(c.UserContext(), correlationID, id)
	return renderOutcome(c, outcome)
}

func renderOutcome(c *fiber.Ctx, outcome services.SagaOutcome) error {
	switch outcome.Status {
	case services.SagaCompleted:
		return helpers.JSONSuccess(c, "Rating slip completed", fiber.Map{
			"slip":    outcome.Slip,
			"accrual": outcome.Accrual,
		})
	case services.SagaPartial:
		return helpers.JSONPartial(c, "Session closed, points accrual pending", fiber.Map{
			"slip_id":        outcome.SlipID,
			"correlation_id": outcome.CorrelationID,
			"reason":         outcome.Reason,
		})
	default:
		return helpers.JSONError(c, outcome.Err.Error())
	}
}
