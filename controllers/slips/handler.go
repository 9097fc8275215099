package slips

import (
	"errors"

	"pitfloor/helpers"
	"pitfloor/services"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	Lifecycle  *services.LifecycleService
	Move       *services.MoveService
	Completion *services.CompletionService
}

func NewHandler(lifecycle *services.LifecycleService, move *services.MoveService, completion *services.CompletionService) *Handler {
	return &Handler{Lifecycle: lifecycle, Move: move, Completion: completion}
}

func slipIDParam(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, services.ErrValidation
	}
	return uint(id), nil
}

func serviceError(c *fiber.Ctx, err error) error {
	for _, kind := range []error{
		services.ErrRatingSlipNotFound,
		services.ErrSeatOccupied,
		services.ErrRatingSlipClosed,
		services.ErrInvalidState,
		services.ErrValidation,
	} {
		if errors.Is(err, kind) {
			return helpers.JSONError(c, err.Error())
		}
	}
	return helpers.JSONError(c, services.ErrInternal.Error())
}
