package routes

import (
	"pitfloor/controllers/loyaltyops"
	"pitfloor/controllers/slips"
	"pitfloor/middlewares"

	"github.com/gofiber/fiber/v2"
)

func Setup(app *fiber.App, slipHandler *slips.Handler, loyaltyHandler *loyaltyops.Handler) {
	app.Use(middlewares.Correlation())

	pit := app.Group("/pit", middlewares.StaffAuthMiddleware)

	pit.Post("/slips/start", slipHandler.Start)
	pit.Get("/slips/:id", slipHandler.GetByID)
	pit.Post("/slips/:id/pause", slipHandler.Pause)
	pit.Post("/slips/:id/resume", slipHandler.Resume)
	pit.Post("/slips/:id/close", slipHandler.Close)
	pit.Post("/slips/:id/move", slipHandler.MoveSlip)
	pit.Post("/slips/:id/complete", slipHandler.Complete)
	pit.Post("/slips/:id/recover", slipHandler.Recover)

	pit.Post("/loyalty/bonus", loyaltyHandler.ManualBonus)
	pit.Get("/loyalty/gameplay/:slipId", loyaltyHandler.GameplayEntry)
}
