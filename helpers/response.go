package helpers

import "github.com/gofiber/fiber/v2"

func JSONSuccess(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func JSONError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": message,
		"data":    nil,
	})
}

// JSONPartial renders a partial saga completion: not a success (points
// are still owed) and not a failure (the session did close). 202 keeps
// it distinct from both so operators can offer the recovery action.
func JSONPartial(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": false,
		"partial": true,
		"message": message,
		"data":    data,
	})
}
