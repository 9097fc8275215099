package middlewares

import (
	"pitfloor/database"
	"pitfloor/helpers"
	"pitfloor/models"

	"github.com/gofiber/fiber/v2"
)

const StaffLocal = "staff"

func StaffAuthMiddleware(c *fiber.Ctx) error {
	staffCode := c.Get("X-Staff-Code")
	secretKey := c.Get("X-Secret-Key")

	if staffCode == "" || secretKey == "" {
		return helpers.JSONError(c, "STAFF_CODE_AND_SECRET_REQUIRED")
	}

	var staff models.Staff
	if err := database.DB.Where("staff_code = ? AND secret_key = ? AND is_active = true", staffCode, secretKey).First(&staff).Error; err != nil {
		return helpers.JSONError(c, "INVALID_STAFF_CREDENTIALS")
	}

	c.Locals(StaffLocal, staff)
	return c.Next()
}

// StaffFromCtx returns the authenticated staff member.
func StaffFromCtx(c *fiber.Ctx) (models.Staff, bool) {
	staff, ok := c.Locals(StaffLocal).(models.Staff)
	return staff, ok
}
