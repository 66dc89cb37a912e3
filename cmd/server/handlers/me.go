package handlers

import "github.com/gofiber/fiber/v2"

// Me returns the current user information.
func Me(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userName := c.Locals("userName").(string)
	return c.JSON(fiber.Map{
		"uid":      userID,
		"username": userName,
	})
}
