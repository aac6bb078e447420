package middleware

import (
	"strings"

	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/utils"

	"github.com/gofiber/fiber/v2"
)

const userKey = "user"

func AuthJWT(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.HandleError(c, fiber.StatusUnauthorized, "Missing or invalid Authorization header")
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	claims, err := utils.ParseJWT(tokenStr)
	if err != nil {
		return utils.HandleError(c, fiber.StatusUnauthorized, "Invalid or expired token")
	}

	user := claims.User()
	c.Locals(userKey, user)
	c.Locals("userId", user.ID)
	c.Locals("role", string(user.Role))

	return c.Next()
}

// CurrentUser returns the user attached by AuthJWT, or nil.
func CurrentUser(c *fiber.Ctx) *models.AuthUser {
	u, _ := c.Locals(userKey).(*models.AuthUser)
	return u
}

// RequireRoles ต้องใช้หลัง AuthJWT
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CurrentUser(c).HasRole(roles...) {
			return utils.HandleError(c, fiber.StatusForbidden, "You do not have permission to perform this action")
		}
		return c.Next()
	}
}
