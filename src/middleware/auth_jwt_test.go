package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	utils.SetJWTSecret("test-secret")
	app := fiber.New()
	app.Get("/me", AuthJWT, func(c *fiber.Ctx) error {
		return c.JSON(CurrentUser(c))
	})
	app.Delete("/admin", AuthJWT, RequireRoles(models.RoleAdmin, models.RoleSuperuser), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func token(t *testing.T, role models.Role) string {
	t.Helper()
	tok, err := utils.GenerateJWT(models.AuthUser{ID: "u1", Role: role, Department: "CSE", School: "SOE"}, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestAuthJWT(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("GET", "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, models.RoleDepartment))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoles(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("DELETE", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, models.RoleQAA))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("DELETE", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, models.RoleSuperuser))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
