package controllers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"Backend-QA-Portal/src/middleware"
	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/services/windows"
	"Backend-QA-Portal/src/utils"
	"Backend-QA-Portal/test"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWindows struct {
	docs map[string]*models.AcademicWindow
}

func (m *memWindows) FindByYear(_ context.Context, year string) (*models.AcademicWindow, error) {
	return m.docs[year], nil
}

func (m *memWindows) Upsert(_ context.Context, w *models.AcademicWindow) error {
	m.docs[w.AcademicYear] = w
	return nil
}

func newTestApp() *fiber.App {
	utils.SetJWTSecret("controller-secret")
	app := fiber.New()
	api := app.Group("/api", middleware.AuthJWT)

	wc := NewWindowController(windows.NewService(&memWindows{docs: map[string]*models.AcademicWindow{}}))
	api.Get("/windows/:academicYear", wc.Get)
	api.Put("/windows/:academicYear", wc.Upsert)

	// ไม่ต้องใช้ service จริง: id ที่ผิดรูปแบบถูกปฏิเสธก่อน
	sc := NewSubmissionController(nil)
	api.Get("/submissions/:id", sc.Get)
	return app
}

func bearer(t *testing.T, role models.Role) string {
	return test.Bearer(t, "controller-secret", models.AuthUser{ID: "u-" + string(role), Role: role, Department: "CSE", School: "SOE"})
}

func do(t *testing.T, app *fiber.App, method, path, auth, body string) (int, models.ErrorResponse) {
	t.Helper()
	var req = httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out models.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestWindowEndpoints(t *testing.T) {
	app := newTestApp()
	admin := bearer(t, models.RoleAdmin)
	body := `{"submissionStart":"2025-01-01T00:00:00Z","submissionEnd":"2025-01-31T23:59:59Z"}`

	status, _ := do(t, app, "GET", "/api/windows/2024-2025", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, res := do(t, app, "GET", "/api/windows/2024-2025", admin, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", res.Code)

	status, _ = do(t, app, "PUT", "/api/windows/2024-2025", bearer(t, models.RoleDepartment), body)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = do(t, app, "PUT", "/api/windows/2024-2025", admin,
		`{"submissionStart":"2025-02-01T00:00:00Z","submissionEnd":"2025-01-01T00:00:00Z"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, "PUT", "/api/windows/2024-2025", admin, body)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = do(t, app, "GET", "/api/windows/2024-2025", bearer(t, models.RoleDepartment), "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestInvalidSubmissionID(t *testing.T) {
	app := newTestApp()
	status, res := do(t, app, "GET", "/api/submissions/not-an-id", bearer(t, models.RoleQAA), "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", res.Code)
}
