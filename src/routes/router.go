package routes

import (
	"Backend-QA-Portal/src/controllers"
	"Backend-QA-Portal/src/middleware"

	"github.com/gofiber/fiber/v2"
)

// Controllers รวม controller ทุกตัวที่ main ประกอบไว้แล้ว
type Controllers struct {
	Submissions *controllers.SubmissionController
	Archives    *controllers.ArchiveController
	Reports     *controllers.ReportController
	Windows     *controllers.WindowController
}

func InitRoutes(app *fiber.App, ctrls Controllers) {
	// Route เช็คว่า API ทำงานอยู่
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("✅ API is running...")
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ทุก route ใต้ /api ต้องมี Bearer token
	api := app.Group("/api", middleware.AuthJWT)

	submissionRoutes(api, ctrls.Submissions)
	uploadRoutes(api, ctrls.Submissions)
	archiveRoutes(api, ctrls.Archives)
	reportRoutes(api, ctrls.Reports)
	windowRoutes(api, ctrls.Windows)
}
