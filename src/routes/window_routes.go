package routes

import (
	"Backend-QA-Portal/src/controllers"
	"Backend-QA-Portal/src/middleware"
	"Backend-QA-Portal/src/models"

	"github.com/gofiber/fiber/v2"
)

func windowRoutes(router fiber.Router, ctrl *controllers.WindowController) {
	windows := router.Group("/windows")
	windows.Get("/:academicYear", ctrl.Get)
	windows.Put("/:academicYear", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperuser), ctrl.Upsert)
}
