package routes

import (
	"Backend-QA-Portal/src/controllers"
	"Backend-QA-Portal/src/middleware"
	"Backend-QA-Portal/src/models"

	"github.com/gofiber/fiber/v2"
)

func reportRoutes(router fiber.Router, ctrl *controllers.ReportController) {
	reports := router.Group("/reports")
	reports.Get("/schools", ctrl.Schools)
	reports.Get("/my-school", ctrl.MySchool)
	reports.Get("/preview", ctrl.Preview)

	publications := router.Group("/publications")
	publications.Get("/", ctrl.PublicationStatus)
	publications.Post("/", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperuser), ctrl.SetPublication)
}
