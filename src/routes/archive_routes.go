package routes

import (
	"Backend-QA-Portal/src/controllers"

	"github.com/gofiber/fiber/v2"
)

func archiveRoutes(router fiber.Router, ctrl *controllers.ArchiveController) {
	archives := router.Group("/archives/submissions")
	archives.Post("/:id", ctrl.Generate)
	archives.Get("/:id", ctrl.Status)
	archives.Get("/:id/download", ctrl.Download)
}
