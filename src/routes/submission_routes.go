package routes

import (
	"Backend-QA-Portal/src/controllers"

	"github.com/gofiber/fiber/v2"
)

func submissionRoutes(router fiber.Router, ctrl *controllers.SubmissionController) {
	submissions := router.Group("/submissions")

	// รายการ (ต้องอยู่ก่อน /:id)
	submissions.Get("/my-department", ctrl.ListMyDepartment)
	submissions.Get("/review-queue", ctrl.ListReviewQueue)
	submissions.Get("/superuser-queue", ctrl.ListApprovalQueue)
	submissions.Get("/approved", ctrl.ListApproved)

	submissions.Post("/", ctrl.Create)
	submissions.Get("/:id", ctrl.Get)
	submissions.Put("/:id", ctrl.Update)
	submissions.Post("/:id/appeal", ctrl.SubmitAppeal)
	submissions.Delete("/:id", ctrl.Delete)
}

func uploadRoutes(router fiber.Router, ctrl *controllers.SubmissionController) {
	uploads := router.Group("/uploads")
	uploads.Post("/presign", ctrl.PresignUpload)
}
