package controllers

import (
	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/services/windows"
	"Backend-QA-Portal/src/utils"

	"github.com/gofiber/fiber/v2"
)

type WindowController struct {
	svc *windows.Service
}

func NewWindowController(svc *windows.Service) *WindowController {
	return &WindowController{svc: svc}
}

// @Summary      Get academic window
// @Tags         windows
// @Produce      json
// @Security     BearerAuth
// @Param        academicYear  path      string  true  "Academic year"
// @Success      200  {object}  models.AcademicWindow
// @Failure      404  {object}  models.ErrorResponse
// @Router       /windows/{academicYear} [get]
func (h *WindowController) Get(c *fiber.Ctx) error {
	if _, err := currentUser(c); err != nil {
		return respondError(c, err)
	}
	w, err := h.svc.Get(c.UserContext(), c.Params("academicYear"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(w)
}

// @Summary      Configure academic window
// @Description  Sets submission and appeal date ranges (admin/superuser)
// @Tags         windows
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        academicYear  path      string                 true  "Academic year"
// @Param        body          body      models.AcademicWindow  true  "Window"
// @Success      200  {object}  models.AcademicWindow
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Router       /windows/{academicYear} [put]
func (h *WindowController) Upsert(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var w models.AcademicWindow
	if err := c.BodyParser(&w); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}
	w.AcademicYear = c.Params("academicYear")
	saved, err := h.svc.Upsert(c.UserContext(), user, &w)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(saved)
}
