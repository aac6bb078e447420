package controllers

import (
	"Backend-QA-Portal/src/services/reports"
	"Backend-QA-Portal/src/utils"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	svc *reports.Service
}

func NewReportController(svc *reports.Service) *ReportController {
	return &ReportController{svc: svc}
}

// @Summary      School rankings
// @Description  Published results for every school (refused until the year is published)
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        academicYear  query     string  true  "Academic year e.g. 2024-2025"
// @Success      200  {array}   models.ReportSnapshot
// @Failure      409  {object}  models.ErrorResponse
// @Router       /reports/schools [get]
func (h *ReportController) Schools(c *fiber.Ctx) error {
	if _, err := currentUser(c); err != nil {
		return respondError(c, err)
	}
	res, err := h.svc.SchoolsReport(c.UserContext(), c.Query("academicYear"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": res})
}

// @Summary      My school's result
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        academicYear  query     string  true  "Academic year"
// @Success      200  {object}  models.ReportSnapshot
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /reports/my-school [get]
func (h *ReportController) MySchool(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.svc.MySchool(c.UserContext(), user, c.Query("academicYear"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// @Summary      Preview rankings
// @Description  Live computation without publishing (admin/superuser)
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        academicYear  query     string  true  "Academic year"
// @Success      200  {array}   models.ReportSnapshot
// @Router       /reports/preview [get]
func (h *ReportController) Preview(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.svc.Preview(c.UserContext(), user, c.Query("academicYear"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": res})
}

// @Summary      Publication status
// @Tags         publications
// @Produce      json
// @Security     BearerAuth
// @Param        academicYear  query     string  true  "Academic year"
// @Success      200  {object}  reports.PublicationStatus
// @Router       /publications [get]
func (h *ReportController) PublicationStatus(c *fiber.Ctx) error {
	if _, err := currentUser(c); err != nil {
		return respondError(c, err)
	}
	res, err := h.svc.Status(c.UserContext(), c.Query("academicYear"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// @Summary      Publish / unpublish results
// @Description  Publishing recomputes and replaces the year's snapshot; unpublishing keeps it
// @Tags         publications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      reports.PublishRequest  true  "Publication"
// @Success      200   {object}  reports.PublicationStatus
// @Failure      400   {object}  models.ErrorResponse
// @Failure      409   {object}  models.ErrorResponse
// @Router       /publications [post]
func (h *ReportController) SetPublication(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req reports.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}
	res, err := h.svc.SetPublication(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
