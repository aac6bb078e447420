package controllers

import (
	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/services/archives"

	"github.com/gofiber/fiber/v2"
)

type ArchiveController struct {
	svc *archives.Service
}

func NewArchiveController(svc *archives.Service) *ArchiveController {
	return &ArchiveController{svc: svc}
}

// @Summary      Generate archive
// @Description  Start (or retry/regenerate) the evidence bundle of a completed submission
// @Tags         archives
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Submission ID"
// @Success      200  {object}  models.Archive
// @Success      202  {object}  models.Archive
// @Failure      409  {object}  models.ErrorResponse
// @Failure      502  {object}  models.ErrorResponse
// @Router       /archives/submissions/{id} [post]
func (h *ArchiveController) Generate(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseObjectID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	a, err := h.svc.Start(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, err)
	}
	if a.Status == models.ArchiveInProgress {
		return c.Status(fiber.StatusAccepted).JSON(a)
	}
	return c.JSON(a)
}

// @Summary      Archive status
// @Tags         archives
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Submission ID"
// @Success      200  {object}  models.Archive
// @Failure      404  {object}  models.ErrorResponse
// @Router       /archives/submissions/{id} [get]
func (h *ArchiveController) Status(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseObjectID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	a, err := h.svc.Status(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(a)
}

// @Summary      Download archive
// @Description  Issues a short-lived signed URL for the latest completed bundle
// @Tags         archives
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Submission ID"
// @Success      200  {object}  archives.DownloadResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /archives/submissions/{id}/download [get]
func (h *ArchiveController) Download(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseObjectID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.svc.DownloadURL(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
