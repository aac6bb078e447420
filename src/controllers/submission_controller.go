package controllers

import (
	"Backend-QA-Portal/src/services/submission"
	"Backend-QA-Portal/src/utils"

	"github.com/gofiber/fiber/v2"
)

type SubmissionController struct {
	svc *submission.Service
}

func NewSubmissionController(svc *submission.Service) *SubmissionController {
	return &SubmissionController{svc: svc}
}

// @Summary      Create submission
// @Description  Department opens its self-assessment for an academic year (submission window must be open)
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      submission.CreateRequest  true  "Submission"
// @Success      201   {object}  models.Submission
// @Failure      400   {object}  models.ErrorResponse
// @Failure      403   {object}  models.ErrorResponse
// @Failure      409   {object}  models.ErrorResponse
// @Router       /submissions [post]
func (h *SubmissionController) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req submission.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}
	sub, err := h.svc.Create(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

// @Summary      Get submission
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Submission ID"
// @Success      200  {object}  models.Submission
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /submissions/{id} [get]
func (h *SubmissionController) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseObjectID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	sub, err := h.svc.Get(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}

// @Summary      Update submission
// @Description  Role-dispatched edit. Department edits Draft (send status "Under Review" to submit),
// @Description  reviewer edits Under Review (status "Pending Final Approval" to forward),
// @Description  superuser edits Pending Final Approval (status "Completed") or resolves an appeal.
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "Submission ID"
// @Param        body  body      submission.UpdateRequest  true  "Patch"
// @Success      200   {object}  models.Submission
// @Failure      400   {object}  models.ErrorResponse
// @Failure      403   {object}  models.ErrorResponse
// @Failure      409   {object}  models.ErrorResponse
// @Router       /submissions/{id} [put]
func (h *SubmissionController) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseObjectID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req submission.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}
	sub, err := h.svc.Update(c.UserContext(), user, id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}

// @Summary      Submit appeal
// @Description  One appeal per completed submission, only inside the appeal window
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "Submission ID"
// @Param        body  body      submission.AppealRequest  true  "Appeal"
// @Success      200   {object}  models.Submission
// @Failure      400   {object}  models.ErrorResponse
// @Failure      403   {object}  models.ErrorResponse
// @Failure      409   {object}  models.ErrorResponse
// @Router       /submissions/{id}/appeal [post]
func (h *SubmissionController) SubmitAppeal(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseObjectID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req submission.AppealRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}
	sub, err := h.svc.SubmitAppeal(c.UserContext(), user, id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}

// @Summary      Delete submission
// @Description  Removes every stored file, then the document (admin/superuser)
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Submission ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Failure      502  {object}  models.ErrorResponse
// @Router       /submissions/{id} [delete]
func (h *SubmissionController) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseObjectID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.Delete(c.UserContext(), user, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Submission deleted successfully"})
}

// @Summary      List my department's submissions
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        academicYear  query     string  false  "Academic year e.g. 2024-2025"
// @Param        page          query     int     false  "Page number"
// @Param        limit         query     int     false  "Limit per page"
// @Param        sortBy        query     string  false  "Sort by field"
// @Param        order         query     string  false  "Sort order"
// @Success      200  {object}  models.PaginatedResponse
// @Router       /submissions/my-department [get]
func (h *SubmissionController) ListMyDepartment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.svc.ListMyDepartment(c.UserContext(), user, c.Query("academicYear"), parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// @Summary      Review queue
// @Description  Submissions Under Review
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        academicYear  query     string  false  "Academic year"
// @Param        page          query     int     false  "Page number"
// @Param        limit         query     int     false  "Limit per page"
// @Success      200  {object}  models.PaginatedResponse
// @Router       /submissions/review-queue [get]
func (h *SubmissionController) ListReviewQueue(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.svc.ListReviewQueue(c.UserContext(), user, c.Query("academicYear"), parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// @Summary      Superuser queue
// @Description  Submissions Pending Final Approval or with an open appeal
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        academicYear  query     string  false  "Academic year"
// @Param        page          query     int     false  "Page number"
// @Param        limit         query     int     false  "Limit per page"
// @Success      200  {object}  models.PaginatedResponse
// @Router       /submissions/superuser-queue [get]
func (h *SubmissionController) ListApprovalQueue(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.svc.ListApprovalQueue(c.UserContext(), user, c.Query("academicYear"), parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// @Summary      Approved submissions
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        academicYear  query     string  false  "Academic year"
// @Param        page          query     int     false  "Page number"
// @Param        limit         query     int     false  "Limit per page"
// @Success      200  {object}  models.PaginatedResponse
// @Router       /submissions/approved [get]
func (h *SubmissionController) ListApproved(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.svc.ListApproved(c.UserContext(), user, c.Query("academicYear"), parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// @Summary      Presign evidence upload
// @Description  Returns a short-lived PUT URL and the object key to store in the submission
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      submission.PresignRequest  true  "File"
// @Success      200   {object}  submission.PresignResponse
// @Failure      400   {object}  models.ErrorResponse
// @Failure      403   {object}  models.ErrorResponse
// @Router       /uploads/presign [post]
func (h *SubmissionController) PresignUpload(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req submission.PresignRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}
	res, err := h.svc.PresignUpload(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
