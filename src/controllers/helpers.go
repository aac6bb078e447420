package controllers

import (
	"Backend-QA-Portal/src/middleware"
	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func parseObjectID(c *fiber.Ctx, param string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params(param))
	if err != nil {
		return primitive.NilObjectID, utils.ValidationError("invalid %s", param)
	}
	return id, nil
}

// currentUser คืน user จาก AuthJWT; ถ้าไม่มีถือว่าไม่ได้ยืนยันตัวตน
func currentUser(c *fiber.Ctx) (*models.AuthUser, error) {
	u := middleware.CurrentUser(c)
	if u == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Missing or invalid Authorization header")
	}
	return u, nil
}

func parsePagination(c *fiber.Ctx) models.PaginationParams {
	params := models.DefaultPagination()
	if err := c.QueryParser(&params); err != nil {
		return models.DefaultPagination()
	}
	return models.CleanPagination(params)
}

func respondError(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return utils.HandleError(c, fe.Code, fe.Message)
	}
	return utils.HandleAppError(c, err)
}
