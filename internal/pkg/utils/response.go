package utils

import (
	"github.com/gofiber/fiber/v2"

	"github.com/placenet-simulator/internal/pkg/errors"
)

type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

type Meta struct {
	Total    int     `json:"total,omitempty"`
	Limit    int     `json:"limit,omitempty"`
	TimeMSec float64 `json:"time_ms,omitempty"`
}

func SendSuccess(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return c.JSON(SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

// SendCreated - ответ 201 для созданного прогона
func SendCreated(c *fiber.Ctx, data interface{}, meta *Meta) error {
	c.Status(fiber.StatusCreated)
	return SendSuccess(c, data, meta)
}

// SendError переводит ошибку в AppError; неизвестные ошибки отдаются как 500
func SendError(c *fiber.Ctx, err error) error {
	appErr := errors.FromDomain(err)
	if appErr == nil {
		appErr = errors.ErrInternalServer
	}
	return c.Status(appErr.StatusCode).JSON(ErrorResponse{
		Error: appErr,
	})
}
