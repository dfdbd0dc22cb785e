package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/parishpost/parishpost/internal/models"
	"github.com/parishpost/parishpost/internal/service"
	"github.com/parishpost/parishpost/internal/transfer"
)

type PublishHandler struct {
	s service.PublishService
}

func NewPublishHandler(s service.PublishService) *PublishHandler {
	return &PublishHandler{s: s}
}

// Publish fans one post out to every requested platform.
func (h *PublishHandler) Publish(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	summary, err := h.s.Publish(c.Context(), userID, &req)
	if err != nil {
		return publishError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"platforms": summary.Platforms,
		"results":   summary.Results,
	})
}

// PublishToAccount posts to one explicit account on one platform.
func (h *PublishHandler) PublishToAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)

	platform, err := models.ParsePlatform(c.Params("platform"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var req transfer.SinglePublishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := h.s.PublishToAccount(c.Context(), userID, platform, &req)
	if err != nil {
		return publishError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}

// publishError distinguishes requests rejected before any network call (400)
// from upstream publish failures (502, with the partial outcome) and
// everything else (500).
func publishError(c *fiber.Ctx, err error) error {
	var missingErr *service.MissingConnectionError
	var unsupportedErr *service.UnsupportedPlatformError
	var unauthorizedErr *service.UnauthorizedError
	var report *service.PublishReport

	switch {
	case errors.As(err, &unauthorizedErr):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.As(err, &missingErr), errors.As(err, &unsupportedErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.As(err, &report):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":     report.Error(),
			"succeeded": report.Succeeded,
			"failed":    report.Failed,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
