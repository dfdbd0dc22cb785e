package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/parishpost/parishpost/internal/models"
	"github.com/parishpost/parishpost/internal/service"
	"github.com/parishpost/parishpost/internal/transfer"
)

type ConnectHandler struct {
	s service.ConnectService
}

func NewConnectHandler(s service.ConnectService) *ConnectHandler {
	return &ConnectHandler{s: s}
}

// AddSocialAccount redirects the browser to the platform's authorization
// page, minting a fresh state nonce on the way out.
func (h *ConnectHandler) AddSocialAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)

	platform, err := models.ParsePlatform(c.Params("platform"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	authURL, err := h.s.BeginConnect(c.Context(), userID, platform)
	if err != nil {
		return connectError(c, err)
	}

	return c.Redirect(authURL)
}

// OAuthCallback finishes the connect: the dashboard forwards the platform's
// code and state here. The x-user-id header must match the session, so a
// stolen callback URL cannot attach an account to someone else.
func (h *ConnectHandler) OAuthCallback(c *fiber.Ctx) error {
	userID := GetUserID(c)

	claimedID := c.Get("x-user-id")
	if claimedID != fmt.Sprintf("%d", userID) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "user mismatch",
		})
	}

	name := strings.TrimSuffix(c.Params("platform"), "-auth")
	platform, err := models.ParsePlatform(name)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var req transfer.OAuthCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.s.CompleteConnect(c.Context(), userID, platform, req.Code, req.State); err != nil {
		return connectError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"platform": platform,
	})
}

func (h *ConnectHandler) ListSocialAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	statuses, err := h.s.ListConnections(c.Context(), userID)
	if err != nil {
		return connectError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(statuses)
}

func (h *ConnectHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)

	platform, err := models.ParsePlatform(c.Query("platform"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.s.Disconnect(c.Context(), userID, platform); err != nil {
		return connectError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// connectError maps connect failures onto status codes: configuration and
// identity problems are the caller's 401, a state mismatch is a 400, and
// anything else (exchange failures included) is a 500 carrying the reason.
func connectError(c *fiber.Ctx, err error) error {
	var configErr *service.ConfigurationError
	var unauthorizedErr *service.UnauthorizedError
	var stateErr *service.InvalidStateError

	switch {
	case errors.As(err, &configErr), errors.As(err, &unauthorizedErr):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.As(err, &stateErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "something went wrong",
			"details": err.Error(),
		})
	}
}
