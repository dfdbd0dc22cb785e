package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/parishpost/parishpost/internal/service"
	"github.com/parishpost/parishpost/internal/transfer"
)

type ContentHandler struct {
	s service.ContentService
}

func NewContentHandler(s service.ContentService) *ContentHandler {
	return &ContentHandler{s: s}
}

func (h *ContentHandler) CreateContent(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.ContentCreation
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	id, err := h.s.Create(c.Context(), userID, &req)
	if err != nil {
		return contentError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id": id,
	})
}

func (h *ContentHandler) GetContent(c *fiber.Ctx) error {
	userID := GetUserID(c)

	contentID := c.QueryInt("id", 0)
	if contentID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid content id",
		})
	}

	content, err := h.s.Get(c.Context(), userID, int64(contentID))
	if err != nil {
		return contentError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(content)
}

func (h *ContentHandler) ListContents(c *fiber.Ctx) error {
	userID := GetUserID(c)

	contents, err := h.s.List(c.Context(), userID)
	if err != nil {
		return contentError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(contents)
}

func (h *ContentHandler) UpdateContent(c *fiber.Ctx) error {
	userID := GetUserID(c)

	contentID := c.QueryInt("id", 0)
	if contentID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid content id",
		})
	}

	var req transfer.ContentUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	content, err := h.s.Update(c.Context(), userID, int64(contentID), &req)
	if err != nil {
		return contentError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(content)
}

func (h *ContentHandler) ScheduleContent(c *fiber.Ctx) error {
	userID := GetUserID(c)

	contentID := c.QueryInt("id", 0)
	if contentID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid content id",
		})
	}

	var req struct {
		ScheduledFor string `json:"scheduled_for"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	scheduledFor, err := time.Parse(time.RFC3339, req.ScheduledFor)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid scheduled_for",
		})
	}

	if err := h.s.Schedule(c.Context(), userID, int64(contentID), scheduledFor); err != nil {
		return contentError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *ContentHandler) RemoveContent(c *fiber.Ctx) error {
	userID := GetUserID(c)

	contentID := c.QueryInt("id", 0)
	if contentID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid content id",
		})
	}

	if err := h.s.Remove(c.Context(), userID, int64(contentID)); err != nil {
		return contentError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func contentError(c *fiber.Ctx, err error) error {
	var unauthorizedErr *service.UnauthorizedError

	switch {
	case errors.As(err, &unauthorizedErr):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, service.ErrChurchRequired):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
