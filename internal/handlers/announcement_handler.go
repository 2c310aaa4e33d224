package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/subbu1904/CoinTrackBack/internal/repository"
)

type AnnouncementHandler struct {
	announcementRepo *repository.AnnouncementRepository
}

func NewAnnouncementHandler(announcementRepo *repository.AnnouncementRepository) *AnnouncementHandler {
	return &AnnouncementHandler{announcementRepo: announcementRepo}
}

type createAnnouncementRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *AnnouncementHandler) ListAnnouncements(c *fiber.Ctx) error {
	announcements, err := h.announcementRepo.ListActive(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list announcements"})
	}
	return c.JSON(fiber.Map{"announcements": announcements})
}

func (h *AnnouncementHandler) CreateAnnouncement(c *fiber.Ctx) error {
	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createAnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	title := strings.TrimSpace(req.Title)
	body := strings.TrimSpace(req.Body)
	if title == "" || body == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title and body are required"})
	}

	announcement, err := h.announcementRepo.Create(c.Context(), userID, title, body)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create announcement"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"announcement": announcement})
}

func (h *AnnouncementHandler) DeactivateAnnouncement(c *fiber.Ctx) error {
	announcementID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || announcementID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid announcement id"})
	}

	deactivated, err := h.announcementRepo.Deactivate(c.Context(), announcementID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to deactivate announcement"})
	}
	if !deactivated {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Announcement not found"})
	}

	return c.JSON(fiber.Map{"success": true})
}
