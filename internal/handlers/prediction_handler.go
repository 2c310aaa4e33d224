package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/subbu1904/CoinTrackBack/internal/models"
	"github.com/subbu1904/CoinTrackBack/internal/repository"
	"github.com/subbu1904/CoinTrackBack/internal/services"
)

type predictionApplicationService interface {
	CreatePrediction(ctx context.Context, actorID int64, input services.CreatePredictionInput) (*models.Prediction, error)
	ListPredictions(ctx context.Context, filter repository.PredictionListFilter) ([]models.PredictionSummary, error)
	GetPrediction(ctx context.Context, predictionID int64) (*models.PredictionSummary, error)
	DeletePrediction(ctx context.Context, actorID int64, predictionID int64) error
	VotePrediction(ctx context.Context, actorID int64, predictionID int64, value int) (*models.PredictionSummary, error)
}

type PredictionHandler struct {
	service predictionApplicationService
}

func NewPredictionHandler(service predictionApplicationService) *PredictionHandler {
	return &PredictionHandler{service: service}
}

type createPredictionRequest struct {
	AssetID     int64     `json:"asset_id"`
	Direction   string    `json:"direction"`
	TargetPrice *float64  `json:"target_price"`
	Rationale   *string   `json:"rationale"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type voteRequest struct {
	Value int `json:"value"`
}

func (h *PredictionHandler) CreatePrediction(c *fiber.Ctx) error {
	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createPredictionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	prediction, err := h.service.CreatePrediction(c.Context(), userID, services.CreatePredictionInput{
		AssetID:     req.AssetID,
		Direction:   req.Direction,
		TargetPrice: req.TargetPrice,
		Rationale:   req.Rationale,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		return mapPredictionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"prediction": prediction})
}

func (h *PredictionHandler) ListPredictions(c *fiber.Ctx) error {
	var filter repository.PredictionListFilter

	if raw := c.Query("asset_id"); raw != "" {
		assetID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || assetID <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid asset id"})
		}
		filter.AssetID = assetID
	}
	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
		}
		filter.UserID = userID
	}

	predictions, err := h.service.ListPredictions(c.Context(), filter)
	if err != nil {
		return mapPredictionError(c, err)
	}

	return c.JSON(fiber.Map{"predictions": predictions})
}

func (h *PredictionHandler) GetPrediction(c *fiber.Ctx) error {
	predictionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || predictionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid prediction id"})
	}

	prediction, err := h.service.GetPrediction(c.Context(), predictionID)
	if err != nil {
		return mapPredictionError(c, err)
	}

	return c.JSON(fiber.Map{"prediction": prediction})
}

func (h *PredictionHandler) DeletePrediction(c *fiber.Ctx) error {
	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	predictionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || predictionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid prediction id"})
	}

	if err := h.service.DeletePrediction(c.Context(), userID, predictionID); err != nil {
		return mapPredictionError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *PredictionHandler) VotePrediction(c *fiber.Ctx) error {
	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	predictionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || predictionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid prediction id"})
	}

	var req voteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	prediction, err := h.service.VotePrediction(c.Context(), userID, predictionID, req.Value)
	if err != nil {
		return mapPredictionError(c, err)
	}

	return c.JSON(fiber.Map{"prediction": prediction})
}

func mapPredictionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrPredictionExpired):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Prediction has expired"})
	case errors.Is(err, services.ErrAssetNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Asset not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Prediction not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process prediction request"})
	}
}
