package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/subbu1904/CoinTrackBack/internal/models"
	"github.com/subbu1904/CoinTrackBack/internal/repository"
)

type trendingRanker interface {
	GetTrendingAssets(ctx context.Context, actorID int64, limit int) ([]models.TrendingAsset, error)
}

type AssetHandler struct {
	assetRepo    *repository.AssetRepository
	categoryRepo *repository.CategoryRepository
	trending     trendingRanker
}

func NewAssetHandler(
	assetRepo *repository.AssetRepository,
	categoryRepo *repository.CategoryRepository,
	trending trendingRanker,
) *AssetHandler {
	return &AssetHandler{
		assetRepo:    assetRepo,
		categoryRepo: categoryRepo,
		trending:     trending,
	}
}

type createAssetRequest struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	CategoryID *int64 `json:"category_id"`
}

type createCategoryRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

type watchlistRequest struct {
	AssetID int64 `json:"asset_id"`
}

func (h *AssetHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.categoryRepo.ListAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list categories"})
	}
	return c.JSON(fiber.Map{"categories": categories})
}

func (h *AssetHandler) CreateCategory(c *fiber.Ctx) error {
	var req createCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required"})
	}

	if req.ParentID != nil {
		if _, err := h.categoryRepo.GetByID(c.Context(), *req.ParentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Parent category not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check parent category"})
		}
	}

	category, err := h.categoryRepo.Create(c.Context(), name, req.ParentID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Category already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create category"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"category": category})
}

func (h *AssetHandler) ListAssets(c *fiber.Ctx) error {
	var categoryID *int64
	if raw := c.Query("category_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid category id"})
		}
		categoryID = &parsed
	}

	assets, err := h.assetRepo.List(c.Context(), categoryID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list assets"})
	}

	return c.JSON(fiber.Map{"assets": assets})
}

func (h *AssetHandler) GetAsset(c *fiber.Ctx) error {
	assetID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || assetID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid asset id"})
	}

	asset, err := h.assetRepo.GetByID(c.Context(), assetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Asset not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch asset"})
	}

	return c.JSON(fiber.Map{"asset": asset})
}

func (h *AssetHandler) CreateAsset(c *fiber.Ctx) error {
	var req createAssetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	name := strings.TrimSpace(req.Name)
	if symbol == "" || name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Symbol and name are required"})
	}

	asset, err := h.assetRepo.Create(c.Context(), repository.CreateAssetInput{
		Symbol:     symbol,
		Name:       name,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Asset already exists"})
			case "23503":
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Category not found"})
			}
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create asset"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"asset": asset})
}

func (h *AssetHandler) GetTrendingAssets(c *fiber.Ctx) error {
	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	limit := parsePositiveInt(c.Query("limit"), 10)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	trending, err := h.trending.GetTrendingAssets(c.Context(), userID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to rank assets"})
	}

	return c.JSON(fiber.Map{"assets": trending})
}

func (h *AssetHandler) ListWatchlist(c *fiber.Ctx) error {
	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	assets, err := h.assetRepo.ListWatchlist(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list watchlist"})
	}

	return c.JSON(fiber.Map{"assets": assets})
}

func (h *AssetHandler) AddToWatchlist(c *fiber.Ctx) error {
	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req watchlistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.AssetID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid asset id"})
	}

	if err := h.assetRepo.AddToWatchlist(c.Context(), userID, req.AssetID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Asset not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update watchlist"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

func (h *AssetHandler) RemoveFromWatchlist(c *fiber.Ctx) error {
	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	assetID, err := strconv.ParseInt(c.Params("assetId"), 10, 64)
	if err != nil || assetID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid asset id"})
	}

	removed, err := h.assetRepo.RemoveFromWatchlist(c.Context(), userID, assetID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update watchlist"})
	}
	if !removed {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Asset not in watchlist"})
	}

	return c.JSON(fiber.Map{"success": true})
}
