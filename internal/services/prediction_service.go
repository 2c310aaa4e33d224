package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/subbu1904/CoinTrackBack/internal/models"
	"github.com/subbu1904/CoinTrackBack/internal/repository"
)

var (
	ErrPredictionExpired = errors.New("prediction expired")
	ErrAssetNotFound     = errors.New("asset not found")
)

type predictionStore interface {
	Create(ctx context.Context, input repository.CreatePredictionInput) (*models.Prediction, error)
	GetByID(ctx context.Context, predictionID int64) (*models.PredictionSummary, error)
	List(ctx context.Context, filter repository.PredictionListFilter) ([]models.PredictionSummary, error)
	Delete(ctx context.Context, predictionID int64, ownerID int64) (bool, error)
	Vote(ctx context.Context, predictionID int64, userID int64, value int) error
}

type assetReader interface {
	GetByID(ctx context.Context, assetID int64) (*models.Asset, error)
}

type PredictionService struct {
	predictionRepo predictionStore
	assetRepo      assetReader
}

type CreatePredictionInput struct {
	AssetID     int64
	Direction   string
	TargetPrice *float64
	Rationale   *string
	ExpiresAt   time.Time
}

func NewPredictionService(
	predictionRepo predictionStore,
	assetRepo assetReader,
) *PredictionService {
	return &PredictionService{
		predictionRepo: predictionRepo,
		assetRepo:      assetRepo,
	}
}

func (s *PredictionService) CreatePrediction(
	ctx context.Context,
	actorID int64,
	input CreatePredictionInput,
) (*models.Prediction, error) {
	if actorID <= 0 || input.AssetID <= 0 {
		return nil, ErrInvalidInput
	}
	if input.Direction != "up" && input.Direction != "down" {
		return nil, ErrInvalidInput
	}
	if !input.ExpiresAt.After(time.Now()) {
		return nil, ErrInvalidInput
	}
	if input.TargetPrice != nil && *input.TargetPrice <= 0 {
		return nil, ErrInvalidInput
	}

	var rationale *string
	if input.Rationale != nil {
		trimmed := strings.TrimSpace(*input.Rationale)
		if trimmed == "" {
			return nil, ErrInvalidInput
		}
		rationale = &trimmed
	}

	if _, err := s.assetRepo.GetByID(ctx, input.AssetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}

	return s.predictionRepo.Create(ctx, repository.CreatePredictionInput{
		UserID:      actorID,
		AssetID:     input.AssetID,
		Direction:   input.Direction,
		TargetPrice: input.TargetPrice,
		Rationale:   rationale,
		ExpiresAt:   input.ExpiresAt,
	})
}

func (s *PredictionService) ListPredictions(
	ctx context.Context,
	filter repository.PredictionListFilter,
) ([]models.PredictionSummary, error) {
	return s.predictionRepo.List(ctx, filter)
}

func (s *PredictionService) GetPrediction(
	ctx context.Context,
	predictionID int64,
) (*models.PredictionSummary, error) {
	if predictionID <= 0 {
		return nil, ErrInvalidInput
	}
	return s.predictionRepo.GetByID(ctx, predictionID)
}

// DeletePrediction reports not-found for both a missing prediction and one
// owned by someone else.
func (s *PredictionService) DeletePrediction(
	ctx context.Context,
	actorID int64,
	predictionID int64,
) error {
	if actorID <= 0 || predictionID <= 0 {
		return ErrInvalidInput
	}

	deleted, err := s.predictionRepo.Delete(ctx, predictionID, actorID)
	if err != nil {
		return err
	}
	if !deleted {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *PredictionService) VotePrediction(
	ctx context.Context,
	actorID int64,
	predictionID int64,
	value int,
) (*models.PredictionSummary, error) {
	if actorID <= 0 || predictionID <= 0 {
		return nil, ErrInvalidInput
	}
	if value != 1 && value != -1 {
		return nil, ErrInvalidInput
	}

	prediction, err := s.predictionRepo.GetByID(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	if prediction.UserID == actorID {
		return nil, ErrForbidden
	}
	if !prediction.ExpiresAt.After(time.Now()) {
		return nil, ErrPredictionExpired
	}

	if err := s.predictionRepo.Vote(ctx, predictionID, actorID, value); err != nil {
		return nil, err
	}

	return s.predictionRepo.GetByID(ctx, predictionID)
}
