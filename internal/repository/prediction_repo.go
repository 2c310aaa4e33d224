package repository

import (
	"context"
	"time"

	"github.com/subbu1904/CoinTrackBack/internal/models"
)

type CreatePredictionInput struct {
	UserID      int64
	AssetID     int64
	Direction   string
	TargetPrice *float64
	Rationale   *string
	ExpiresAt   time.Time
}

type PredictionListFilter struct {
	AssetID int64
	UserID  int64
}

type PredictionRepository struct {
	db DBTX
}

func NewPredictionRepository(db DBTX) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) Create(
	ctx context.Context,
	input CreatePredictionInput,
) (*models.Prediction, error) {
	query := `
		INSERT INTO predictions (user_id, asset_id, direction, target_price, rationale, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, asset_id, direction, target_price, rationale, expires_at, created_at, updated_at
	`

	var prediction models.Prediction
	err := r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.AssetID,
		input.Direction,
		input.TargetPrice,
		input.Rationale,
		input.ExpiresAt,
	).Scan(
		&prediction.ID,
		&prediction.UserID,
		&prediction.AssetID,
		&prediction.Direction,
		&prediction.TargetPrice,
		&prediction.Rationale,
		&prediction.ExpiresAt,
		&prediction.CreatedAt,
		&prediction.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &prediction, nil
}

func (r *PredictionRepository) GetByID(
	ctx context.Context,
	predictionID int64,
) (*models.PredictionSummary, error) {
	query := `
		SELECT
			p.id, p.user_id, p.asset_id, p.direction, p.target_price,
			p.rationale, p.expires_at, p.created_at, p.updated_at,
			COALESCE(SUM(CASE WHEN v.value = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN v.value = -1 THEN 1 ELSE 0 END), 0)
		FROM predictions p
		LEFT JOIN prediction_votes v ON v.prediction_id = p.id
		WHERE p.id = $1
		GROUP BY p.id
	`

	var summary models.PredictionSummary
	err := r.db.QueryRow(ctx, query, predictionID).Scan(
		&summary.ID,
		&summary.UserID,
		&summary.AssetID,
		&summary.Direction,
		&summary.TargetPrice,
		&summary.Rationale,
		&summary.ExpiresAt,
		&summary.CreatedAt,
		&summary.UpdatedAt,
		&summary.Upvotes,
		&summary.Downvotes,
	)
	if err != nil {
		return nil, err
	}

	return &summary, nil
}

func (r *PredictionRepository) List(
	ctx context.Context,
	filter PredictionListFilter,
) ([]models.PredictionSummary, error) {
	query := `
		SELECT
			p.id, p.user_id, p.asset_id, p.direction, p.target_price,
			p.rationale, p.expires_at, p.created_at, p.updated_at,
			COALESCE(SUM(CASE WHEN v.value = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN v.value = -1 THEN 1 ELSE 0 END), 0)
		FROM predictions p
		LEFT JOIN prediction_votes v ON v.prediction_id = p.id
		WHERE ($1 = 0 OR p.asset_id = $1)
		  AND ($2 = 0 OR p.user_id = $2)
		GROUP BY p.id
		ORDER BY p.created_at DESC, p.id DESC
	`

	rows, err := r.db.Query(ctx, query, filter.AssetID, filter.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.PredictionSummary, 0)
	for rows.Next() {
		var summary models.PredictionSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.UserID,
			&summary.AssetID,
			&summary.Direction,
			&summary.TargetPrice,
			&summary.Rationale,
			&summary.ExpiresAt,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.Upvotes,
			&summary.Downvotes,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

func (r *PredictionRepository) Delete(
	ctx context.Context,
	predictionID int64,
	ownerID int64,
) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM predictions
		WHERE id = $1 AND user_id = $2
	`, predictionID, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Vote upserts the caller's vote; one row per (prediction, user), revotes
// overwrite the previous value.
func (r *PredictionRepository) Vote(
	ctx context.Context,
	predictionID int64,
	userID int64,
	value int,
) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO prediction_votes (prediction_id, user_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (prediction_id, user_id)
		DO UPDATE SET value = EXCLUDED.value
	`, predictionID, userID, value)
	return err
}
