package repository

import (
	"context"

	"github.com/subbu1904/CoinTrackBack/internal/models"
)

type CreateAssetInput struct {
	Symbol     string
	Name       string
	CategoryID *int64
}

type AssetRepository struct {
	db DBTX
}

func NewAssetRepository(db DBTX) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) Create(
	ctx context.Context,
	input CreateAssetInput,
) (*models.Asset, error) {
	query := `
		INSERT INTO assets (symbol, name, category_id)
		VALUES ($1, $2, $3)
		RETURNING id, symbol, name, category_id, created_at
	`

	var asset models.Asset
	err := r.db.QueryRow(ctx, query, input.Symbol, input.Name, input.CategoryID).Scan(
		&asset.ID,
		&asset.Symbol,
		&asset.Name,
		&asset.CategoryID,
		&asset.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &asset, nil
}

func (r *AssetRepository) GetByID(ctx context.Context, assetID int64) (*models.Asset, error) {
	query := `
		SELECT id, symbol, name, category_id, created_at
		FROM assets
		WHERE id = $1
	`

	var asset models.Asset
	err := r.db.QueryRow(ctx, query, assetID).Scan(
		&asset.ID,
		&asset.Symbol,
		&asset.Name,
		&asset.CategoryID,
		&asset.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &asset, nil
}

func (r *AssetRepository) List(ctx context.Context, categoryID *int64) ([]models.Asset, error) {
	query := `
		SELECT id, symbol, name, category_id, created_at
		FROM assets
		WHERE $1::bigint IS NULL OR category_id = $1
		ORDER BY symbol
	`

	rows, err := r.db.Query(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]models.Asset, 0)
	for rows.Next() {
		var asset models.Asset
		if err := rows.Scan(
			&asset.ID,
			&asset.Symbol,
			&asset.Name,
			&asset.CategoryID,
			&asset.CreatedAt,
		); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	return assets, rows.Err()
}

func (r *AssetRepository) AddToWatchlist(ctx context.Context, userID int64, assetID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO watchlist_items (user_id, asset_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, asset_id) DO NOTHING
	`, userID, assetID)
	return err
}

func (r *AssetRepository) RemoveFromWatchlist(
	ctx context.Context,
	userID int64,
	assetID int64,
) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM watchlist_items
		WHERE user_id = $1 AND asset_id = $2
	`, userID, assetID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AssetRepository) ListWatchlist(ctx context.Context, userID int64) ([]models.Asset, error) {
	query := `
		SELECT a.id, a.symbol, a.name, a.category_id, a.created_at
		FROM watchlist_items w
		JOIN assets a ON a.id = w.asset_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, a.id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]models.Asset, 0)
	for rows.Next() {
		var asset models.Asset
		if err := rows.Scan(
			&asset.ID,
			&asset.Symbol,
			&asset.Name,
			&asset.CategoryID,
			&asset.CreatedAt,
		); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	return assets, rows.Err()
}

// VoteTotalsByAsset sums prediction votes per asset for unexpired predictions.
func (r *AssetRepository) VoteTotalsByAsset(ctx context.Context) (map[int64]int, error) {
	query := `
		SELECT p.asset_id, COALESCE(SUM(v.value), 0)
		FROM predictions p
		LEFT JOIN prediction_votes v ON v.prediction_id = p.id
		WHERE p.expires_at > NOW()
		GROUP BY p.asset_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[int64]int)
	for rows.Next() {
		var assetID int64
		var total int
		if err := rows.Scan(&assetID, &total); err != nil {
			return nil, err
		}
		totals[assetID] = total
	}

	return totals, rows.Err()
}
