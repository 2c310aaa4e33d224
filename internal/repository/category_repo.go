package repository

import (
	"context"

	"github.com/subbu1904/CoinTrackBack/internal/models"
)

type CategoryRepository struct {
	db DBTX
}

func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(
	ctx context.Context,
	name string,
	parentID *int64,
) (*models.Category, error) {
	query := `
		INSERT INTO categories (name, parent_id)
		VALUES ($1, $2)
		RETURNING id, name, parent_id, created_at
	`

	var category models.Category
	err := r.db.QueryRow(ctx, query, name, parentID).Scan(
		&category.ID,
		&category.Name,
		&category.ParentID,
		&category.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &category, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, categoryID int64) (*models.Category, error) {
	query := `
		SELECT id, name, parent_id, created_at
		FROM categories
		WHERE id = $1
	`

	var category models.Category
	err := r.db.QueryRow(ctx, query, categoryID).Scan(
		&category.ID,
		&category.Name,
		&category.ParentID,
		&category.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &category, nil
}

func (r *CategoryRepository) ListAll(ctx context.Context) ([]models.Category, error) {
	query := `
		SELECT id, name, parent_id, created_at
		FROM categories
		ORDER BY parent_id NULLS FIRST, name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.ParentID,
			&category.CreatedAt,
		); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}
