package repository

import (
	"context"

	"github.com/subbu1904/CoinTrackBack/internal/models"
)

// UpdateProfileInput carries one optional field per mutable column; nil means
// "leave unchanged". The UPDATE statement text is fixed, never assembled from
// request keys.
type UpdateProfileInput struct {
	DisplayName  *string
	AvatarURL    *string
	BaseCurrency *string
}

type UserProfileRepository struct {
	db DBTX
}

func NewUserProfileRepository(db DBTX) *UserProfileRepository {
	return &UserProfileRepository{db: db}
}

func (r *UserProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_profiles (user_id)
		VALUES ($1)
	`, userID)
	return err
}

func (r *UserProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.UserProfile, error) {
	query := `
		SELECT user_id, display_name, avatar_url, base_currency, created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`
	var profile models.UserProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.AvatarURL,
		&profile.BaseCurrency,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *UserProfileRepository) Update(
	ctx context.Context,
	userID int64,
	input UpdateProfileInput,
) (*models.UserProfile, error) {
	query := `
		UPDATE user_profiles
		SET display_name = COALESCE($2, display_name),
		    avatar_url = COALESCE($3, avatar_url),
		    base_currency = COALESCE($4, base_currency),
		    updated_at = NOW()
		WHERE user_id = $1
		RETURNING user_id, display_name, avatar_url, base_currency, created_at, updated_at
	`

	var profile models.UserProfile
	err := r.db.QueryRow(
		ctx,
		query,
		userID,
		input.DisplayName,
		input.AvatarURL,
		input.BaseCurrency,
	).Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.AvatarURL,
		&profile.BaseCurrency,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
