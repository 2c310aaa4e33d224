package repository

import (
	"context"

	"github.com/subbu1904/CoinTrackBack/internal/models"
)

type AnnouncementRepository struct {
	db DBTX
}

func NewAnnouncementRepository(db DBTX) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

func (r *AnnouncementRepository) Create(
	ctx context.Context,
	authorID int64,
	title string,
	body string,
) (*models.Announcement, error) {
	query := `
		INSERT INTO announcements (author_id, title, body)
		VALUES ($1, $2, $3)
		RETURNING id, author_id, title, body, is_active, created_at, updated_at
	`

	var announcement models.Announcement
	err := r.db.QueryRow(ctx, query, authorID, title, body).Scan(
		&announcement.ID,
		&announcement.AuthorID,
		&announcement.Title,
		&announcement.Body,
		&announcement.IsActive,
		&announcement.CreatedAt,
		&announcement.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &announcement, nil
}

func (r *AnnouncementRepository) ListActive(ctx context.Context) ([]models.Announcement, error) {
	query := `
		SELECT id, author_id, title, body, is_active, created_at, updated_at
		FROM announcements
		WHERE is_active = TRUE
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	announcements := make([]models.Announcement, 0)
	for rows.Next() {
		var announcement models.Announcement
		if err := rows.Scan(
			&announcement.ID,
			&announcement.AuthorID,
			&announcement.Title,
			&announcement.Body,
			&announcement.IsActive,
			&announcement.CreatedAt,
			&announcement.UpdatedAt,
		); err != nil {
			return nil, err
		}
		announcements = append(announcements, announcement)
	}

	return announcements, rows.Err()
}

func (r *AnnouncementRepository) Deactivate(
	ctx context.Context,
	announcementID int64,
) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE announcements
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE
	`, announcementID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
