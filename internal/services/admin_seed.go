package services

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/subbu1904/CoinTrackBack/internal/models"
	"github.com/subbu1904/CoinTrackBack/internal/repository"
	"github.com/subbu1904/CoinTrackBack/pkg/utils"
)

// EnsureDefaultAdmin creates the bootstrap admin account on startup when
// DEFAULT_ADMIN_EMAIL and DEFAULT_ADMIN_PASSWORD are configured. An existing
// account with that email is left untouched, so restarts are no-ops and the
// seed never overwrites a rotated password.
func EnsureDefaultAdmin(ctx context.Context, db *pgxpool.Pool, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	userRepo := repository.NewUserRepository(db)
	if _, err := userRepo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         "admin",
	}
	if err := repository.NewUserRepository(tx).CreateUser(ctx, user); err != nil {
		return err
	}
	if err := repository.NewUserProfileRepository(tx).CreateEmpty(ctx, user.ID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("Seeded default admin account %s", email)
	return nil
}
