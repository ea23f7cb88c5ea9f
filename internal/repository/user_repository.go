package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kino-alert-matching-service/internal/models"
)

// UserRepository reads contact details owned by the account service.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetEmail returns the user's email address, or models.ErrContactNotFound.
func (r *UserRepository) GetEmail(ctx context.Context, userID string) (string, error) {
	var email sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && (!email.Valid || email.String == "")) {
		return "", models.ErrContactNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user email: %w", err)
	}
	return email.String, nil
}
