package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/clipstream/clipstream/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

// Common errors for viewer profile repository operations.
var (
	ErrProfileNotFound = errors.New("viewer profile not found")
)

// GetViewerProfile retrieves a viewer's preference profile.
func (r *Repository) GetViewerProfile(ctx context.Context, userID string) (*model.ViewerProfile, error) {
	query := `
		SELECT user_id, preferences, updated_at
		FROM viewer_profiles
		WHERE user_id = $1
	`

	var profile model.ViewerProfile
	var prefs []string

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		pq.Array(&prefs),
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get viewer profile: %w", err)
	}

	profile.Preferences = prefs
	return &profile, nil
}

// UpsertViewerProfile creates or replaces a viewer's preference list.
func (r *Repository) UpsertViewerProfile(ctx context.Context, profile *model.ViewerProfile) error {
	query := `
		INSERT INTO viewer_profiles (user_id, preferences, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET preferences = EXCLUDED.preferences, updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		profile.UserID,
		pq.Array(profile.Preferences),
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert viewer profile: %w", err)
	}

	return nil
}
