package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/clipstream/clipstream/internal/model"
	"github.com/jackc/pgx/v5"
)

// Common errors for share link repository operations.
var (
	ErrShareNotFound = errors.New("share link not found")
	ErrTokenExists   = errors.New("share token already exists")
)

// CreateShareLink inserts a new share link.
func (r *Repository) CreateShareLink(ctx context.Context, share *model.ShareLink) error {
	query := `
		INSERT INTO share_links (id, token, video_id, created_by, access_count, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		share.ID,
		share.Token,
		share.VideoID,
		share.CreatedBy,
		share.AccessCount,
		share.Active,
		share.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrTokenExists
		}
		return fmt.Errorf("failed to create share link: %w", err)
	}

	return nil
}

// RedeemShareToken resolves an active share token to its video and bumps
// the access counter in the same statement. Inactive or unknown tokens
// return ErrShareNotFound; the two cases are indistinguishable on the
// wire so tokens cannot be probed for existence.
func (r *Repository) RedeemShareToken(ctx context.Context, token string) (string, error) {
	query := `
		UPDATE share_links
		SET access_count = access_count + 1
		WHERE token = $1 AND active
		RETURNING video_id
	`

	var videoID string
	err := r.pool.QueryRow(ctx, query, token).Scan(&videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrShareNotFound
		}
		return "", fmt.Errorf("failed to redeem share token: %w", err)
	}

	return videoID, nil
}

// GetShareLinkByToken retrieves a share link without touching its counter.
func (r *Repository) GetShareLinkByToken(ctx context.Context, token string) (*model.ShareLink, error) {
	query := `
		SELECT id, token, video_id, created_by, access_count, active, created_at
		FROM share_links
		WHERE token = $1
	`

	var share model.ShareLink
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&share.ID,
		&share.Token,
		&share.VideoID,
		&share.CreatedBy,
		&share.AccessCount,
		&share.Active,
		&share.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}

	return &share, nil
}

// DeactivateShareLink turns off a single token. Share tokens outlive
// visibility changes, so nothing in the engine calls this automatically;
// it backs the explicit revoke operation.
func (r *Repository) DeactivateShareLink(ctx context.Context, token string) error {
	query := `UPDATE share_links SET active = FALSE WHERE token = $1 AND active`

	result, err := r.pool.Exec(ctx, query, token)
	if err != nil {
		return fmt.Errorf("failed to deactivate share link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrShareNotFound
	}

	return nil
}
