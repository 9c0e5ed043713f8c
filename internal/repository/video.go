package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clipstream/clipstream/internal/model"
	"github.com/jackc/pgx/v5"
)

// Common errors for video repository operations.
var (
	ErrVideoNotFound = errors.New("video not found")
)

const videoColumns = `id, owner_id, title, category, visibility, views, likes, view_limit, auto_private_after, uploaded_at, created_at, updated_at`

// CreateVideo inserts a new video into the database.
func (r *Repository) CreateVideo(ctx context.Context, video *model.Video) error {
	query := `
		INSERT INTO videos (id, owner_id, title, category, visibility, views, likes, view_limit, auto_private_after, uploaded_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		video.ID,
		video.OwnerID,
		video.Title,
		video.Category,
		video.Visibility,
		video.Views,
		video.Likes,
		video.ViewLimit,
		video.AutoPrivateAfter,
		video.UploadedAt,
		video.CreatedAt,
		video.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

// GetVideoByID retrieves a video by its ID.
func (r *Repository) GetVideoByID(ctx context.Context, id string) (*model.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	video, err := scanVideo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video by ID: %w", err)
	}

	return video, nil
}

// ListPublicVideos retrieves the public video snapshot the ranking engine
// operates on. Ordering is ID descending so repeated snapshots of an
// unchanged table are byte-for-byte identical.
func (r *Repository) ListPublicVideos(ctx context.Context) ([]*model.Video, error) {
	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE visibility = 'public'
		ORDER BY id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list public videos: %w", err)
	}
	defer rows.Close()

	var videos []*model.Video
	for rows.Next() {
		video, err := scanVideoFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating videos: %w", err)
	}

	return videos, nil
}

// IncrementViews atomically bumps the lifetime view counter and returns
// the updated video. The increment happens in SQL so concurrent views
// never read-modify-write a stale counter.
func (r *Repository) IncrementViews(ctx context.Context, id string) (*model.Video, error) {
	query := `
		UPDATE videos
		SET views = views + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + videoColumns

	video, err := scanVideo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to increment views: %w", err)
	}

	return video, nil
}

// IncrementLikes adjusts the like counter by delta (+1 or -1) and returns
// the new count. The counter never goes below zero.
func (r *Repository) IncrementLikes(ctx context.Context, id string, delta int64) (int64, error) {
	query := `
		UPDATE videos
		SET likes = GREATEST(likes + $2, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING likes
	`

	var likes int64
	err := r.pool.QueryRow(ctx, query, id, delta).Scan(&likes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrVideoNotFound
		}
		return 0, fmt.Errorf("failed to increment likes: %w", err)
	}

	return likes, nil
}

// MarkVideoPrivate flips a video to private. Returns true when the video
// actually transitioned; already-private videos are left untouched so the
// transition fires exactly once.
func (r *Repository) MarkVideoPrivate(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE videos
		SET visibility = 'private', updated_at = NOW()
		WHERE id = $1 AND visibility <> 'private'
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark video private: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// PrivatizeExpired flips every non-private video whose auto-private
// deadline has passed. Returns the IDs that transitioned.
func (r *Repository) PrivatizeExpired(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		UPDATE videos
		SET visibility = 'private', updated_at = NOW()
		WHERE visibility <> 'private'
		  AND auto_private_after IS NOT NULL
		  AND auto_private_after <= $1
		RETURNING id
	`

	return r.privatizeSet(ctx, query, now)
}

// PrivatizeViewLimited flips every non-private video whose view counter
// has reached its limit. A zero limit means no limit and never matches.
func (r *Repository) PrivatizeViewLimited(ctx context.Context) ([]string, error) {
	query := `
		UPDATE videos
		SET visibility = 'private', updated_at = NOW()
		WHERE visibility <> 'private'
		  AND view_limit IS NOT NULL
		  AND view_limit > 0
		  AND views >= view_limit
		RETURNING id
	`

	return r.privatizeSet(ctx, query)
}

func (r *Repository) privatizeSet(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to privatize videos: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan video ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating privatized videos: %w", err)
	}

	return ids, nil
}

// scanVideo scans a single row into a Video model.
func scanVideo(row pgx.Row) (*model.Video, error) {
	var video model.Video
	err := row.Scan(
		&video.ID,
		&video.OwnerID,
		&video.Title,
		&video.Category,
		&video.Visibility,
		&video.Views,
		&video.Likes,
		&video.ViewLimit,
		&video.AutoPrivateAfter,
		&video.UploadedAt,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	return &video, err
}

// scanVideoFromRows scans a row from pgx.Rows into a Video model.
func scanVideoFromRows(rows pgx.Rows) (*model.Video, error) {
	var video model.Video
	err := rows.Scan(
		&video.ID,
		&video.OwnerID,
		&video.Title,
		&video.Category,
		&video.Visibility,
		&video.Views,
		&video.Likes,
		&video.ViewLimit,
		&video.AutoPrivateAfter,
		&video.UploadedAt,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	return &video, err
}
