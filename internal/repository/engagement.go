package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/clipstream/clipstream/internal/model"
)

// UpsertViewEvent records that a viewer watched a video. At most one row
// exists per (video, viewer) pair; repeat views refresh viewed_at.
// Returns true when the pair was new.
func (r *Repository) UpsertViewEvent(ctx context.Context, event *model.ViewEvent) (bool, error) {
	query := `
		INSERT INTO view_events (id, video_id, viewer_id, viewed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (video_id, viewer_id)
		DO UPDATE SET viewed_at = EXCLUDED.viewed_at
		RETURNING (xmax = 0)
	`

	var inserted bool
	err := r.pool.QueryRow(ctx, query,
		event.ID,
		event.VideoID,
		event.ViewerID,
		event.ViewedAt,
	).Scan(&inserted)

	if err != nil {
		return false, fmt.Errorf("failed to upsert view event: %w", err)
	}

	return inserted, nil
}

// InsertLikeEvent records a like. Returns false when the (video, user)
// pair already has one, which is how the service detects an idempotent
// repeat like without a read-then-write race.
func (r *Repository) InsertLikeEvent(ctx context.Context, event *model.LikeEvent) (bool, error) {
	query := `
		INSERT INTO like_events (id, video_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (video_id, user_id) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query,
		event.ID,
		event.VideoID,
		event.UserID,
		event.CreatedAt,
	)

	if err != nil {
		return false, fmt.Errorf("failed to insert like event: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// DeleteLikeEvent removes a like. Returns false when no like existed, so
// an unlike on an unliked video never decrements the counter.
func (r *Repository) DeleteLikeEvent(ctx context.Context, videoID, userID string) (bool, error) {
	query := `DELETE FROM like_events WHERE video_id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, videoID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete like event: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// HasLiked reports whether the user currently likes the video.
func (r *Repository) HasLiked(ctx context.Context, videoID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM like_events WHERE video_id = $1 AND user_id = $2)`

	var liked bool
	if err := r.pool.QueryRow(ctx, query, videoID, userID).Scan(&liked); err != nil {
		return false, fmt.Errorf("failed to check like existence: %w", err)
	}

	return liked, nil
}

// ListViewedVideoIDs returns the IDs of every video the viewer has
// watched, newest view first.
func (r *Repository) ListViewedVideoIDs(ctx context.Context, viewerID string) ([]string, error) {
	query := `
		SELECT video_id
		FROM view_events
		WHERE viewer_id = $1
		ORDER BY viewed_at DESC, video_id DESC
	`

	rows, err := r.pool.Query(ctx, query, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list viewed videos: %w", err)
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
		return nil, fmt.Errorf("error iterating viewed videos: %w", err)
	}

	return ids, nil
}

// CountRecentViews returns distinct-viewer view counts per video for
// events recorded at or after since. Feeds the trending ranking.
func (r *Repository) CountRecentViews(ctx context.Context, since time.Time) (map[string]int64, error) {
	query := `
		SELECT video_id, COUNT(*)
		FROM view_events
		WHERE viewed_at >= $1
		GROUP BY video_id
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent views: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var id string
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan view count: %w", err)
		}
		counts[id] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating view counts: %w", err)
	}

	return counts, nil
}
