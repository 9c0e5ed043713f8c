// Package model defines domain entities for the application.
package model

import (
	"strconv"
	"time"
)

// Visibility represents who can see a video.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
)

// IsValid checks if the visibility value is one of the known states.
func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityUnlisted || v == VisibilityPrivate
}

// Video represents a video entity with its engagement aggregates.
// Views and Likes are denormalized counters maintained by atomic SQL
// increments; the engagement event rows are the source of truth for
// per-user state.
type Video struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"owner_id"`
	Title            string     `json:"title"`
	Category         string     `json:"category,omitempty"`
	Visibility       Visibility `json:"visibility"`
	Views            int64      `json:"views"`
	Likes            int64      `json:"likes"`
	ViewLimit        *int64     `json:"view_limit,omitempty"`
	AutoPrivateAfter *time.Time `json:"auto_private_after,omitempty"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsPrivate returns true if the video is not servable to non-owners.
func (v *Video) IsPrivate() bool {
	return v.Visibility == VisibilityPrivate
}

// ViewableBy reports whether the given caller may view the video.
// Private videos are viewable only by their owner; an empty caller ID
// means the request is anonymous.
func (v *Video) ViewableBy(callerID string) bool {
	if !v.IsPrivate() {
		return true
	}
	return callerID != "" && callerID == v.OwnerID
}

// HasViewLimit reports whether a usage limit applies.
// A limit of exactly 0 is a "no limit" sentinel, not "already exceeded".
func (v *Video) HasViewLimit() bool {
	return v.ViewLimit != nil && *v.ViewLimit != 0
}

// ShouldBecomePrivate decides whether the video must transition to
// private, given its current counters and the supplied clock reading.
// The transition itself is applied by the repository; this predicate is
// pure so policy can be tested without a store or a wall clock.
func (v *Video) ShouldBecomePrivate(now time.Time) bool {
	if v.HasViewLimit() && v.Views >= *v.ViewLimit {
		return true
	}
	if v.AutoPrivateAfter != nil && !now.Before(*v.AutoPrivateAfter) {
		return true
	}
	return false
}

// CachedVideo represents video data stored in Redis cache.
// Uses string types for Redis hash compatibility.
type CachedVideo struct {
	OwnerID          string `redis:"owner_id"`
	Title            string `redis:"title"`
	Category         string `redis:"category"`
	Visibility       string `redis:"visibility"`
	Views            string `redis:"views"`
	Likes            string `redis:"likes"`
	ViewLimit        string `redis:"view_limit"`         // int64 or empty
	AutoPrivateAfter string `redis:"auto_private_after"` // Unix timestamp or empty
	UploadedAt       string `redis:"uploaded_at"`        // Unix timestamp
	UpdatedAt        string `redis:"updated_at"`         // Unix timestamp
}

// ToVideo converts CachedVideo to the Video domain model.
func (c *CachedVideo) ToVideo(id string) *Video {
	video := &Video{
		ID:         id,
		OwnerID:    c.OwnerID,
		Title:      c.Title,
		Category:   c.Category,
		Visibility: Visibility(c.Visibility),
	}

	if n, err := strconv.ParseInt(c.Views, 10, 64); err == nil {
		video.Views = n
	}
	if n, err := strconv.ParseInt(c.Likes, 10, 64); err == nil {
		video.Likes = n
	}
	if c.ViewLimit != "" {
		if n, err := strconv.ParseInt(c.ViewLimit, 10, 64); err == nil {
			video.ViewLimit = &n
		}
	}
	if c.AutoPrivateAfter != "" {
		if ts, err := strconv.ParseInt(c.AutoPrivateAfter, 10, 64); err == nil {
			t := time.Unix(ts, 0).UTC()
			video.AutoPrivateAfter = &t
		}
	}
	if c.UploadedAt != "" {
		if ts, err := strconv.ParseInt(c.UploadedAt, 10, 64); err == nil {
			video.UploadedAt = time.Unix(ts, 0).UTC()
		}
	}
	if c.UpdatedAt != "" {
		if ts, err := strconv.ParseInt(c.UpdatedAt, 10, 64); err == nil {
			video.UpdatedAt = time.Unix(ts, 0).UTC()
		}
	}

	return video
}

// ToCachedVideo converts the Video domain model to CachedVideo.
func (v *Video) ToCachedVideo() *CachedVideo {
	cached := &CachedVideo{
		OwnerID:    v.OwnerID,
		Title:      v.Title,
		Category:   v.Category,
		Visibility: string(v.Visibility),
		Views:      strconv.FormatInt(v.Views, 10),
		Likes:      strconv.FormatInt(v.Likes, 10),
		UploadedAt: strconv.FormatInt(v.UploadedAt.Unix(), 10),
		UpdatedAt:  strconv.FormatInt(v.UpdatedAt.Unix(), 10),
	}

	if v.ViewLimit != nil {
		cached.ViewLimit = strconv.FormatInt(*v.ViewLimit, 10)
	}
	if v.AutoPrivateAfter != nil {
		cached.AutoPrivateAfter = strconv.FormatInt(v.AutoPrivateAfter.Unix(), 10)
	}

	return cached
}
