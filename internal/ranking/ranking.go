// Package ranking implements the pure scoring and selection functions
// behind the feed and recommendation endpoints. Every function operates
// on an in-memory snapshot of videos plus engagement aggregates, takes
// time as an explicit argument where it matters, and never touches
// storage, so orderings are reproducible and unit-testable.
package ranking

import (
	"sort"
	"strings"
	"time"

	"github.com/clipstream/clipstream/internal/model"
)

// Kind identifies a ranking strategy.
type Kind string

const (
	KindPopularity      Kind = "popularity"
	KindFeatured        Kind = "featured"
	KindTrending        Kind = "trending"
	KindCategory        Kind = "category"
	KindRecent          Kind = "recent"
	KindPreference      Kind = "preference"
	KindRecommendations Kind = "recommendations"
)

// ParseKind maps a request string to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindPopularity:
		return KindPopularity, true
	case KindFeatured:
		return KindFeatured, true
	case KindTrending:
		return KindTrending, true
	case KindCategory:
		return KindCategory, true
	case KindRecent:
		return KindRecent, true
	case KindPreference:
		return KindPreference, true
	case KindRecommendations:
		return KindRecommendations, true
	}
	return "", false
}

const (
	// CapGeneral is the max page size for the general list endpoints.
	CapGeneral = 50

	// CapFeatured is the max page size for the featured carousel.
	CapFeatured = 10

	// TrendingWindow is the trailing window for the trending feed: both
	// the upload-recency filter and the view-count window.
	TrendingWindow = 7 * 24 * time.Hour

	// keepWatched is how many of the viewer's most popular watched
	// videos stay eligible for preference-based re-recommendation.
	keepWatched = 5
)

// Page holds pagination parameters. Malformed values are clamped, never
// rejected: limit into [1, cap], offset to >= 0.
type Page struct {
	Limit  int
	Offset int
}

// Clamp normalizes the page against an endpoint's cap.
func (p Page) Clamp(cap int) Page {
	if p.Limit < 1 {
		p.Limit = 1
	}
	if p.Limit > cap {
		p.Limit = cap
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// CapFor returns the page-size cap for a kind.
func CapFor(kind Kind) int {
	if kind == KindFeatured {
		return CapFeatured
	}
	return CapGeneral
}

// PopularityScore is the general feed score: views weighted over likes.
func PopularityScore(v *model.Video) float64 {
	return float64(v.Views)*0.6 + float64(v.Likes)*0.4
}

// FeaturedScore is the carousel score: likes weighted over views. The
// carousel deliberately surfaces well-liked videos rather than merely
// well-viewed ones.
func FeaturedScore(v *model.Video) float64 {
	return float64(v.Views)*0.3 + float64(v.Likes)*0.7
}

// Popular returns public videos ordered by popularity score descending.
func Popular(videos []*model.Video, p Page) []*model.Video {
	ranked := filterPublic(videos)
	sortByScore(ranked, PopularityScore)
	return window(ranked, p.Clamp(CapGeneral))
}

// Featured returns public videos ordered by the carousel score
// descending, capped at the carousel page size.
func Featured(videos []*model.Video, p Page) []*model.Video {
	ranked := filterPublic(videos)
	sortByScore(ranked, FeaturedScore)
	return window(ranked, p.Clamp(CapFeatured))
}

// Trending returns public videos uploaded within the trailing window,
// ordered by the count of distinct-viewer views recorded inside that
// same window. windowViews maps video ID to that count; lifetime view
// totals are deliberately ignored.
func Trending(videos []*model.Video, windowViews map[string]int64, now time.Time, p Page) []*model.Video {
	cutoff := now.Add(-TrendingWindow)

	ranked := make([]*model.Video, 0, len(videos))
	for _, v := range videos {
		if v.Visibility != model.VisibilityPublic {
			continue
		}
		if v.UploadedAt.Before(cutoff) {
			continue
		}
		ranked = append(ranked, v)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if windowViews[a.ID] != windowViews[b.ID] {
			return windowViews[a.ID] > windowViews[b.ID]
		}
		if !a.UploadedAt.Equal(b.UploadedAt) {
			return a.UploadedAt.After(b.UploadedAt)
		}
		return a.ID > b.ID
	})

	return window(ranked, p.Clamp(CapGeneral))
}

// Category returns public videos whose category matches exactly,
// case-insensitively, newest first. An empty category means "no filter",
// not "no results".
func Category(videos []*model.Video, category string, p Page) []*model.Video {
	category = strings.TrimSpace(category)

	ranked := make([]*model.Video, 0, len(videos))
	for _, v := range videos {
		if v.Visibility != model.VisibilityPublic {
			continue
		}
		if category != "" && !strings.EqualFold(v.Category, category) {
			continue
		}
		ranked = append(ranked, v)
	}

	sortByRecency(ranked)
	return window(ranked, p.Clamp(CapGeneral))
}

// Recent returns public videos newest first.
func Recent(videos []*model.Video, p Page) []*model.Video {
	ranked := filterPublic(videos)
	sortByRecency(ranked)
	return window(ranked, p.Clamp(CapGeneral))
}

// filterPublic copies the public subset so sorting never reorders the
// caller's snapshot.
func filterPublic(videos []*model.Video) []*model.Video {
	out := make([]*model.Video, 0, len(videos))
	for _, v := range videos {
		if v.Visibility == model.VisibilityPublic {
			out = append(out, v)
		}
	}
	return out
}

// sortByScore orders by score descending with ID descending as the
// deterministic tie-break; storage order must never leak through.
func sortByScore(videos []*model.Video, score func(*model.Video) float64) {
	sort.Slice(videos, func(i, j int) bool {
		a, b := videos[i], videos[j]
		sa, sb := score(a), score(b)
		if sa != sb {
			return sa > sb
		}
		return a.ID > b.ID
	})
}

// sortByRecency orders by upload time descending, ID descending on ties.
func sortByRecency(videos []*model.Video) {
	sort.Slice(videos, func(i, j int) bool {
		a, b := videos[i], videos[j]
		if !a.UploadedAt.Equal(b.UploadedAt) {
			return a.UploadedAt.After(b.UploadedAt)
		}
		return a.ID > b.ID
	})
}

// window applies a clamped page to an already-ordered list.
func window(videos []*model.Video, p Page) []*model.Video {
	if p.Offset >= len(videos) {
		return []*model.Video{}
	}
	end := p.Offset + p.Limit
	if end > len(videos) {
		end = len(videos)
	}
	out := make([]*model.Video, end-p.Offset)
	copy(out, videos[p.Offset:end])
	return out
}
