package ranking

import (
	"sort"
	"strings"

	"github.com/clipstream/clipstream/internal/model"
)

// Preferred returns the personalized feed for a viewer with free-text
// category preferences and a watch history.
//
// The viewer's five most popular watched videos (popularity of the video
// itself, not the viewer's own replay count) stay eligible so favorites
// can be rediscovered; the long tail of already-seen videos is excluded
// from the whole pipeline, backfill included. Preference matching is a
// case-insensitive substring OR-filter over the category, newest first,
// topped up from the popularity ordering when the filtered set cannot
// fill the page.
func Preferred(videos []*model.Video, prefs []string, watched []string, p Page) []*model.Video {
	prefs = nonEmpty(prefs)
	if len(prefs) == 0 {
		return Popular(videos, p)
	}

	excluded := excludedWatched(videos, watched)

	primary := make([]*model.Video, 0, len(videos))
	for _, v := range videos {
		if v.Visibility != model.VisibilityPublic || excluded[v.ID] {
			continue
		}
		if matchesAnyPreference(v.Category, prefs) {
			primary = append(primary, v)
		}
	}
	sortByRecency(primary)

	selected := make(map[string]bool, len(primary))
	for _, v := range primary {
		selected[v.ID] = true
	}

	backfill := filterPublic(videos)
	sortByScore(backfill, PopularityScore)

	combined := primary
	for _, v := range backfill {
		if selected[v.ID] || excluded[v.ID] {
			continue
		}
		combined = append(combined, v)
	}

	return window(combined, p.Clamp(CapGeneral))
}

// excludedWatched returns the watched videos hidden from recommendation:
// everything the viewer has seen except their keepWatched most popular
// watched videos.
func excludedWatched(videos []*model.Video, watched []string) map[string]bool {
	if len(watched) <= keepWatched {
		return map[string]bool{}
	}

	byID := make(map[string]*model.Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}

	seen := make([]*model.Video, 0, len(watched))
	for _, id := range watched {
		if v, ok := byID[id]; ok {
			seen = append(seen, v)
		}
	}
	sort.Slice(seen, func(i, j int) bool {
		a, b := seen[i], seen[j]
		sa, sb := PopularityScore(a), PopularityScore(b)
		if sa != sb {
			return sa > sb
		}
		return a.ID > b.ID
	})

	excluded := make(map[string]bool)
	for i, v := range seen {
		if i >= keepWatched {
			excluded[v.ID] = true
		}
	}
	return excluded
}

func matchesAnyPreference(category string, prefs []string) bool {
	category = strings.ToLower(category)
	for _, pref := range prefs {
		if strings.Contains(category, strings.ToLower(pref)) {
			return true
		}
	}
	return false
}

func nonEmpty(prefs []string) []string {
	out := make([]string, 0, len(prefs))
	for _, pref := range prefs {
		if trimmed := strings.TrimSpace(pref); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
