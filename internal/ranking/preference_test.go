package ranking

import (
	"testing"
	"time"

	"github.com/clipstream/clipstream/internal/model"
)

func TestPreferred_EmptyPrefsFallsBackToPopularity(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("a", 10, 0),
		video("b", 100, 0),
	}

	got := Preferred(videos, nil, nil, Page{Limit: 10})
	assertOrder(t, got, "b", "a")

	got = Preferred(videos, []string{"", "  "}, nil, Page{Limit: 10})
	assertOrder(t, got, "b", "a")
}

func TestPreferred_MatchesAreSubstringCaseInsensitive(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("a", 0, 0, category("Technology"), uploadedAt(baseTime.Add(-2*time.Hour))),
		video("b", 0, 0, category("FinTech"), uploadedAt(baseTime.Add(-1*time.Hour))),
		video("c", 0, 0, category("Cooking"), uploadedAt(baseTime)),
	}

	got := Preferred(videos, []string{"tech"}, nil, Page{Limit: 2})
	assertOrder(t, got, "b", "a")
}

func TestPreferred_PrimaryNewestFirstThenPopularBackfill(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("match-old", 9000, 9000, category("Tech"), uploadedAt(baseTime.Add(-48*time.Hour))),
		video("match-new", 0, 0, category("Tech"), uploadedAt(baseTime)),
		video("other-hot", 500, 500, category("Cooking")),
		video("other-cold", 1, 0, category("Cooking")),
	}

	got := Preferred(videos, []string{"Tech"}, nil, Page{Limit: 10})
	// Matches first by recency, then the rest by popularity.
	assertOrder(t, got, "match-new", "match-old", "other-hot", "other-cold")
}

func TestPreferred_BackfillSkipsAlreadySelected(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("a", 1000, 1000, category("Tech")),
		video("b", 10, 0, category("Cooking")),
	}

	got := Preferred(videos, []string{"tech"}, nil, Page{Limit: 10})
	assertOrder(t, got, "a", "b")
}

func TestPreferred_WatchedAtOrBelowFiveAllEligible(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("a", 0, 0, category("Tech")),
		video("b", 0, 0, category("Tech")),
		video("c", 0, 0, category("Tech")),
	}

	got := Preferred(videos, []string{"Tech"}, []string{"a", "b", "c"}, Page{Limit: 10})
	if len(got) != 3 {
		t.Fatalf("a small watch history must not exclude anything, got %v", ids(got))
	}
}

func TestPreferred_TopFiveWatchedStayEligible(t *testing.T) {
	t.Parallel()

	// Six watched videos in one category. The five most popular remain
	// eligible, the least popular watched video is excluded everywhere.
	videos := []*model.Video{
		video("w1", 600, 0, category("Tech")),
		video("w2", 500, 0, category("Tech")),
		video("w3", 400, 0, category("Tech")),
		video("w4", 300, 0, category("Tech")),
		video("w5", 200, 0, category("Tech")),
		video("w6", 100, 0, category("Tech")),
	}
	watched := []string{"w6", "w5", "w4", "w3", "w2", "w1"}

	got := Preferred(videos, []string{"Tech"}, watched, Page{Limit: 10})
	if len(got) != 5 {
		t.Fatalf("want 5 eligible videos, got %v", ids(got))
	}
	for _, v := range got {
		if v.ID == "w6" {
			t.Fatal("least popular watched video must be excluded")
		}
	}
}

func TestPreferred_ExcludedWatchedAlsoBlockedFromBackfill(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("w1", 600, 0, category("Cooking")),
		video("w2", 500, 0, category("Cooking")),
		video("w3", 400, 0, category("Cooking")),
		video("w4", 300, 0, category("Cooking")),
		video("w5", 200, 0, category("Cooking")),
		video("w6", 100, 0, category("Cooking")),
		video("m1", 0, 0, category("Tech")),
	}
	watched := []string{"w1", "w2", "w3", "w4", "w5", "w6"}

	got := Preferred(videos, []string{"Tech"}, watched, Page{Limit: 10})
	for _, v := range got {
		if v.ID == "w6" {
			t.Fatal("excluded watched video leaked through the backfill")
		}
	}
	if got[0].ID != "m1" {
		t.Fatalf("preference match should lead, got %v", ids(got))
	}
	if len(got) != 6 {
		t.Fatalf("want match plus 5 backfill, got %v", ids(got))
	}
}

func TestPreferred_WatchedIDsMissingFromSnapshot(t *testing.T) {
	t.Parallel()

	// History can reference videos that were deleted or privatized since.
	videos := []*model.Video{
		video("a", 10, 0, category("Tech")),
	}
	watched := []string{"gone-1", "gone-2", "gone-3", "gone-4", "gone-5", "gone-6"}

	got := Preferred(videos, []string{"Tech"}, watched, Page{Limit: 10})
	assertOrder(t, got, "a")
}

func TestPreferred_PaginationOverCombinedList(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("m", 0, 0, category("Tech")),
		video("hot", 100, 0, category("Cooking")),
		video("cold", 1, 0, category("Cooking")),
	}

	first := Preferred(videos, []string{"Tech"}, nil, Page{Limit: 2, Offset: 0})
	assertOrder(t, first, "m", "hot")

	second := Preferred(videos, []string{"Tech"}, nil, Page{Limit: 2, Offset: 2})
	assertOrder(t, second, "cold")
}
