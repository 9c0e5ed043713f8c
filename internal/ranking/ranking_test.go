package ranking

import (
	"testing"
	"time"

	"github.com/clipstream/clipstream/internal/model"
)

var baseTime = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func video(id string, views, likes int64, opts ...func(*model.Video)) *model.Video {
	v := &model.Video{
		ID:         id,
		OwnerID:    "owner",
		Visibility: model.VisibilityPublic,
		Views:      views,
		Likes:      likes,
		UploadedAt: baseTime,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func private() func(*model.Video) {
	return func(v *model.Video) { v.Visibility = model.VisibilityPrivate }
}

func category(c string) func(*model.Video) {
	return func(v *model.Video) { v.Category = c }
}

func uploadedAt(t time.Time) func(*model.Video) {
	return func(v *model.Video) { v.UploadedAt = t }
}

func ids(videos []*model.Video) []string {
	out := make([]string, len(videos))
	for i, v := range videos {
		out[i] = v.ID
	}
	return out
}

func assertOrder(t *testing.T, got []*model.Video, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %v, want %v", i, ids(got), want)
		}
	}
}

func TestPopular_Ordering(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("a", 10, 0),  // score 6
		video("b", 0, 100), // score 40
		video("c", 50, 50), // score 50
	}

	assertOrder(t, Popular(videos, Page{Limit: 10}), "c", "b", "a")
}

func TestPopular_TieBreakIDDescending(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("a", 10, 10),
		video("c", 10, 10),
		video("b", 10, 10),
	}

	assertOrder(t, Popular(videos, Page{Limit: 10}), "c", "b", "a")
}

func TestPopular_PaginationPartitionsWithoutOverlap(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("a", 100, 0),
		video("b", 200, 0),
		video("c", 300, 0),
	}

	first := Popular(videos, Page{Limit: 1, Offset: 0})
	second := Popular(videos, Page{Limit: 1, Offset: 1})

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected single-element pages, got %v and %v", ids(first), ids(second))
	}
	if first[0].ID != "c" || second[0].ID != "b" {
		t.Fatalf("pages do not partition the top 2: %v then %v", ids(first), ids(second))
	}
}

func TestPopular_ExcludesNonPublic(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("a", 10, 10),
		video("b", 10000, 10000, private()),
	}

	assertOrder(t, Popular(videos, Page{Limit: 10}), "a")
}

func TestPopular_DoesNotMutateSnapshot(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("a", 1, 0),
		video("z", 100, 0),
	}

	Popular(videos, Page{Limit: 10})

	if videos[0].ID != "a" || videos[1].ID != "z" {
		t.Fatal("snapshot order was mutated")
	}
}

func TestFeatured_CarouselScenario(t *testing.T) {
	t.Parallel()

	// Featured weights likes higher: 800*0.3+600*0.7 = 660 beats
	// 1000*0.3+500*0.7 = 650. The private outlier never appears.
	videos := []*model.Video{
		video("a", 1000, 500),
		video("b", 800, 600),
		video("c", 5000, 3000, private()),
	}

	assertOrder(t, Featured(videos, Page{Limit: 2}), "b", "a")
}

func TestFeatured_CapAtTen(t *testing.T) {
	t.Parallel()

	videos := make([]*model.Video, 0, 20)
	for i := 0; i < 20; i++ {
		videos = append(videos, video(string(rune('a'+i)), int64(i), 0))
	}

	got := Featured(videos, Page{Limit: 100})
	if len(got) != CapFeatured {
		t.Fatalf("len = %d, want %d", len(got), CapFeatured)
	}
}

func TestTrending_WindowAndOrdering(t *testing.T) {
	t.Parallel()

	now := baseTime
	fresh := now.Add(-24 * time.Hour)
	stale := now.Add(-8 * 24 * time.Hour)

	videos := []*model.Video{
		video("old", 99999, 0, uploadedAt(stale)),
		video("quiet", 10, 0, uploadedAt(fresh)),
		video("busy", 5, 0, uploadedAt(fresh)),
		video("hidden", 5, 0, uploadedAt(fresh), private()),
	}

	windowViews := map[string]int64{
		"old":    500, // irrelevant, outside upload window
		"busy":   40,
		"quiet":  3,
		"hidden": 90,
	}

	got := Trending(videos, windowViews, now, Page{Limit: 10})
	assertOrder(t, got, "busy", "quiet")
}

func TestTrending_TieBreakUploadDate(t *testing.T) {
	t.Parallel()

	now := baseTime
	videos := []*model.Video{
		video("older", 0, 0, uploadedAt(now.Add(-48*time.Hour))),
		video("newer", 0, 0, uploadedAt(now.Add(-12*time.Hour))),
	}

	got := Trending(videos, map[string]int64{"older": 7, "newer": 7}, now, Page{Limit: 10})
	assertOrder(t, got, "newer", "older")
}

func TestCategory_CaseInsensitiveExactMatch(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("a", 0, 0, category("Tech")),
		video("b", 0, 0, category("tech")),
		video("c", 0, 0, category("Technology")),
		video("d", 0, 0, category("Tech"), private()),
	}

	got := Category(videos, "TECH", Page{Limit: 10})
	assertOrder(t, got, "b", "a")
}

func TestCategory_EmptyMeansNoFilter(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("a", 0, 0, category("Tech")),
		video("b", 0, 0),
		video("c", 0, 0, private()),
	}

	got := Category(videos, "", Page{Limit: 10})
	if len(got) != 2 {
		t.Fatalf("empty category should return all public videos, got %v", ids(got))
	}
}

func TestRecent_NewestFirst(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{
		video("a", 0, 0, uploadedAt(baseTime.Add(-3*time.Hour))),
		video("b", 0, 0, uploadedAt(baseTime.Add(-1*time.Hour))),
		video("c", 0, 0, uploadedAt(baseTime.Add(-2*time.Hour))),
	}

	assertOrder(t, Recent(videos, Page{Limit: 10}), "b", "c", "a")
}

func TestPage_Clamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Page
		cap  int
		want Page
	}{
		{"zero limit", Page{Limit: 0}, CapGeneral, Page{Limit: 1, Offset: 0}},
		{"negative limit", Page{Limit: -5, Offset: 2}, CapGeneral, Page{Limit: 1, Offset: 2}},
		{"over cap", Page{Limit: 500}, CapGeneral, Page{Limit: CapGeneral, Offset: 0}},
		{"negative offset", Page{Limit: 10, Offset: -1}, CapGeneral, Page{Limit: 10, Offset: 0}},
		{"featured cap", Page{Limit: 50}, CapFeatured, Page{Limit: CapFeatured, Offset: 0}},
		{"in range", Page{Limit: 25, Offset: 100}, CapGeneral, Page{Limit: 25, Offset: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Clamp(tt.cap); got != tt.want {
				t.Fatalf("Clamp() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWindow_OffsetPastEnd(t *testing.T) {
	t.Parallel()

	videos := []*model.Video{video("a", 0, 0)}

	got := Popular(videos, Page{Limit: 10, Offset: 99})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil page, got %v", got)
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"popularity", "Featured", " trending ", "category", "recent", "preference", "recommendations"} {
		if _, ok := ParseKind(valid); !ok {
			t.Errorf("ParseKind(%q) should succeed", valid)
		}
	}
	if _, ok := ParseKind("bogus"); ok {
		t.Error("ParseKind should reject unknown kinds")
	}
}
