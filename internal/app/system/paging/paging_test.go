package paging

import (
	"math"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name      string
		number    int
		limit     int
		wantPage  int
		wantLimit int
		wantSkip  int64
	}{
		{"defaults", 0, 0, 1, DefaultLimit, 0},
		{"explicit", 3, 20, 3, 20, 40},
		{"negative", -2, -5, 1, DefaultLimit, 0},
		{"limit capped", 1, 5000, 1, MaxLimit, 0},
		{"page capped", math.MaxInt, MaxLimit, MaxPage, MaxLimit, int64(MaxPage-1) * MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.number, tt.limit)
			if p.Number != tt.wantPage || p.Limit != tt.wantLimit {
				t.Errorf("NewPage() = %+v, want page=%d limit=%d", p, tt.wantPage, tt.wantLimit)
			}
			if p.Skip() != tt.wantSkip {
				t.Errorf("Skip() = %d, want %d", p.Skip(), tt.wantSkip)
			}
			if p.Skip() < 0 {
				t.Errorf("Skip() went negative: %d", p.Skip())
			}
		})
	}
}

func TestTrimPage(t *testing.T) {
	tests := []struct {
		name          string
		n             int
		before, after string
		wantLen       int
		want          Result
	}{
		{"first page, no extra", 3, "", "", 3, Result{}},
		{"first page, extra", PageSize + 1, "", "", PageSize, Result{HasNext: true}},
		{"forward, extra", PageSize + 1, "", "c", PageSize, Result{HasPrev: true, HasNext: true}},
		{"backward, extra", PageSize + 1, "c", "", PageSize, Result{HasPrev: true, HasNext: true}},
		{"backward, no extra", 3, "c", "", 3, Result{HasNext: true}},
		{"empty", 0, "", "", 0, Result{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]int, tt.n)
			got := TrimPage(&rows, tt.before, tt.after)
			if len(rows) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(rows), tt.wantLen)
			}
			if got != tt.want {
				t.Errorf("TrimPage() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConfigureKeyset(t *testing.T) {
	if cfg := ConfigureKeyset("", ""); cfg.Direction != Forward || cfg.SortOrder != 1 || cfg.Cursor != nil {
		t.Errorf("first page = %+v", cfg)
	}
	if cfg := ConfigureKeyset("b", "a"); cfg.Direction != Backward || cfg.SortOrder != -1 {
		t.Errorf("before should win: %+v", cfg)
	}
	if cfg := ConfigureKeyset("", "a"); cfg.KeysetWindow("name_ci") != nil && cfg.Cursor == nil {
		t.Errorf("window without cursor")
	}
}

func TestCursorRoundTrip(t *testing.T) {
	type item struct {
		Key string
		ID  primitive.ObjectID
	}
	rows := []item{{"alpha", primitive.NewObjectID()}, {"omega", primitive.NewObjectID()}}
	prev, next := BuildCursors(rows,
		func(i item) string { return i.Key },
		func(i item) primitive.ObjectID { return i.ID })
	if prev == "" || next == "" || prev == next {
		t.Fatalf("BuildCursors() = (%q, %q)", prev, next)
	}

	cfg := ConfigureKeyset("", next)
	if cfg.Cursor == nil {
		t.Fatal("cursor did not decode")
	}
	if cfg.Cursor.ID != rows[1].ID {
		t.Errorf("cursor id = %v, want %v", cfg.Cursor.ID, rows[1].ID)
	}
	if cfg.KeysetWindow("name_ci") == nil {
		t.Error("expected keyset window")
	}

	empty := []item{}
	if p, n := BuildCursors(empty, func(i item) string { return i.Key }, func(i item) primitive.ObjectID { return i.ID }); p != "" || n != "" {
		t.Errorf("empty rows gave (%q, %q)", p, n)
	}
}

func TestReverse(t *testing.T) {
	rows := []int{1, 2, 3, 4}
	Reverse(rows)
	for i, want := range []int{4, 3, 2, 1} {
		if rows[i] != want {
			t.Fatalf("Reverse() = %v", rows)
		}
	}
}
