package store

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dailymemedigest/memefactory/pkg/errors"
)

var epoch = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func meme(i int) *Meme {
	return &Meme{
		ID:        fmt.Sprintf("00000000-0000-4000-8000-%012d", i),
		Prompt:    fmt.Sprintf("prompt %d", i),
		NewsURL:   fmt.Sprintf("https://example.com/%d", i),
		Template:  "drake_pointing",
		Caption:   map[string]string{"top_text": "old", "bottom_text": "new"},
		ImageURL:  fmt.Sprintf("/media/%d.png", i),
		Width:     1024,
		Height:    768,
		Trends:    []string{"ai"},
		CreatedAt: epoch.Add(time.Duration(i) * time.Minute),
	}
}

func ids(memes []Meme) []string {
	out := make([]string, len(memes))
	for i, m := range memes {
		out[i] = m.ID[len(m.ID)-2:]
	}
	return out
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// testStore runs the behaviour every backend shares.
func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		n, err := s.Count(ctx)
		if err != nil || n != 0 {
			t.Fatalf("Count() = %d, %v", n, err)
		}
		memes, err := s.List(ctx, ListOptions{})
		if err != nil || len(memes) != 0 {
			t.Fatalf("List() = %v, %v", memes, err)
		}
	})

	for i := 1; i <= 5; i++ {
		if err := s.Save(ctx, meme(i)); err != nil {
			t.Fatalf("Save(%d) error: %v", i, err)
		}
	}

	t.Run("get", func(t *testing.T) {
		got, err := s.Get(ctx, meme(3).ID)
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		want := meme(3)
		if got.Prompt != want.Prompt || got.Width != 1024 || got.Caption["top_text"] != "old" ||
			len(got.Trends) != 1 || !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("Get() = %+v", got)
		}
		if _, err := s.Get(ctx, "nope"); !errors.Is(err, errors.ErrCodeMemeNotFound) {
			t.Errorf("Get(missing) error = %v", err)
		}
	})

	t.Run("recent", func(t *testing.T) {
		memes, err := s.List(ctx, ListOptions{Sort: SortRecent})
		if err != nil {
			t.Fatal(err)
		}
		if got := fmt.Sprint(ids(memes)); got != "[05 04 03 02 01]" {
			t.Errorf("recent order = %s", got)
		}
	})

	t.Run("paging", func(t *testing.T) {
		memes, err := s.List(ctx, ListOptions{Limit: 2, Offset: 1})
		if err != nil {
			t.Fatal(err)
		}
		if got := fmt.Sprint(ids(memes)); got != "[04 03]" {
			t.Errorf("page = %s", got)
		}
		memes, err = s.List(ctx, ListOptions{Limit: 2, Offset: 10})
		if err != nil || len(memes) != 0 {
			t.Errorf("past the end = %v, %v", memes, err)
		}
	})

	t.Run("vote", func(t *testing.T) {
		for _, v := range []struct {
			i, delta, want int
		}{{2, 1, 1}, {2, 1, 2}, {4, 1, 1}, {5, -1, -1}} {
			n, err := s.Vote(ctx, meme(v.i).ID, v.delta)
			if err != nil || n != v.want {
				t.Errorf("Vote(%d, %d) = %d, %v; want %d", v.i, v.delta, n, err, v.want)
			}
		}
		if _, err := s.Vote(ctx, "nope", 1); !errors.Is(err, errors.ErrCodeMemeNotFound) {
			t.Errorf("Vote(missing) error = %v", err)
		}
	})

	t.Run("top", func(t *testing.T) {
		memes, err := s.List(ctx, ListOptions{Sort: SortTop})
		if err != nil {
			t.Fatal(err)
		}
		if got := fmt.Sprint(ids(memes)); got != "[02 04 03 01 05]" {
			t.Errorf("top order = %s", got)
		}
	})

	t.Run("bad sort", func(t *testing.T) {
		if _, err := s.List(ctx, ListOptions{Sort: "random"}); !errors.Is(err, errors.ErrCodeInvalidSort) {
			t.Errorf("List(random) error = %v", err)
		}
	})

	t.Run("count", func(t *testing.T) {
		if n, err := s.Count(ctx); err != nil || n != 5 {
			t.Errorf("Count() = %d, %v", n, err)
		}
	})

	t.Run("save requires id", func(t *testing.T) {
		if err := s.Save(ctx, &Meme{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Save(no id) error = %v", err)
		}
	})
}

func TestListOptionsNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   ListOptions
		want ListOptions
	}{
		{"defaults", ListOptions{}, ListOptions{Sort: SortRecent, Limit: MaxList}},
		{"keeps", ListOptions{Sort: SortTop, Limit: 30, Offset: 60}, ListOptions{Sort: SortTop, Limit: 30, Offset: 60}},
		{"caps", ListOptions{Limit: 5000, Offset: -3}, ListOptions{Sort: SortRecent, Limit: MaxList}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if err != nil || got != tt.want {
				t.Errorf("Normalize() = %+v, %v; want %+v", got, err, tt.want)
			}
		})
	}
}

func TestSaveDefaultsCreatedAt(t *testing.T) {
	s := NewFileStore(t.TempDir() + "/memes.json")
	m := &Meme{ID: "x"}
	if err := s.Save(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	if m.CreatedAt.IsZero() || m.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt = %v", m.CreatedAt)
	}
}
