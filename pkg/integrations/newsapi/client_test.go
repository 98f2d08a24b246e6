package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dailymemedigest/memefactory/pkg/cache"
	"github.com/dailymemedigest/memefactory/pkg/integrations"
)

func TestEverything(t *testing.T) {
	var gotKey string
	var gotQuery map[string]string
	calls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/everything" {
			t.Errorf("path = %s, want /everything", r.URL.Path)
		}
		gotKey = r.Header.Get("X-Api-Key")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		json.NewEncoder(w).Encode(Response{
			Status:       "ok",
			TotalResults: 1,
			Articles:     []Article{{Title: "AI wins chess again", URL: "https://example.com/a"}},
		})
	}))
	defer server.Close()

	backend, _ := cache.NewFileCache(t.TempDir())
	client := NewClient("secret", backend, time.Hour).WithBaseURL(server.URL)

	q := Query{
		Q:      "ai",
		From:   time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
		SortBy: SortPopularity,
	}
	resp, err := client.Everything(context.Background(), q, false)
	if err != nil {
		t.Fatalf("Everything() error: %v", err)
	}
	if len(resp.Articles) != 1 || resp.Articles[0].Title != "AI wins chess again" {
		t.Errorf("articles = %+v", resp.Articles)
	}
	if gotKey != "secret" {
		t.Errorf("X-Api-Key = %q", gotKey)
	}
	want := map[string]string{
		"q": "ai", "from": "2026-10-16", "to": "2026-10-17",
		"sortBy": "popularity", "language": "en", "pageSize": "20",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}

	if _, err := client.Everything(context.Background(), q, false); err != nil {
		t.Fatalf("second Everything() error: %v", err)
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (second served from cache)", calls)
	}
}

func TestEverythingErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Response{Status: "error", Code: "apiKeyInvalid", Message: "bad key"})
	}))
	defer server.Close()

	client := NewClient("k", nil, time.Hour).WithBaseURL(server.URL)
	if _, err := client.Everything(context.Background(), Query{Q: "ai"}, false); err == nil {
		t.Error("Everything() should fail on status=error")
	}
}

func TestEverythingUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("k", nil, time.Hour).WithBaseURL(server.URL)
	_, err := client.Everything(context.Background(), Query{Q: "ai"}, false)
	if !errors.Is(err, integrations.ErrUnauthorized) {
		t.Errorf("Everything() error = %v, want ErrUnauthorized", err)
	}
}

func TestEverythingEmptyQuery(t *testing.T) {
	client := NewClient("k", nil, time.Hour)
	if _, err := client.Everything(context.Background(), Query{}, false); err == nil {
		t.Error("Everything() should reject an empty query")
	}
}
