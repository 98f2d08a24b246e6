package news

import (
	"strings"
	"testing"

	"github.com/dailymemedigest/memefactory/pkg/integrations/newsapi"
)

func TestSimplifyTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"OpenAI Announces GPT-5!", "openai announces gpt5"},
		{"  Hello,   World  ", "hello world"},
		{`"Quoted" (really) — yes`, "quoted really yes"},
		{"", ""},
		{strings.Repeat("ab ", 40), strings.Repeat("ab ", 16) + "ab"},
	}
	for _, tt := range tests {
		if got := SimplifyTitle(tt.in); got != tt.want {
			t.Errorf("SimplifyTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSimplifyTitleCountsRunes(t *testing.T) {
	got := SimplifyTitle(strings.Repeat("é", 60))
	if n := len([]rune(got)); n != 50 {
		t.Errorf("len = %d runes, want 50", n)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		a    newsapi.Article
		want bool
	}{
		{"ok", newsapi.Article{Title: "t", URL: "u"}, true},
		{"no title", newsapi.Article{URL: "u"}, false},
		{"no url", newsapi.Article{Title: "t"}, false},
		{"removed", newsapi.Article{Title: "[Removed]", URL: "u"}, false},
		{"blank", newsapi.Article{Title: "   ", URL: "u"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.a); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClean(t *testing.T) {
	a := Clean(newsapi.Article{
		Title:       "  Title  ",
		Description: " desc ",
		Content:     "Body text here… [+1234 chars]",
		URL:         "u",
	})
	if a.Title != "Title" || a.Description != "desc" {
		t.Errorf("Clean() = %+v", a)
	}
	if a.Content != "Body text here…" {
		t.Errorf("Content = %q", a.Content)
	}

	b := Clean(newsapi.Article{Title: "t", URL: "u", Description: "fallback"})
	if b.Content != "fallback" {
		t.Errorf("Content fallback = %q", b.Content)
	}
}

func titles(as []newsapi.Article) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Title
	}
	return out
}

func TestMerge(t *testing.T) {
	popular := []newsapi.Article{
		{Title: "Alpha", URL: "p1"},
		{Title: "Beta", URL: "p2"},
		{Title: "Gamma!", URL: "p3"},
		{Title: "alpha", URL: "p4"},
		{Title: "", URL: "p5"},
	}
	relevant := []newsapi.Article{
		{Title: "Delta", URL: "r1"},
		{Title: "Gamma", URL: "r2"},
		{Title: "Delta.", URL: "r3"},
		{Title: "Beta", URL: "r4"},
	}

	got := Merge(popular, relevant)
	want := []string{"Beta", "Gamma!", "Alpha", "Delta"}
	if strings.Join(titles(got), "|") != strings.Join(want, "|") {
		t.Fatalf("Merge() = %q, want %q", titles(got), want)
	}
	if got[0].URL != "p2" {
		t.Errorf("overlap should keep the popularity copy, got %s", got[0].URL)
	}
	if got[3].URL != "r1" {
		t.Errorf("first relevancy duplicate should win, got %s", got[3].URL)
	}
}

func TestMergeEmpty(t *testing.T) {
	if got := Merge(nil, nil); len(got) != 0 {
		t.Errorf("Merge(nil, nil) = %v", got)
	}
}
