package news

import (
	"strings"

	"github.com/dailymemedigest/memefactory/pkg/integrations/newsapi"
)

// Source identifies the outlet that published an article.
type Source = newsapi.Source

// Article is a cleaned news article.
type Article struct {
	Source      Source `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// SourceName returns the outlet name, or "Unknown".
func (a Article) SourceName() string {
	if a.Source.Name == "" {
		return "Unknown"
	}
	return a.Source.Name
}

// text is the document the ranker scores.
func (a Article) text() string {
	return a.Title + " " + a.Description + " " + a.Content
}

const simplifiedTitleLen = 50

var titlePunct = strings.NewReplacer(
	".", "", ",", "", "!", "", "?", "", ":", "", ";", "",
	"-", "", "—", "", `"`, "", "'", "", "(", "", ")", "",
)

// SimplifyTitle returns the key used to spot the same story under slightly
// different titles: lower-cased, common punctuation removed, whitespace
// collapsed, first 50 characters.
func SimplifyTitle(title string) string {
	s := titlePunct.Replace(strings.ToLower(title))
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > simplifiedTitleLen {
		s = string(r[:simplifiedTitleLen])
	}
	return s
}

// Valid reports whether a raw article is usable: it needs a non-blank title
// and a URL, and must not be a "[Removed]" placeholder.
func Valid(a newsapi.Article) bool {
	if a.Title == "" || a.URL == "" {
		return false
	}
	if strings.Contains(a.Title, "[Removed]") {
		return false
	}
	return strings.TrimSpace(a.Title) != ""
}

// Clean converts a raw article. Content falls back to the description, and
// the "[+123 chars]" marker NewsAPI appends to truncated content is cut.
func Clean(a newsapi.Article) Article {
	content := a.Content
	if content == "" {
		content = a.Description
	}
	if i := strings.Index(content, "[+"); i >= 0 {
		content = strings.TrimSpace(content[:i])
	}
	return Article{
		Source:      a.Source,
		Author:      a.Author,
		Title:       strings.TrimSpace(a.Title),
		Description: strings.TrimSpace(a.Description),
		URL:         a.URL,
		URLToImage:  a.URLToImage,
		PublishedAt: a.PublishedAt,
		Content:     content,
	}
}

// Merge combines popularity-sorted and relevancy-sorted results. Stories in
// both lists come first, then the remaining popular ones, then the remaining
// relevant ones. Within each list only the first article with a given
// simplified title is kept; articles without a title are skipped.
func Merge(popular, relevant []newsapi.Article) []newsapi.Article {
	pop, popKeys := index(popular)
	rel, _ := index(relevant)

	out := make([]newsapi.Article, 0, len(popKeys)+len(rel))
	for _, k := range popKeys {
		if _, ok := rel[k]; ok {
			out = append(out, pop[k])
		}
	}
	for _, k := range popKeys {
		if _, ok := rel[k]; !ok {
			out = append(out, pop[k])
		}
	}
	for _, a := range relevant {
		k := SimplifyTitle(a.Title)
		if a.Title == "" {
			continue
		}
		if _, ok := pop[k]; ok {
			continue
		}
		if _, seen := rel[k]; seen {
			out = append(out, a)
			delete(rel, k)
		}
	}
	return out
}

func index(articles []newsapi.Article) (map[string]newsapi.Article, []string) {
	m := make(map[string]newsapi.Article, len(articles))
	var keys []string
	for _, a := range articles {
		if a.Title == "" {
			continue
		}
		k := SimplifyTitle(a.Title)
		if _, ok := m[k]; ok {
			continue
		}
		m[k] = a
		keys = append(keys, k)
	}
	return m, keys
}
