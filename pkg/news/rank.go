package news

import (
	"math"
	"slices"
	"strings"
	"unicode"
)

// Scored is an article with its relevance to the keyword query.
type Scored struct {
	Article
	Score float64 `json:"relevance_score"`
}

// TopK ranks articles by TF-IDF cosine similarity to the joined keywords
// and returns the best k. Equal scores are ordered by PublishedAt, newest
// first. The input slice is not modified.
func TopK(articles []Article, k int, keywords []string) []Scored {
	ranked := Rank(articles, keywords)
	return ranked[:min(max(k, 0), len(ranked))]
}

// Rank scores every article and sorts them, best first.
func Rank(articles []Article, keywords []string) []Scored {
	docs := make([][]string, 0, len(articles)+1)
	for _, a := range articles {
		docs = append(docs, tokenize(a.text()))
	}
	docs = append(docs, tokenize(strings.Join(keywords, " ")))

	vecs := tfidf(docs)
	query := vecs[len(vecs)-1]

	out := make([]Scored, len(articles))
	for i, a := range articles {
		out[i] = Scored{Article: a, Score: dot(vecs[i], query)}
	}
	slices.SortStableFunc(out, func(a, b Scored) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return strings.Compare(b.PublishedAt, a.PublishedAt)
	})
	return out
}

// tokenize lower-cases s and splits it into words of two or more letters or
// digits, dropping English stop words.
func tokenize(s string) []string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	out := words[:0]
	for _, w := range words {
		if len([]rune(w)) < 2 || stopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// tfidf returns one L2-normalised vector per document, using raw term
// counts and the smoothed idf ln((1+n)/(1+df)) + 1.
func tfidf(docs [][]string) []map[string]float64 {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool, len(doc))
		for _, t := range doc {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}

	n := float64(len(docs))
	vecs := make([]map[string]float64, len(docs))
	for i, doc := range docs {
		v := make(map[string]float64, len(doc))
		for _, t := range doc {
			v[t]++
		}
		var norm float64
		for t, tf := range v {
			w := tf * (math.Log((1+n)/(1+float64(df[t]))) + 1)
			v[t] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for t := range v {
				v[t] /= norm
			}
		}
		vecs[i] = v
	}
	return vecs
}

func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var s float64
	for t, w := range a {
		s += w * b[t]
	}
	return s
}
