// Package newsapi provides a client for the NewsAPI "everything" search.
//
// Only the one endpoint the site needs is covered:
//
//	client := newsapi.NewClient(apiKey, cache, 30*time.Minute)
//	resp, err := client.Everything(ctx, newsapi.Query{
//	    Q:      `openai OR "machine learning"`,
//	    From:   time.Now().AddDate(0, 0, -1),
//	    To:     time.Now(),
//	    SortBy: newsapi.SortPopularity,
//	}, false)
//
// Responses are cached under a key derived from the query, so identical
// searches inside the TTL cost no API quota. An "error" status in the body
// is reported as an error even when the HTTP status was 200.
package newsapi
