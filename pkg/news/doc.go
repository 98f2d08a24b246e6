// Package news gathers, cleans and ranks the articles memes are made from.
//
// # Fetching
//
// [Aggregator.Fetch] runs two NewsAPI searches for the same keyword query,
// one sorted by popularity and one by relevancy, and merges them:
//
//  1. articles found by both searches, in popularity order
//  2. the rest of the popularity results
//  3. the rest of the relevancy results
//
// Articles are deduplicated by a simplified title (see [SimplifyTitle]),
// invalid ones are dropped, and the survivors are cleaned. When the upstream
// API is unavailable, Fetch logs a warning and returns [SampleArticles] so
// the site keeps working in demos.
//
// # Ranking
//
// [TopK] scores articles against the keywords with TF-IDF cosine
// similarity and keeps the best k. Ties go to the newer article.
package news
