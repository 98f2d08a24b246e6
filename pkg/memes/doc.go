// Package memes turns news articles into captioned meme images.
//
// A [Catalog] holds the meme formats. Each [Template] knows how to ask an
// image model for its picture, how to ask a chat model for its caption,
// and where each caption line is drawn. The built-in catalog lives in
// templates.toml; [LoadCatalog] reads a replacement from disk.
//
// [Generator] runs a batch: fetch articles for the trends, rank them,
// then for each selected article pick a template round-robin, caption it,
// render it, write the PNG to the [MediaStore] and save a store.Meme.
// Model failures degrade instead of failing the meme: a caption error uses
// the template's fallback text and an image error draws a placeholder.
//
//	gen := memes.NewGenerator(aggregator, st, media,
//	    memes.WithCaptioner(ai), memes.WithImager(ai))
//	res, err := gen.Generate(ctx, memes.Request{Trends: []string{"llm"}})
package memes
