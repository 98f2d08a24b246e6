// Package pkg holds the libraries behind memefactory, a site that turns AI
// news into memes and shows them as a masonry gallery.
//
// # Overview
//
// The directory is organized by concern:
//
//  1. [masonry] - the layout engine: columns, spans, shortest-column
//     placement, image loading and debounced reflow
//  2. [news], [memes] - article ranking and the meme generation pipeline
//  3. [store], [cache], [ratelimit] - persistence and shared state
//     (SQLite, MongoDB, JSON file, Redis)
//  4. [integrations] - NewsAPI, OpenAI and Mailchimp clients
//  5. [subscribe], [config], [imageprobe] - the newsletter funnel, layered
//     settings and image size probing
//
// # Data Flow
//
//	NewsAPI articles
//	       ↓
//	  [news] package (clean, merge, rank)
//	       ↓
//	  [memes] package (template, caption, image, store)
//	       ↓
//	  [store] package
//	       ↓
//	  [masonry] package (lay out a page of memes)
//	       ↓
//	  gallery page / layout JSON
//
// # Quick Start
//
// Lay out cards of known aspect ratio:
//
//	l := masonry.Compute(masonry.DefaultConfig(), 1200, []masonry.Footprint{
//	    {Aspect: 1}, {Aspect: 2}, {Aspect: 0.75},
//	})
//	for _, p := range l.Placements {
//	    fmt.Println(p.Index, p.Column, p.Span, p.X, p.Y)
//	}
//
// Drive a live grid whose images are probed as they load:
//
//	grid := masonry.Configure(container, masonry.DefaultConfig(),
//	    masonry.WithLoader(imageprobe.New()),
//	    masonry.WithViewport(viewport),
//	)
//	grid.SetItems(items, render)
//	err := grid.Wait(ctx)
//
// [masonry]: github.com/dailymemedigest/memefactory/pkg/masonry
// [news]: github.com/dailymemedigest/memefactory/pkg/news
// [memes]: github.com/dailymemedigest/memefactory/pkg/memes
// [store]: github.com/dailymemedigest/memefactory/pkg/store
// [cache]: github.com/dailymemedigest/memefactory/pkg/cache
// [ratelimit]: github.com/dailymemedigest/memefactory/pkg/ratelimit
// [integrations]: github.com/dailymemedigest/memefactory/pkg/integrations
// [subscribe]: github.com/dailymemedigest/memefactory/pkg/subscribe
// [config]: github.com/dailymemedigest/memefactory/pkg/config
// [imageprobe]: github.com/dailymemedigest/memefactory/pkg/imageprobe
package pkg
