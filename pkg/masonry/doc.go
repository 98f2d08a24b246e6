// Package masonry lays out variable-aspect-ratio cards into a balanced
// multi-column grid.
//
// # Overview
//
// There is no native "masonry" primitive on the surfaces this package draws
// to (an HTML page rendered on the server, a terminal preview), so cards are
// positioned absolutely. The placement pass is a greedy shortest-column-first
// heuristic, a simplified skyline packing:
//
//  1. The column count follows from the container width:
//     columns = max(1, floor((width + gap) / (baseColumnWidth + gap))).
//  2. The real column width absorbs all slack:
//     columns*columnWidth + (columns-1)*gap == width.
//  3. Items are visited in input order. Each item's span (1, 2 or 3 columns)
//     follows from its aspect ratio; among the legal start columns the one
//     with the smallest maximum height over the spanned columns wins, and the
//     leftmost wins ties.
//
// Placement cost is O(items × columns) and the result is deterministic for a
// given input order and set of aspect ratios. Input order is never re-sorted
// by height: callers list items newest first and expect to see them that way.
//
// # Grid
//
// [Grid] wraps the pure [Compute] function with the state a live surface
// needs: the current item set, asynchronous image sizing through an
// [ImageLoader], and a debounced reflow on viewport resize:
//
//	container := masonry.NewMemoryContainer(1000)
//	viewport := masonry.NewResizeNotifier()
//	grid := masonry.Configure(container, masonry.Config{BaseColumnWidth: 250, Gap: 20},
//	    masonry.WithViewport(viewport),
//	    masonry.WithLoader(prober),
//	)
//	defer grid.Destroy()
//
//	grid.SetItems(items, func(it masonry.Item, i int) string { return render(it) })
//	_ = grid.Wait(ctx) // all image sizes known
//	layout := grid.Layout()
//
// Every mutation is serialised on the grid's mutex, which plays the role of
// the single UI thread: a reflow always runs to completion and always sees
// every image load that finished before it. Loads run on their own goroutines
// and only post results back.
//
// # Failures
//
// Nothing in this package returns layout errors to the caller. A missing
// container turns the grid into a logged no-op. An image that fails to load,
// or an item whose image reference is malformed, keeps the default square
// footprint and the rest of the grid is laid out as usual.
package masonry
