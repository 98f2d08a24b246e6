// Package imageprobe learns the natural size of images for the masonry grid.
//
// [Prober] implements [masonry.ImageLoader]. It reads just enough of an
// image to decode its header with [image.DecodeConfig]; PNG, JPEG, GIF and
// WebP are recognised. Sources may be:
//
//   - http:// and https:// URLs, fetched with a bounded read
//   - file:// URLs
//   - paths under the media prefix ("/media/abc.png"), resolved inside the
//     configured media directory
//
// Successful probes are memoised in memory, so [Prober.Cached] can answer
// synchronously for every image the prober has seen before. An optional
// [cache.Cache] persists sizes across processes. Failures are never
// memoised: a broken image is retried the next time a grid asks for it.
package imageprobe
