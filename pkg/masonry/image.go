package masonry

import "context"

// Size is the natural pixel size of an image.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool { return s.Width > 0 && s.Height > 0 }

// Aspect returns width divided by height, or 0 for an invalid size.
func (s Size) Aspect() float64 {
	if !s.Valid() {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

// ImageResult is the outcome of sizing one image: either a Size or an Err.
type ImageResult struct {
	Size Size
	Err  error
}

// OK reports whether the load produced usable dimensions.
func (r ImageResult) OK() bool { return r.Err == nil && r.Size.Valid() }

// ImageLoader resolves the natural size of an image.
type ImageLoader interface {
	// Cached returns the size of an image that is already known, without
	// blocking.
	Cached(src string) (Size, bool)

	// Load fetches enough of the image to learn its size. It may block.
	Load(ctx context.Context, src string) (Size, error)
}
