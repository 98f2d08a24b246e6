// Package fonts provides the typefaces used to caption memes.
//
// The default face is Go Bold, compiled into the binary from
// golang.org/x/image, so captions render the same on every host without
// font files. A TrueType file can be supplied instead with [LoadFace].
package fonts

import (
	"fmt"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// Family is the name reported for the built-in face.
const Family = "Go Bold"

var (
	boldOnce sync.Once
	bold     *opentype.Font
	boldErr  error
)

// Face returns the built-in caption face at size points (72 DPI, so points
// equal pixels).
func Face(size float64) (font.Face, error) {
	boldOnce.Do(func() {
		bold, boldErr = opentype.Parse(gobold.TTF)
	})
	if boldErr != nil {
		return nil, fmt.Errorf("parse %s: %w", Family, boldErr)
	}
	return opentype.NewFace(bold, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// LoadFace loads a TrueType font file at size points. An empty path
// returns the built-in face.
func LoadFace(path string, size float64) (font.Face, error) {
	if path == "" {
		return Face(size)
	}
	face, err := gg.LoadFontFace(path, size)
	if err != nil {
		return nil, fmt.Errorf("load font %s: %w", path, err)
	}
	return face, nil
}
