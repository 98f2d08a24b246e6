package memes

import (
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/dailymemedigest/memefactory/pkg/fonts"
)

// DefaultMaxWidth is the widest image the generator stores.
const DefaultMaxWidth = 1024

const (
	captionSize   = 36.0
	lineHeight    = 55.0
	maxLines      = 3
	outlineRadius = 3
)

// Renderer draws captions and placeholder images.
type Renderer struct {
	// FontPath is a TrueType file for captions. Empty means the built-in
	// face.
	FontPath string
}

// Caption draws each slot's text onto a copy of img: upper-cased, white
// with a black outline, wrapped to the slot width and cut at three lines.
// Slot geometry is scaled from the 1024 px canvas to img's width.
func (r Renderer) Caption(img image.Image, t Template, caption map[string]string) (image.Image, error) {
	b := img.Bounds()
	scale := float64(b.Dx()) / CanvasSize

	dc := gg.NewContextForImage(img)
	face, err := fonts.LoadFace(r.FontPath, captionSize*scale)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)

	for _, s := range t.Slots {
		text := strings.ToUpper(strings.TrimSpace(caption[s.Key]))
		if text == "" {
			continue
		}
		lines := dc.WordWrap(text, s.Width*scale)
		if len(lines) > maxLines {
			lines = lines[:maxLines]
		}
		ax := 0.0
		if s.Center {
			ax = 0.5
		}
		for i, line := range lines {
			x := s.X * scale
			y := (s.Y + float64(i)*lineHeight) * scale
			outlined(dc, line, x, y, ax, scale)
		}
	}
	return dc.Image(), nil
}

// outlined draws s in white over a black outline, top-aligned at y.
func outlined(dc *gg.Context, s string, x, y, ax, scale float64) {
	off := max(1, int(outlineRadius*scale+0.5))
	dc.SetColor(color.Black)
	for dx := -off; dx <= off; dx++ {
		for dy := -off; dy <= off; dy++ {
			if dx != 0 || dy != 0 {
				dc.DrawStringAnchored(s, x+float64(dx), y+float64(dy), ax, 1)
			}
		}
	}
	dc.SetColor(color.White)
	dc.DrawStringAnchored(s, x, y, ax, 1)
}

// Placeholder draws the stand-in used when image generation fails: the
// template's title on a light background.
func (r Renderer) Placeholder(t Template) (image.Image, error) {
	dc := gg.NewContext(CanvasSize, CanvasSize)
	dc.SetHexColor("#f8f9fa")
	dc.Clear()

	dc.SetHexColor("#667eea")
	dc.DrawRoundedRectangle(112, 312, 800, 400, 24)
	dc.SetLineWidth(6)
	dc.Stroke()

	title := t.Title
	if title == "" {
		title = t.Name
	}
	large, err := fonts.LoadFace(r.FontPath, 64)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(large)
	dc.SetHexColor("#333333")
	dc.DrawStringAnchored(title, CanvasSize/2, 500, 0.5, 0.5)

	small, err := fonts.LoadFace(r.FontPath, 32)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(small)
	dc.SetHexColor("#666666")
	dc.DrawStringAnchored("Meme Template", CanvasSize/2, 580, 0.5, 0.5)
	return dc.Image(), nil
}

// Fit downscales img to at most maxWidth pixels wide, keeping its aspect
// ratio. Narrower images are returned unchanged.
func Fit(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
}
