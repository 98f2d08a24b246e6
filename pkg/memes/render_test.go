package memes

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func countChanged(a, b image.Image) int {
	n := 0
	r := a.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y += 2 {
		for x := r.Min.X; x < r.Max.X; x += 2 {
			if a.At(x, y) != b.At(x, y) {
				n++
			}
		}
	}
	return n
}

func TestCaptionDrawsText(t *testing.T) {
	base := solid(512, 512, color.RGBA{R: 0x40, G: 0x80, B: 0xc0, A: 0xff})
	tpl, _ := DefaultCatalog().Get("this_is_fine")

	out, err := Renderer{}.Caption(base, tpl, map[string]string{"caption": "this is fine"})
	if err != nil {
		t.Fatalf("Caption() error: %v", err)
	}
	if out.Bounds() != base.Bounds() {
		t.Errorf("bounds = %v, want %v", out.Bounds(), base.Bounds())
	}
	if countChanged(base, out) == 0 {
		t.Error("Caption() drew nothing")
	}

	// The caption sits near the bottom of the canvas: the top half stays
	// untouched.
	top := image.Rect(0, 0, 512, 256)
	if countChanged(base.SubImage(top), out.(interface {
		SubImage(image.Rectangle) image.Image
	}).SubImage(top)) != 0 {
		t.Error("Caption() drew outside its slot")
	}
}

func TestCaptionSkipsEmptySlots(t *testing.T) {
	base := solid(256, 256, color.White)
	tpl, _ := DefaultCatalog().Get("drake_pointing")
	out, err := Renderer{}.Caption(base, tpl, nil)
	if err != nil {
		t.Fatal(err)
	}
	if countChanged(base, out) != 0 {
		t.Error("Caption() with no text changed the image")
	}
}

func TestCaptionBadFont(t *testing.T) {
	tpl, _ := DefaultCatalog().Get("drake_pointing")
	if _, err := (Renderer{FontPath: "/nonexistent.ttf"}).Caption(solid(8, 8, color.White), tpl, nil); err == nil {
		t.Error("Caption() with a missing font should fail")
	}
}

func TestPlaceholder(t *testing.T) {
	tpl, _ := DefaultCatalog().Get("two_buttons")
	img, err := Renderer{}.Placeholder(tpl)
	if err != nil {
		t.Fatalf("Placeholder() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != CanvasSize || b.Dy() != CanvasSize {
		t.Errorf("bounds = %v", b)
	}
	if countChanged(solid(CanvasSize, CanvasSize, color.RGBA{0xf8, 0xf9, 0xfa, 0xff}), img) == 0 {
		t.Error("placeholder has no title")
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name       string
		w, h, max  int
		wantW, wantH int
	}{
		{"wide", 2048, 1024, 1024, 1024, 512},
		{"narrow", 800, 600, 1024, 800, 600},
		{"no limit", 3000, 1000, 0, 3000, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fit(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), tt.max).Bounds()
			if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
				t.Errorf("Fit() = %dx%d, want %dx%d", got.Dx(), got.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}
