package captcha

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func TestNormalizeRemovesPureBlack(t *testing.T) {
	captcha := withGlyph(patterned())
	cleaned := Clean(captcha, []*image.NRGBA{patterned()})
	out := Normalize(cleaned)
	if out.Bounds().Dx() != CanonicalWidth || out.Bounds().Dy() != CanonicalHeight {
		t.Fatalf("unexpected size %v", out.Bounds())
	}
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] == 0 && out.Pix[i+1] == 0 && out.Pix[i+2] == 0 {
			t.Fatalf("pure black pixel left at offset %d", i)
		}
	}
	if c := out.NRGBAAt(5, 5); c != (color.NRGBA{255, 255, 255, 255}) {
		t.Fatalf("expected white background got %v", c)
	}
	if c := out.NRGBAAt(50, 30); c != glyph {
		t.Fatalf("glyph pixel changed: %v", c)
	}
}

func TestNormalizeResizes(t *testing.T) {
	img := imaging.New(300, 150, color.NRGBA{0, 0, 0, 255})
	out := Normalize(img)
	if out.Bounds().Dx() != CanonicalWidth || out.Bounds().Dy() != CanonicalHeight {
		t.Fatalf("unexpected size %v", out.Bounds())
	}
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] == 0 && out.Pix[i+1] == 0 && out.Pix[i+2] == 0 {
			t.Fatalf("pure black pixel left at offset %d", i)
		}
	}
}
