package captcha

import (
	"image"
)

// foregroundCutoff is the difference intensity above which a pixel is kept.
const foregroundCutoff = 30

// luma converts an RGB triple to a single rounded intensity (ITU-R BT.601 weights).
func luma(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

// MaskWith removes the background of captcha using a single reference bitmap.
// Both images are brought to the canonical resolution first. Pixels whose
// difference intensity exceeds the cutoff keep their captcha color; all others
// become black. The score is the summed intensity of the masked difference, so
// a lower score means the reference matched the captcha's background better.
func MaskWith(captcha, reference image.Image) (*image.NRGBA, int64) {
	return maskCanonical(asCanonical(captcha), asCanonical(reference))
}

func asCanonical(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) &&
		n.Rect.Dx() == CanonicalWidth && n.Rect.Dy() == CanonicalHeight {
		return n
	}
	return ToCanonical(img)
}

func maskCanonical(captcha, ref *image.NRGBA) (*image.NRGBA, int64) {
	out := image.NewNRGBA(image.Rect(0, 0, CanonicalWidth, CanonicalHeight))
	var score int64
	for y := 0; y < CanonicalHeight; y++ {
		ci := captcha.PixOffset(0, y)
		ri := ref.PixOffset(0, y)
		oi := out.PixOffset(0, y)
		for x := 0; x < CanonicalWidth; x++ {
			c := captcha.Pix[ci : ci+4 : ci+4]
			r := ref.Pix[ri : ri+4 : ri+4]
			o := out.Pix[oi : oi+4 : oi+4]
			d := luma(absDiff(c[0], r[0]), absDiff(c[1], r[1]), absDiff(c[2], r[2]))
			if d > foregroundCutoff {
				copy(o, c)
				score += int64(d)
			} else {
				o[3] = 0xff
			}
			ci += 4
			ri += 4
			oi += 4
		}
	}
	return out, score
}

// Clean selects the reference that best matches the captcha's background and
// returns the captcha with that background suppressed. With no references the
// captcha is returned at canonical resolution and otherwise untouched. Ties go
// to the earliest reference.
func Clean(captcha image.Image, refs []*image.NRGBA) *image.NRGBA {
	base := ToCanonical(captcha)
	if len(refs) == 0 {
		return base
	}
	best := -1
	var bestScore int64
	canon := make([]*image.NRGBA, len(refs))
	for i, ref := range refs {
		canon[i] = asCanonical(ref)
		_, score := maskCanonical(base, canon[i])
		if best == -1 || score < bestScore {
			best, bestScore = i, score
		}
	}
	cleaned, _ := maskCanonical(base, canon[best])
	return cleaned
}
