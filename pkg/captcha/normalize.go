package captcha

import "image"

// Normalize produces the recognition/display form of a cleaned bitmap: the
// canonical resolution with every pure-black pixel (the suppressed background)
// turned opaque white.
func Normalize(img image.Image) *image.NRGBA {
	out := ToCanonical(img)
	for i := 0; i+3 < len(out.Pix); i += 4 {
		p := out.Pix[i : i+4 : i+4]
		if p[0] == 0 && p[1] == 0 && p[2] == 0 {
			p[0], p[1], p[2], p[3] = 0xff, 0xff, 0xff, 0xff
		}
	}
	return out
}
