package captcha

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
)

// Canonical resolution used for background comparison and recognition.
const (
	CanonicalWidth  = 110
	CanonicalHeight = 60
)

// DecodeBase64 decodes a captcha payload as returned by the remote service.
// Both bare base64 and data URIs ("data:image/png;base64,...") are accepted.
func DecodeBase64(payload string) (image.Image, error) {
	normalized := payload
	if p := strings.Index(normalized, ","); p > 0 && strings.Contains(strings.ToLower(normalized[:p]), "base64") {
		normalized = normalized[p+1:]
	}
	normalized = strings.Join(strings.Fields(normalized), "")
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	raw, err := base64.StdEncoding.DecodeString(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrDecode, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: image: %v", ErrDecode, err)
	}
	return img, nil
}

// DecodeFile opens and decodes an image file.
func DecodeFile(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

// ToCanonical resizes img to the canonical resolution. An image that already
// has the canonical size is copied pixel for pixel.
func ToCanonical(img image.Image) *image.NRGBA {
	return resizeExact(img, CanonicalWidth, CanonicalHeight)
}

func resizeExact(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64PNG encodes img as a base64 PNG, suitable for JSON responses.
func EncodeBase64PNG(img image.Image) (string, error) {
	b, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
