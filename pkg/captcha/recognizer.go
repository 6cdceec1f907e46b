package captcha

import (
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// AllowedCharacters is the character set passed to the recognition engine.
const AllowedCharacters = "0123456789+-*xX"

// Recognizer extracts raw text fragments from a bitmap. Fragments come back in
// reading order and carry no guarantee of correctness.
type Recognizer interface {
	Recognize(img image.Image, allowed string) ([]string, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(img image.Image, allowed string) ([]string, error)

// Recognize implements Recognizer.
func (f RecognizerFunc) Recognize(img image.Image, allowed string) ([]string, error) {
	return f(img, allowed)
}

// TesseractRecognizer runs Tesseract through gosseract. A client is created per
// call so one recognizer may serve concurrent solves.
type TesseractRecognizer struct {
	Language string
	Mode     gosseract.PageSegMode
}

// NewTesseractRecognizer returns a recognizer for a single line of text.
func NewTesseractRecognizer(lang string) *TesseractRecognizer {
	if lang == "" {
		lang = "eng"
	}
	return &TesseractRecognizer{Language: lang, Mode: gosseract.PSM_SINGLE_LINE}
}

// Recognize implements Recognizer.
func (t *TesseractRecognizer) Recognize(img image.Image, allowed string) ([]string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecognitionUnavailable, err)
	}
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(t.Language); err != nil {
		return nil, fmt.Errorf("%w: language: %w", ErrRecognitionUnavailable, err)
	}
	if err := client.SetWhitelist(allowed); err != nil {
		return nil, fmt.Errorf("%w: whitelist: %w", ErrRecognitionUnavailable, err)
	}
	if err := client.SetPageSegMode(t.Mode); err != nil {
		return nil, fmt.Errorf("%w: psm: %w", ErrRecognitionUnavailable, err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: set image: %w", ErrRecognitionUnavailable, err)
	}
	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecognitionUnavailable, err)
	}
	return strings.Fields(text), nil
}
