package captcha

import "errors"

// ErrDecode is returned when a captcha payload cannot be turned into a bitmap.
var ErrDecode = errors.New("captcha decode failed")

// ErrNoParse is returned when the corrected text does not reduce to a single
// two-operand, one-operator expression. Callers must not submit a guess.
var ErrNoParse = errors.New("no parsable expression")

// ErrRecognitionUnavailable wraps any failure of the recognition engine.
var ErrRecognitionUnavailable = errors.New("recognition unavailable")
