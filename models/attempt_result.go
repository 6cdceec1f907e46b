package models

import (
	"errors"
	"strings"

	"capsolve/pkg/captcha"
)

// NewSolveAttempt builds the attempt row for a pipeline outcome. res may be
// nil when the pipeline failed before recognition.
func NewSolveAttempt(userID uint, captchaID string, res *captcha.Result, err error) SolveAttempt {
	a := SolveAttempt{UserID: userID, CaptchaID: captchaID}
	if res != nil {
		a.ResultID = res.ID
		a.Fragments = truncate(strings.Join(res.Fragments, " "), 512)
		a.Corrected = truncate(res.Corrected, 128)
		if res.Solved {
			answer := res.Answer
			a.Answer = &answer
		}
	}
	switch {
	case err == nil:
		a.Status = StatusSolved
	case errors.Is(err, captcha.ErrNoParse):
		a.Status = StatusNoParse
	case errors.Is(err, captcha.ErrDecode):
		a.Status = StatusDecodeError
	default:
		a.Status = StatusRecognitionError
	}
	if err != nil {
		a.FailedReason = truncate(err.Error(), 255)
	}
	return a
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
