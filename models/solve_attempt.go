package models

import "time"

// Attempt statuses.
const (
	StatusSolved           = "solved"
	StatusNoParse          = "no_parse"
	StatusDecodeError      = "decode_error"
	StatusRecognitionError = "recognition_error"
)

// SolveAttempt records one pass of a captcha through the pipeline and, once an
// operator confirms it, the text they confirmed.
type SolveAttempt struct {
	ID            uint `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ResultID      string `gorm:"size:36;index"` // pipeline result uuid, empty when decoding failed
	UserID        uint   `gorm:"index;not null"`
	CaptchaID     string `gorm:"size:128;index"`
	Fragments     string `gorm:"size:512"` // raw recognizer output joined by spaces
	Corrected     string `gorm:"size:128"`
	Answer        *int64
	Status        string `gorm:"size:32;index;not null"`
	FailedReason  string `gorm:"size:255"`
	Confirmed     bool   `gorm:"default:false;index"`
	ConfirmedText string `gorm:"size:128"`
}
