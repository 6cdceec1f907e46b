package models

import (
	"time"
)

// Background is an operator-uploaded background-only captcha image.
type Background struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FileName    string `gorm:"size:255;not null;uniqueIndex"`
	StorePath   string `gorm:"column:store_path;size:512"`
	ContentType string `gorm:"size:128"`
	Width       int
	Height      int
	UploadedBy  uint `gorm:"index"`
}
