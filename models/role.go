package models

import "time"

// Role names.
const (
	RoleAdministrator = "administrator"
	RoleOperator      = "operator"
)

// Role separates administrators (see every attempt, manage backgrounds) from
// operators.
type Role struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string `gorm:"size:32;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
}
