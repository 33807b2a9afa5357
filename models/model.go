package models

import (
	"time"

	"gorm.io/gorm"
)

type Model struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Blacklist holds access tokens invalidated before their expiry.
type Blacklist struct {
	Model
	Email string `json:"email"`
	Token string `json:"token"`
}
