package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("room not found")
	ErrInvalidRoom = errors.New("name is required and capacity must be positive")
)

type Room struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null;index" json:"name"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
