package domain

import "time"

// Notification is the persisted record of one consumed booking event.
// Message keeps the raw body exactly as it arrived.
type Notification struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   *string   `gorm:"uniqueIndex" json:"event_id,omitempty"`
	Event     string    `gorm:"not null;index" json:"event"`
	Username  string    `gorm:"index" json:"username,omitempty"`
	RoomID    int64     `json:"room_id,omitempty"`
	Message   string    `gorm:"not null" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
