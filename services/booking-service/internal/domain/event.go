package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventBookingCreated EventKind = "booking_created"
	EventBookingUpdated EventKind = "booking_updated"
	EventBookingDeleted EventKind = "booking_deleted"
)

// RoutingKey maps booking_created to booking.created.
func (k EventKind) RoutingKey() string {
	return strings.Replace(string(k), "_", ".", 1)
}

// Event is a fact about a booking that has already been committed.
type Event struct {
	ID        string     `json:"event_id"`
	Kind      EventKind  `json:"event"`
	Username  string     `json:"username"`
	RoomID    int64      `json:"room_id"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewEvent(kind EventKind, b Booking, now time.Time) Event {
	ev := Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Username:  b.Username,
		RoomID:    b.RoomID,
		Timestamp: now.UTC(),
	}
	if kind != EventBookingDeleted {
		start, end := b.StartTime, b.EndTime
		ev.Start, ev.End = &start, &end
	}
	return ev
}
