package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	BookingCreated = "booking_created"
	BookingUpdated = "booking_updated"
	BookingDeleted = "booking_deleted"
)

var ErrMalformed = errors.New("malformed booking event")

// BookingEvent mirrors what booking-service publishes. Start and End are
// absent on deletes.
type BookingEvent struct {
	EventID   string     `json:"event_id"`
	Event     string     `json:"event"`
	Username  string     `json:"username"`
	RoomID    int64      `json:"room_id"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Decode accepts any JSON object that names its event. Unknown event kinds
// are kept so newer producers do not get dead-lettered.
func Decode(body []byte) (BookingEvent, error) {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return BookingEvent{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if ev.Event == "" {
		return BookingEvent{}, fmt.Errorf("%w: missing event", ErrMalformed)
	}
	return ev, nil
}
