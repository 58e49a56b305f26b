package notifier

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smartmeeting/room-booking/services/notification-service/internal/events"
)

// Notifier delivers a human-readable notice. Swap in email or chat later.
type Notifier interface {
	Notify(subject, message string) error
}

// ConsoleNotifier writes notices to the service log.
type ConsoleNotifier struct{}

func NewConsole() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (c *ConsoleNotifier) Notify(subject, message string) error {
	log.Info().Str("subject", subject).Msg(message)
	return nil
}

func HumanTimeRange(start, end time.Time) string {
	start, end = start.UTC(), end.UTC()
	if start.YearDay() == end.YearDay() && start.Year() == end.Year() {
		return fmt.Sprintf("%s - %s UTC", start.Format("2006-01-02 15:04"), end.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s UTC", start.Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"))
}

// Render turns an event into a subject and message.
func Render(ev events.BookingEvent) (string, string) {
	when := ""
	if ev.Start != nil && ev.End != nil {
		when = " " + HumanTimeRange(*ev.Start, *ev.End)
	}
	switch ev.Event {
	case events.BookingCreated:
		return "Booking created", fmt.Sprintf("%s booked room %d%s", ev.Username, ev.RoomID, when)
	case events.BookingUpdated:
		return "Booking updated", fmt.Sprintf("%s moved their booking of room %d to%s", ev.Username, ev.RoomID, when)
	case events.BookingDeleted:
		return "Booking cancelled", fmt.Sprintf("%s cancelled a booking of room %d", ev.Username, ev.RoomID)
	default:
		return ev.Event, fmt.Sprintf("%s on room %d", ev.Event, ev.RoomID)
	}
}
