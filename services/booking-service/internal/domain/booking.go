package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidWindow         = errors.New("end_time must be after start_time")
	ErrConflict              = errors.New("room already booked")
	ErrNotFound              = errors.New("booking not found")
	ErrRoomNotFound          = errors.New("room not found")
	ErrForbidden             = errors.New("not allowed")
	ErrDependencyUnavailable = errors.New("rooms service unavailable")
)

// Booking is one reservation of a room over the half-open window [StartTime, EndTime).
type Booking struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Username  string    `gorm:"column:user_username;not null;index"`
	RoomID    int64     `gorm:"not null;index;index:ix_bookings_room_time_window,priority:1"`
	StartTime time.Time `gorm:"not null;index;index:ix_bookings_room_time_window,priority:2"`
	EndTime   time.Time `gorm:"not null;index;index:ix_bookings_room_time_window,priority:3"`
	CreatedAt time.Time
}

func (b Booking) Window() Window { return Window{Start: b.StartTime, End: b.EndTime} }

type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow normalises both instants to UTC at the precision Postgres keeps.
func NewWindow(start, end time.Time) Window {
	return Window{Start: normalize(start), End: normalize(end)}
}

func normalize(t time.Time) time.Time { return t.UTC().Truncate(time.Microsecond) }

func (w Window) Valid() bool { return w.Start.Before(w.End) }

// Overlaps uses half-open semantics: touching windows do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && w.End.After(o.Start)
}

// WindowPatch carries the optional fields of an update.
type WindowPatch struct {
	Start *time.Time
	End   *time.Time
}

// Apply returns the effective window: supplied fields win, the rest are kept.
func (p WindowPatch) Apply(current Window) Window {
	w := current
	if p.Start != nil {
		w.Start = normalize(*p.Start)
	}
	if p.End != nil {
		w.End = normalize(*p.End)
	}
	return w
}
