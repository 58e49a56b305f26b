package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2025-12-12 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWindow_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Window
		want bool
	}{
		{"identical", NewWindow(at("10:00"), at("11:00")), NewWindow(at("10:00"), at("11:00")), true},
		{"touching after", NewWindow(at("10:00"), at("11:00")), NewWindow(at("11:00"), at("12:00")), false},
		{"touching before", NewWindow(at("11:00"), at("12:00")), NewWindow(at("10:00"), at("11:00")), false},
		{"partial", NewWindow(at("10:00"), at("11:30")), NewWindow(at("11:00"), at("12:00")), true},
		{"contained", NewWindow(at("09:00"), at("13:00")), NewWindow(at("10:00"), at("11:00")), true},
		{"disjoint", NewWindow(at("08:00"), at("09:00")), NewWindow(at("10:00"), at("11:00")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestWindow_Valid(t *testing.T) {
	assert.True(t, NewWindow(at("10:00"), at("11:00")).Valid())
	assert.False(t, NewWindow(at("11:00"), at("11:00")).Valid())
	assert.False(t, NewWindow(at("12:00"), at("11:00")).Valid())
}

func TestNewWindow_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	w := NewWindow(time.Date(2025, 12, 12, 13, 0, 0, 123456789, loc), at("11:00"))
	assert.Equal(t, time.UTC, w.Start.Location())
	assert.Equal(t, 10, w.Start.Hour())
	assert.Equal(t, 123456000, w.Start.Nanosecond())
}

func TestWindowPatch_Apply(t *testing.T) {
	cur := NewWindow(at("09:00"), at("10:00"))

	assert.Equal(t, cur, WindowPatch{}.Apply(cur))

	end := at("10:30")
	got := WindowPatch{End: &end}.Apply(cur)
	assert.Equal(t, at("09:00"), got.Start)
	assert.Equal(t, at("10:30"), got.End)

	start := at("09:30")
	got = WindowPatch{Start: &start, End: &end}.Apply(cur)
	assert.Equal(t, NewWindow(start, end), got)
}

func TestEvent(t *testing.T) {
	b := Booking{ID: 7, Username: "ranim", RoomID: 1, StartTime: at("10:00"), EndTime: at("11:00")}
	now := at("09:00")

	created := NewEvent(EventBookingCreated, b, now)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "booking.created", created.Kind.RoutingKey())
	require.NotNil(t, created.Start)
	assert.Equal(t, at("10:00"), *created.Start)

	deleted := NewEvent(EventBookingDeleted, b, now)
	assert.Nil(t, deleted.Start)
	assert.Nil(t, deleted.End)
	assert.NotEqual(t, created.ID, deleted.ID)

	raw, err := json.Marshal(deleted)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event_id":"`+deleted.ID+`","event":"booking_deleted","username":"ranim","room_id":1,"timestamp":"2025-12-12T09:00:00Z"}`, string(raw))

	// the event keeps its own copy of the window
	b.StartTime = at("15:00")
	assert.Equal(t, at("10:00"), *created.Start)
}
