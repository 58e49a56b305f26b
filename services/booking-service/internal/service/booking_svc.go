package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/smartmeeting/room-booking/pkg/auth"
	"github.com/smartmeeting/room-booking/services/booking-service/internal/domain"
)

// Store is the interval store. Both write methods check for overlap and
// write in one atomic unit.
type Store interface {
	CheckAvailability(ctx context.Context, roomID int64, w domain.Window, excludeID int64) (bool, error)
	CreateWithNoOverlap(ctx context.Context, b *domain.Booking) error
	UpdateWindowWithNoOverlap(ctx context.Context, id int64, patch domain.WindowPatch) (*domain.Booking, error)
	Delete(ctx context.Context, id int64) error
	ByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListForUser(ctx context.Context, username string) ([]domain.Booking, error)
	ListAll(ctx context.Context) ([]domain.Booking, error)
}

type RoomDirectory interface {
	Exists(ctx context.Context, roomID int64) (bool, error)
}

// EventPublisher must not block or fail the caller.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.Event)
}

type RoomLocker interface {
	Lock(ctx context.Context, roomID int64) (unlock func(), err error)
}

type BookingSvc struct {
	store  Store
	rooms  RoomDirectory
	pub    EventPublisher
	locker RoomLocker
	now    func() time.Time
	tracer trace.Tracer
}

func NewBookingSvc(store Store, rooms RoomDirectory, pub EventPublisher, locker RoomLocker) *BookingSvc {
	return &BookingSvc{
		store:  store,
		rooms:  rooms,
		pub:    pub,
		locker: locker,
		now:    time.Now,
		tracer: otel.Tracer("booking-service"),
	}
}

func (s *BookingSvc) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name)
	span.SetAttributes(attrs...)
	return ctx, span
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// withRoom runs fn while holding the room's lock.
func (s *BookingSvc) withRoom(ctx context.Context, roomID int64, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, roomID)
	if err != nil {
		return fmt.Errorf("lock room %d: %w", roomID, err)
	}
	defer unlock()
	return fn()
}

func (s *BookingSvc) emit(ctx context.Context, kind domain.EventKind, b domain.Booking) {
	s.pub.Publish(ctx, domain.NewEvent(kind, b, s.now()))
}

func (s *BookingSvc) Create(ctx context.Context, who auth.Identity, roomID int64, w domain.Window) (*domain.Booking, error) {
	ctx, span := s.start(ctx, "BookingSvc.Create",
		attribute.Int64("room.id", roomID), attribute.String("user", who.Subject))
	defer span.End()

	w = domain.NewWindow(w.Start, w.End)
	if !w.Valid() {
		return nil, fail(span, domain.ErrInvalidWindow)
	}

	exists, err := s.rooms.Exists(ctx, roomID)
	if err != nil {
		return nil, fail(span, err)
	}
	if !exists {
		return nil, fail(span, domain.ErrRoomNotFound)
	}

	b := &domain.Booking{Username: who.Subject, RoomID: roomID, StartTime: w.Start, EndTime: w.End}
	if err := s.withRoom(ctx, roomID, func() error {
		return s.store.CreateWithNoOverlap(ctx, b)
	}); err != nil {
		return nil, fail(span, err)
	}

	log.Info().Int64("booking_id", b.ID).Int64("room_id", roomID).Str("user", who.Subject).Msg("Booking created")
	s.emit(ctx, domain.EventBookingCreated, *b)
	return b, nil
}

func (s *BookingSvc) Update(ctx context.Context, who auth.Identity, id int64, patch domain.WindowPatch) (*domain.Booking, error) {
	ctx, span := s.start(ctx, "BookingSvc.Update",
		attribute.Int64("booking.id", id), attribute.String("user", who.Subject))
	defer span.End()

	current, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	if !who.CanActOn(current.Username) {
		return nil, fail(span, domain.ErrForbidden)
	}
	if !patch.Apply(current.Window()).Valid() {
		return nil, fail(span, domain.ErrInvalidWindow)
	}

	var updated *domain.Booking
	if err := s.withRoom(ctx, current.RoomID, func() error {
		var err error
		updated, err = s.store.UpdateWindowWithNoOverlap(ctx, id, patch)
		return err
	}); err != nil {
		return nil, fail(span, err)
	}

	log.Info().Int64("booking_id", id).Int64("room_id", updated.RoomID).Str("user", who.Subject).Msg("Booking updated")
	s.emit(ctx, domain.EventBookingUpdated, *updated)
	return updated, nil
}

func (s *BookingSvc) Delete(ctx context.Context, who auth.Identity, id int64) error {
	ctx, span := s.start(ctx, "BookingSvc.Delete",
		attribute.Int64("booking.id", id), attribute.String("user", who.Subject))
	defer span.End()

	current, err := s.store.ByID(ctx, id)
	if err != nil {
		return fail(span, err)
	}
	if !who.CanActOn(current.Username) {
		return fail(span, domain.ErrForbidden)
	}
	if err := s.withRoom(ctx, current.RoomID, func() error {
		return s.store.Delete(ctx, id)
	}); err != nil {
		return fail(span, err)
	}

	log.Info().Int64("booking_id", id).Int64("room_id", current.RoomID).Str("user", who.Subject).Msg("Booking deleted")
	s.emit(ctx, domain.EventBookingDeleted, *current)
	return nil
}

func (s *BookingSvc) Get(ctx context.Context, who auth.Identity, id int64) (*domain.Booking, error) {
	b, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !who.CanActOn(b.Username) {
		return nil, domain.ErrForbidden
	}
	return b, nil
}

func (s *BookingSvc) ListForUser(ctx context.Context, who auth.Identity, username string) ([]domain.Booking, error) {
	if !who.CanActOn(username) {
		return nil, domain.ErrForbidden
	}
	return s.store.ListForUser(ctx, username)
}

func (s *BookingSvc) ListAll(ctx context.Context, who auth.Identity) ([]domain.Booking, error) {
	if !who.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.store.ListAll(ctx)
}

// CheckAvailability is a read-only check. The answer can be stale by the
// time a create arrives; only the store's atomic insert is authoritative.
func (s *BookingSvc) CheckAvailability(ctx context.Context, roomID int64, w domain.Window) (bool, error) {
	w = domain.NewWindow(w.Start, w.End)
	if !w.Valid() {
		return false, domain.ErrInvalidWindow
	}
	return s.store.CheckAvailability(ctx, roomID, w, 0)
}
