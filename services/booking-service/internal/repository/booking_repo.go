package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartmeeting/room-booking/pkg/db"
	"github.com/smartmeeting/room-booking/services/booking-service/internal/domain"
)

// BookingRepo is the Postgres interval store. Every check-and-write runs in
// one transaction holding a transaction-scoped advisory lock on the room, so
// two writers for the same room are serialized even across replicas while
// unrelated rooms proceed in parallel.
type BookingRepo struct{ db *gorm.DB }

func NewBookingRepo(gdb *gorm.DB) *BookingRepo {
	return &BookingRepo{db: gdb}
}

func (r *BookingRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Booking{})
}

func isPostgres(tx *gorm.DB) bool { return tx.Dialector.Name() == "postgres" }

func lockRoom(tx *gorm.DB, roomID int64) error {
	if !isPostgres(tx) {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", roomID).Error
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	if !isPostgres(tx) {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func overlapping(tx *gorm.DB, roomID int64, w domain.Window, excludeID int64) *gorm.DB {
	q := tx.Model(&domain.Booking{}).
		Where("room_id = ?", roomID).
		Where("start_time < ? AND end_time > ?", w.End, w.Start) // overlap condition
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	return q
}

func firstConflict(tx *gorm.DB, roomID int64, w domain.Window, excludeID int64) (bool, error) {
	var existing domain.Booking
	err := overlapping(tx, roomID, w, excludeID).Take(&existing).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// CheckAvailability is a point-in-time read; writers must use the
// *WithNoOverlap methods which re-check inside their transaction.
func (r *BookingRepo) CheckAvailability(ctx context.Context, roomID int64, w domain.Window, excludeID int64) (bool, error) {
	conflict, err := firstConflict(r.db.WithContext(ctx), roomID, w, excludeID)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return !conflict, nil
}

func (r *BookingRepo) CreateWithNoOverlap(ctx context.Context, b *domain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRoom(tx, b.RoomID); err != nil {
			return fmt.Errorf("lock room %d: %w", b.RoomID, err)
		}
		conflict, err := firstConflict(tx, b.RoomID, b.Window(), 0)
		if err != nil {
			return err
		}
		if conflict {
			return domain.ErrConflict
		}
		return tx.Create(b).Error
	})
}

func (r *BookingRepo) UpdateWindowWithNoOverlap(ctx context.Context, id int64, patch domain.WindowPatch) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&b, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if err := lockRoom(tx, b.RoomID); err != nil {
			return fmt.Errorf("lock room %d: %w", b.RoomID, err)
		}
		w := patch.Apply(b.Window())
		if !w.Valid() {
			return domain.ErrInvalidWindow
		}
		conflict, err := firstConflict(tx, b.RoomID, w, b.ID)
		if err != nil {
			return err
		}
		if conflict {
			return domain.ErrConflict
		}
		b.StartTime, b.EndTime = w.Start, w.End
		return tx.Model(&domain.Booking{}).Where("id = ?", b.ID).
			Updates(map[string]any{"start_time": w.Start, "end_time": w.End}).Error
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&domain.Booking{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BookingRepo) ByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *BookingRepo) ListForUser(ctx context.Context, username string) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("user_username = ?", username).
		Order("start_time ASC").
		Find(&out).Error
	return out, err
}

func (r *BookingRepo) ListAll(ctx context.Context) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

// Ping reports whether the database answers.
func (r *BookingRepo) Ping(ctx context.Context) error {
	return db.Ping(ctx, r.db)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
