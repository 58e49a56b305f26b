package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartmeeting/room-booking/pkg/db"
	"github.com/smartmeeting/room-booking/services/notification-service/internal/domain"
)

const defaultListLimit = 100

type NotificationRepo struct {
	db *gorm.DB
}

func NewNotificationRepo(gdb *gorm.DB) *NotificationRepo {
	return &NotificationRepo{db: gdb}
}

func (r *NotificationRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Notification{})
}

// Save inserts n unless a record with the same event id already exists.
// It reports whether a row was written.
func (r *NotificationRepo) Save(ctx context.Context, n *domain.Notification) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(n)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// List returns the newest records first. An empty username lists everyone's.
func (r *NotificationRepo) List(ctx context.Context, username string, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	q := r.db.WithContext(ctx).Model(&domain.Notification{})
	if username != "" {
		q = q.Where("username = ?", username)
	}
	out := []domain.Notification{}
	if err := q.Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *NotificationRepo) Ping(ctx context.Context) error {
	return db.Ping(ctx, r.db)
}
