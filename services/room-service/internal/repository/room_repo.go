package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/smartmeeting/room-booking/services/room-service/internal/domain"
)

type RoomRepo struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

func (r *RoomRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Room{})
}

func (r *RoomRepo) Create(ctx context.Context, room *domain.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *RoomRepo) ByID(ctx context.Context, id int64) (*domain.Room, error) {
	var room domain.Room
	if err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// List pages through rooms by id; nameQuery is a case-insensitive substring.
func (r *RoomRepo) List(ctx context.Context, page, size int, nameQuery string) ([]domain.Room, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	qb := r.db.WithContext(ctx).Model(&domain.Room{})
	if nameQuery != "" {
		qb = qb.Where("LOWER(name) LIKE LOWER(?)", "%"+nameQuery+"%")
	}
	out := []domain.Room{}
	if err := qb.Order("id ASC").Limit(size).Offset(page * size).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
