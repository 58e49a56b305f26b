package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/smartmeeting/room-booking/services/room-service/internal/domain"
)

type Repo interface {
	Create(ctx context.Context, room *domain.Room) error
	ByID(ctx context.Context, id int64) (*domain.Room, error)
	List(ctx context.Context, page, size int, nameQuery string) ([]domain.Room, error)
}

type RoomSvc struct {
	repo Repo
}

func NewRoomSvc(r Repo) *RoomSvc {
	return &RoomSvc{repo: r}
}

func (s *RoomSvc) Create(ctx context.Context, in domain.Room) (*domain.Room, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Capacity <= 0 {
		return nil, domain.ErrInvalidRoom
	}
	in.ID = 0
	if err := s.repo.Create(ctx, &in); err != nil {
		return nil, err
	}
	log.Info().Int64("room_id", in.ID).Str("name", in.Name).Msg("Room created")
	return &in, nil
}

func (s *RoomSvc) Get(ctx context.Context, id int64) (*domain.Room, error) {
	return s.repo.ByID(ctx, id)
}

func (s *RoomSvc) List(ctx context.Context, page, size int, nameQuery string) ([]domain.Room, error) {
	return s.repo.List(ctx, page, size, nameQuery)
}
