package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/smartmeeting/room-booking/services/booking-service/internal/domain"
)

// MemoryRepo is an in-process interval store. Each room keeps its bookings
// ordered by start; because live bookings never overlap, ends are ordered
// too, which makes a conflict lookup a binary search plus a short backward
// scan.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*domain.Booking
	byRoom map[int64][]*domain.Booking
	now    func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   map[int64]*domain.Booking{},
		byRoom: map[int64][]*domain.Booking{},
		now:    time.Now,
	}
}

func (m *MemoryRepo) conflict(roomID int64, w domain.Window, excludeID int64) *domain.Booking {
	rows := m.byRoom[roomID]
	// first row starting at or after w.End can not overlap, nor can anything after it
	i := sort.Search(len(rows), func(i int) bool { return !rows[i].StartTime.Before(w.End) })
	for j := i - 1; j >= 0; j-- {
		r := rows[j]
		if !r.EndTime.After(w.Start) {
			break
		}
		if r.ID == excludeID {
			continue
		}
		return r
	}
	return nil
}

func (m *MemoryRepo) insertSorted(b *domain.Booking) {
	rows := m.byRoom[b.RoomID]
	i := sort.Search(len(rows), func(i int) bool { return rows[i].StartTime.After(b.StartTime) })
	rows = append(rows, nil)
	copy(rows[i+1:], rows[i:])
	rows[i] = b
	m.byRoom[b.RoomID] = rows
}

func (m *MemoryRepo) removeSorted(b *domain.Booking) {
	rows := m.byRoom[b.RoomID]
	for i, r := range rows {
		if r.ID == b.ID {
			rows = append(rows[:i], rows[i+1:]...)
			break
		}
	}
	if len(rows) == 0 {
		delete(m.byRoom, b.RoomID)
		return
	}
	m.byRoom[b.RoomID] = rows
}

func (m *MemoryRepo) CheckAvailability(_ context.Context, roomID int64, w domain.Window, excludeID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conflict(roomID, w, excludeID) == nil, nil
}

func (m *MemoryRepo) CreateWithNoOverlap(ctx context.Context, b *domain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conflict(b.RoomID, b.Window(), 0) != nil {
		return domain.ErrConflict
	}
	m.nextID++
	b.ID = m.nextID
	if b.CreatedAt.IsZero() {
		b.CreatedAt = m.now().UTC()
	}
	row := *b
	m.byID[row.ID] = &row
	m.insertSorted(&row)
	return nil
}

func (m *MemoryRepo) UpdateWindowWithNoOverlap(ctx context.Context, id int64, patch domain.WindowPatch) (*domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	w := patch.Apply(row.Window())
	if !w.Valid() {
		return nil, domain.ErrInvalidWindow
	}
	if m.conflict(row.RoomID, w, row.ID) != nil {
		return nil, domain.ErrConflict
	}
	m.removeSorted(row)
	row.StartTime, row.EndTime = w.Start, w.End
	m.insertSorted(row)
	out := *row
	return &out, nil
}

func (m *MemoryRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	m.removeSorted(row)
	return nil
}

func (m *MemoryRepo) ByID(_ context.Context, id int64) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *row
	return &out, nil
}

func (m *MemoryRepo) ListForUser(_ context.Context, username string) ([]domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Booking
	for _, row := range m.byID {
		if row.Username == username {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *MemoryRepo) ListAll(_ context.Context) ([]domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Booking, 0, len(m.byID))
	for _, row := range m.byID {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepo) Ping(context.Context) error { return nil }
