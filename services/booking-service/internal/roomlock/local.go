package roomlock

import (
	"context"
	"sync"
)

// Local is an in-process per-room mutex. Entries are created on first use
// and dropped once no caller holds or waits for them.
type Local struct {
	mu    sync.Mutex
	rooms map[int64]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

func NewLocal() *Local {
	return &Local{rooms: map[int64]*entry{}}
}

func (l *Local) Lock(ctx context.Context, roomID int64) (func(), error) {
	l.mu.Lock()
	e, ok := l.rooms[roomID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.rooms[roomID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(roomID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(roomID, e)
		})
	}, nil
}

func (l *Local) release(roomID int64, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.rooms, roomID)
	}
}

// Len reports how many rooms currently have holders or waiters.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}
