package roomlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var ErrLockUnavailable = errors.New("room lock unavailable")

// releaseScript deletes the key only while it still carries our token, so an
// expired holder can not release a lock someone else has since taken.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a per-room lock shared by every booking-service replica. The TTL
// bounds how long a crashed holder can block a room.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{client: client, ttl: ttl, retry: 25 * time.Millisecond}
}

func (r *Redis) key(roomID int64) string {
	return fmt.Sprintf("roomlock:%d", roomID)
}

func (r *Redis) Lock(ctx context.Context, roomID int64) (func(), error) {
	key := r.key(roomID)
	token := uuid.NewString()

	for {
		acquired, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrLockUnavailable, err)
		}
		if acquired {
			break
		}
		t := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	return func() {
		// release even when the request context is already gone
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, r.client, []string{key}, token).Err(); err != nil {
			log.Warn().Err(err).Int64("room_id", roomID).Msg("Failed to release room lock")
		}
	}, nil
}
