package rooms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/smartmeeting/room-booking/services/booking-service/internal/domain"
)

const defaultTimeout = 3 * time.Second

// Directory asks the room service whether a room exists.
type Directory struct {
	baseURL string
	client  *http.Client
}

func NewDirectory(baseURL string, timeout time.Duration) *Directory {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Directory{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Exists maps 200 to true and 404 to false. Anything else, including a
// transport failure or timeout, is ErrDependencyUnavailable.
func (d *Directory) Exists(ctx context.Context, roomID int64) (bool, error) {
	ctx, span := otel.Tracer("booking-service").Start(ctx, "rooms.Exists")
	defer span.End()
	span.SetAttributes(attribute.Int64("room.id", roomID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/rooms/%d", d.baseURL, roomID), nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrDependencyUnavailable, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Int64("room_id", roomID).Msg("Room directory request failed")
		return false, fmt.Errorf("%w: %v", domain.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		log.Warn().Int("status", resp.StatusCode).Int64("room_id", roomID).Msg("Room directory returned unexpected status")
		return false, fmt.Errorf("%w: status %d", domain.ErrDependencyUnavailable, resp.StatusCode)
	}
}
