package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/smartmeeting/room-booking/services/booking-service/internal/domain"
)

// statusClientClosedRequest is nginx's code for a client that went away
// before the response was written.
const statusClientClosedRequest = 499

// writeError is the single place domain errors become HTTP responses.
// Internal failures get an opaque body and are logged with the cause.
func writeError(c *gin.Context, err error) {
	status, detail := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, context.Canceled) || clientGone(c):
		status, detail = statusClientClosedRequest, "Client closed request"
	case errors.Is(err, domain.ErrInvalidWindow):
		status, detail = http.StatusBadRequest, domain.ErrInvalidWindow.Error()
	case errors.Is(err, domain.ErrConflict):
		status, detail = http.StatusConflict, domain.ErrConflict.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, detail = http.StatusNotFound, "Booking not found"
	case errors.Is(err, domain.ErrRoomNotFound):
		status, detail = http.StatusNotFound, "Room not found"
	case errors.Is(err, domain.ErrForbidden):
		status, detail = http.StatusForbidden, "Not allowed"
	case errors.Is(err, domain.ErrDependencyUnavailable):
		status, detail = http.StatusBadGateway, "Rooms service unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		status, detail = http.StatusServiceUnavailable, "Request timed out"
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func clientGone(c *gin.Context) bool {
	return c.Request != nil && errors.Is(c.Request.Context().Err(), context.Canceled)
}
