package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartmeeting/room-booking/pkg/auth"
	"github.com/smartmeeting/room-booking/services/booking-service/internal/domain"
)

type BookingService interface {
	Create(ctx context.Context, who auth.Identity, roomID int64, w domain.Window) (*domain.Booking, error)
	Update(ctx context.Context, who auth.Identity, id int64, patch domain.WindowPatch) (*domain.Booking, error)
	Delete(ctx context.Context, who auth.Identity, id int64) error
	Get(ctx context.Context, who auth.Identity, id int64) (*domain.Booking, error)
	ListForUser(ctx context.Context, who auth.Identity, username string) ([]domain.Booking, error)
	ListAll(ctx context.Context, who auth.Identity) ([]domain.Booking, error)
	CheckAvailability(ctx context.Context, roomID int64, w domain.Window) (bool, error)
}

type BookingHandler struct {
	svc BookingService
}

func NewBookingHandler(svc BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

type bookingOut struct {
	ID           int64     `json:"id"`
	UserUsername string    `json:"user_username"`
	RoomID       int64     `json:"room_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	CreatedAt    time.Time `json:"created_at"`
}

func toOut(b domain.Booking) bookingOut {
	return bookingOut{
		ID:           b.ID,
		UserUsername: b.Username,
		RoomID:       b.RoomID,
		StartTime:    b.StartTime.UTC(),
		EndTime:      b.EndTime.UTC(),
		CreatedAt:    b.CreatedAt.UTC(),
	}
}

func toOutList(bs []domain.Booking) []bookingOut {
	out := make([]bookingOut, 0, len(bs))
	for _, b := range bs {
		out = append(out, toOut(b))
	}
	return out
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "invalid " + name})
		return 0, false
	}
	return id, true
}

// POST /bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var in struct {
		RoomID    int64     `json:"room_id" binding:"required"`
		StartTime time.Time `json:"start_time"` // RFC3339
		EndTime   time.Time `json:"end_time"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "start_time and end_time are required"})
		return
	}
	b, err := h.svc.Create(c.Request.Context(), auth.FromContext(c), in.RoomID, domain.Window{Start: in.StartTime, End: in.EndTime})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOut(*b))
}

// PUT /bookings/:id, either field may be omitted
func (h *BookingHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in struct {
		StartTime *time.Time `json:"start_time"`
		EndTime   *time.Time `json:"end_time"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	b, err := h.svc.Update(c.Request.Context(), auth.FromContext(c), id, domain.WindowPatch{Start: in.StartTime, End: in.EndTime})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOut(*b))
}

// DELETE /bookings/:id
func (h *BookingHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), auth.FromContext(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking deleted"})
}

// GET /bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.Get(c.Request.Context(), auth.FromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOut(*b))
}

// GET /users/:username/bookings
func (h *BookingHandler) ListForUser(c *gin.Context) {
	bs, err := h.svc.ListForUser(c.Request.Context(), auth.FromContext(c), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOutList(bs))
}

// GET /bookings (admin)
func (h *BookingHandler) ListAll(c *gin.Context) {
	bs, err := h.svc.ListAll(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOutList(bs))
}

// GET /rooms/:room_id/availability?start=RFC3339&end=RFC3339
func (h *BookingHandler) Availability(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}
	start, err1 := time.Parse(time.RFC3339, c.Query("start"))
	end, err2 := time.Parse(time.RFC3339, c.Query("end"))
	if err1 != nil || err2 != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "start and end must be RFC3339"})
		return
	}
	w := domain.Window{Start: start, End: end}
	free, err := h.svc.CheckAvailability(c.Request.Context(), roomID, w)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room_id":   roomID,
		"start":     start.UTC(),
		"end":       end.UTC(),
		"available": free,
	})
}
