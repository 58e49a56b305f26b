package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/smartmeeting/room-booking/pkg/auth"
	"github.com/smartmeeting/room-booking/pkg/obs"
	"github.com/smartmeeting/room-booking/services/room-service/internal/domain"
	"github.com/smartmeeting/room-booking/services/room-service/internal/service"
)

type RoomHandler struct {
	svc *service.RoomSvc
}

// NewRouter exposes the room directory. Lookups are public because
// booking-service calls GET /rooms/:id without a user token.
func NewRouter(svc *service.RoomSvc, v *auth.Verifier) *gin.Engine {
	h := &RoomHandler{svc: svc}

	r := gin.New()
	r.Use(gin.Recovery(), obs.GinLogger())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "rooms"})
	})
	r.GET("/rooms", h.List)
	r.GET("/rooms/:id", h.Get)
	r.POST("/rooms", auth.JWTAuth(v), auth.RequireRole(auth.RoleAdmin), h.Create)
	return r
}

func internalError(c *gin.Context, err error) {
	log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}

// GET /rooms/:id
func (h *RoomHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Room not found"})
		return
	}
	room, err := h.svc.Get(c.Request.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Room not found"})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// GET /rooms?page=1&page_size=20&q=orion
func (h *RoomHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	rooms, err := h.svc.List(c.Request.Context(), page-1, size, c.Query("q"))
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// POST /rooms (admin)
func (h *RoomHandler) Create(c *gin.Context) {
	var in struct {
		Name     string `json:"name" binding:"required"`
		Capacity int    `json:"capacity" binding:"required"`
		Location string `json:"location"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	room, err := h.svc.Create(c.Request.Context(), domain.Room{Name: in.Name, Capacity: in.Capacity, Location: in.Location})
	if errors.Is(err, domain.ErrInvalidRoom) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}
