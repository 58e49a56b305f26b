package httpx

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartmeeting/room-booking/pkg/auth"
	"github.com/smartmeeting/room-booking/pkg/obs"
)

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDeps struct {
	Service    BookingService
	Verifier   *auth.Verifier
	Store      Pinger
	BrokerHost string
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), obs.GinLogger())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "bookings", "status": "running"})
	})
	r.GET("/health", func(c *gin.Context) {
		dbOK := d.Store.Ping(c.Request.Context()) == nil
		c.JSON(http.StatusOK, gin.H{
			"service":       "bookings_service",
			"status":        "ok",
			"database":      dbOK,
			"rabbitmq_host": d.BrokerHost,
		})
	})

	h := NewBookingHandler(d.Service)
	secured := r.Group("")
	secured.Use(auth.JWTAuth(d.Verifier))
	{
		secured.POST("/bookings", h.Create)
		secured.GET("/bookings/:id", h.Get)
		secured.PUT("/bookings/:id", h.Update)
		secured.DELETE("/bookings/:id", h.Delete)
		secured.GET("/users/:username/bookings", h.ListForUser)
		secured.GET("/rooms/:room_id/availability", h.Availability)

		admin := secured.Group("")
		admin.Use(auth.RequireRole(auth.RoleAdmin))
		admin.GET("/bookings", h.ListAll)
	}
	return r
}
