package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/smartmeeting/room-booking/pkg/auth"
	"github.com/smartmeeting/room-booking/pkg/obs"
	"github.com/smartmeeting/room-booking/services/notification-service/internal/domain"
)

type Lister interface {
	List(ctx context.Context, username string, limit int) ([]domain.Notification, error)
}

// NewRouter serves the stored notifications. Admins see everyone's, other
// callers only their own.
func NewRouter(store Lister, v *auth.Verifier) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), obs.GinLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notifications"})
	})

	r.GET("/notifications", auth.JWTAuth(v), func(c *gin.Context) {
		who := auth.FromContext(c)
		username := who.Subject
		if who.IsAdmin() {
			username = c.Query("username")
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

		out, err := store.List(c.Request.Context(), username, limit)
		if err != nil {
			log.Error().Err(err).Msg("list notifications")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, out)
	})
	return r
}
