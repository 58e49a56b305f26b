package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/smartmeeting/room-booking/pkg/auth"
	"github.com/smartmeeting/room-booking/services/room-service/internal/domain"
	"github.com/smartmeeting/room-booking/services/room-service/internal/repository"
	"github.com/smartmeeting/room-booking/services/room-service/internal/service"
)

const secret = "room-secret"

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := repository.NewRoomRepo(gdb)
	require.NoError(t, repo.Migrate())
	return NewRouter(service.NewRoomSvc(repo), auth.NewVerifier(secret))
}

func call(t *testing.T, r http.Handler, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		tok, err := auth.CreateAccessToken(secret, "someone", role, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoomDirectory(t *testing.T) {
	r := newRouter(t)

	w := call(t, r, http.MethodGet, "/rooms/1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(t, r, http.MethodPost, "/rooms", auth.RoleUser, map[string]any{"name": "Orion", "capacity": 8})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, r, http.MethodPost, "/rooms", auth.RoleAdmin, map[string]any{"name": "Orion", "capacity": 8, "location": "2F"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created domain.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)

	w = call(t, r, http.MethodPost, "/rooms", auth.RoleAdmin, map[string]any{"name": "  ", "capacity": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, r, http.MethodPost, "/rooms", auth.RoleAdmin, map[string]any{"name": "Lyra", "capacity": 4})
	require.Equal(t, http.StatusCreated, w.Code)

	w = call(t, r, http.MethodGet, "/rooms/1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, r, http.MethodGet, "/rooms/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(t, r, http.MethodGet, "/rooms?q=orI", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found []domain.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Orion", found[0].Name)

	w = call(t, r, http.MethodGet, "/rooms?page=2&page_size=1", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Lyra", found[0].Name)
}
