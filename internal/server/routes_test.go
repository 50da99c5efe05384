package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cardtable/tabletop-server-go/internal/config"
	"github.com/cardtable/tabletop-server-go/internal/session"
)

func newTestRouter(t *testing.T) (*Hub, http.Handler) {
	logger := zaptest.NewLogger(t)
	sessions := session.NewManager(time.Hour, logger)
	hub := NewHub(context.Background(), sessions, nil, 40, logger)
	router := SetupRouter(hub, sessions, config.ServerConfig{ReadLimitBytes: 1 << 20}, logger)
	return hub, router
}

func TestHealthz(t *testing.T) {
	_, router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateTableAndReadState(t *testing.T) {
	_, router := newTestRouter(t)

	body := `{"name":"friday night","players":[{"id":"p1","name":"Alice"},{"id":"p2","name":"Bob"}]}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tables", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		TableID string `json:"tableId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.TableID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tables/"+created.TableID+"/state", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"players"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tables/"+created.TableID+"/checksum", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Hash"`)
}

func TestCreateTableRejectsBadRequests(t *testing.T) {
	_, router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tables", strings.NewReader(`{"name":"no seats"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDefinitionLookupWithoutCatalog(t *testing.T) {
	_, router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/definitions/def-bolt", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUnknownTableReturns404(t *testing.T) {
	_, router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tables/missing/state", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
