package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexous-ai/nexous/internal/provider"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := provider.NewRegistry()
	return NewServer(t.TempDir(), t.TempDir(), t.TempDir(), reg, nil)
}

func TestHealthHandler_ReturnsOK(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestGetRunHandler_NotFoundWhenTraceMissing(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/runs/demo/run1", nil)
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRunsHandler_NotImplementedWithoutRunStore(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/projects/demo/runs", nil)
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestCreateRunHandler_RejectsMalformedJSON(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/runs", nil)
	req.Header.Set("Content-Type", "application/json")
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNewServer_WiresEngineAndRunner(t *testing.T) {
	s := newTestServer(t)
	require.NotNil(t, s.engine)
	require.NotNil(t, s.runner)
}
