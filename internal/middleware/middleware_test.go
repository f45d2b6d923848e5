package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordedRequest struct {
	method string
	path   string
	status int
}

type fakeRecorder struct {
	requests []recordedRequest
}

func (f *fakeRecorder) RecordHTTPRequest(method, path string, status int) {
	f.requests = append(f.requests, recordedRequest{method, path, status})
}

func newRouter(logger *zap.Logger, recorder HTTPRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Logging(logger, recorder))
	router.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})
	router.GET("/fail", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})
	return router
}

func TestRequestIDGenerated(t *testing.T) {
	router := newRouter(zap.NewNop(), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, w.Body.String())
}

func TestRequestIDReused(t *testing.T) {
	router := newRouter(zap.NewNop(), nil)
	incoming := uuid.New().String()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, incoming)
	router.ServeHTTP(w, req)

	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	router.ServeHTTP(w, req)

	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}

func TestLoggingLevelsAndRecorder(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	recorder := &fakeRecorder{}
	router := newRouter(zap.New(core), recorder)

	for _, path := range []string{"/ok", "/fail", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, zap.WarnLevel, entries[2].Level)
	assert.Equal(t, "/fail", entries[1].ContextMap()["path"])

	assert.Equal(t, []recordedRequest{
		{http.MethodGet, "/ok", http.StatusOK},
		{http.MethodGet, "/fail", http.StatusInternalServerError},
		{http.MethodGet, "unmatched", http.StatusNotFound},
	}, recorder.requests)
}
