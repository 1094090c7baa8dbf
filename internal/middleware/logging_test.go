package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/metrics"
)

func TestRequestIDAndLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	router := gin.New()
	router.Use(RequestID(), Logger(logging.New(zerolog.New(&buf))))
	router.GET("/api/v1/clip/download/:clip_id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/clip/download/:clip_id", "404"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/clip/download/abc", nil)
	router.ServeHTTP(w, req)

	id := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Contains(t, buf.String(), id)
	assert.Contains(t, buf.String(), `"status_code":404`)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/clip/download/:clip_id", "404")))
}

func TestRequestIDPropagated(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}
