// file: internal/server/logger_test.go
// version: 2.0.0
// guid: 2e3f4a5b-6c7d-8e9f-0a1b-2c3d4e5f6a7b

package server

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jdfalk/book-library/internal/server/middleware"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestOperationLogger(t *testing.T) {
	buf := captureLog(t)

	ol := NewOperationLogger("getBook", "GET", "/api/v1/books/:id", "req-123")
	ol.SetResourceID("book-456")
	ol.AddDetail("isbn", "2070360024")
	assert.Equal(t, "getBook", ol.handler)
	assert.Equal(t, "2070360024", ol.details["isbn"])

	ol.LogSuccess(http.StatusOK)
	out := buf.String()
	assert.Contains(t, out, "[INFO] [SUCCESS] GET /api/v1/books/:id (200)")
	assert.Contains(t, out, "resource: book-456")
	assert.Contains(t, out, "[request-id: req-123]")

	buf.Reset()
	ol.LogError(http.StatusInternalServerError, errors.New("disk full"))
	assert.Contains(t, buf.String(), "[ERROR] [FAILED]")
	assert.Contains(t, buf.String(), "disk full")

	buf.Reset()
	ol.LogWarning("slow source")
	assert.Contains(t, buf.String(), "[WARN] getBook: slow source")
}

func TestRequestLoggerMiddleware(t *testing.T) {
	buf := captureLog(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), RequestLogger())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "hi") })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Contains(t, buf.String(), "[DEBUG] [RESPONSE] GET /ok -> 200 (2 bytes)")

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Contains(t, buf.String(), "[WARN] [RESPONSE] GET /missing -> 404")
}
