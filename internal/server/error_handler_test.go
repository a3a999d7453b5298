// file: internal/server/error_handler_test.go
// version: 2.0.0
// guid: 6e7f8a9b-0c1d-2e3f-4a5b-6c7d8e9f0a1b

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/book-library/internal/library"
	"github.com/jdfalk/book-library/internal/metadata"
	"github.com/jdfalk/book-library/internal/models"
	"github.com/jdfalk/book-library/internal/scanner"
)

func newTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRespondWithBadRequest(t *testing.T) {
	c, w := newTestContext("/")
	RespondWithBadRequest(c, "test error")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "test error", body.Error)
	assert.Equal(t, "BAD_REQUEST", body.Code)
	assert.Equal(t, http.StatusBadRequest, body.Status)
}

func TestRespondWithNotFound(t *testing.T) {
	c, w := newTestContext("/")
	RespondWithNotFound(c, "book", "123")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "book not found: 123", decodeError(t, w).Error)
}

func TestRespondWithDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("add: %w", models.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{library.ErrBookNotFound, http.StatusNotFound, "NOT_FOUND"},
		{&metadata.NotFoundError{ISBN: "123"}, http.StatusNotFound, "ISBN_NOT_FOUND"},
		{scanner.ErrLookupInFlight, http.StatusConflict, "CONFLICT"},
		{scanner.ErrScannerUnavailable, http.StatusServiceUnavailable, "SCANNER_UNAVAILABLE"},
		{fmt.Errorf("decode: %w", scanner.ErrNoCode), http.StatusUnprocessableEntity, "NO_BARCODE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c, w := newTestContext("/")
			RespondWithDomainError(c, tt.err, "something failed")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestHandleBindError(t *testing.T) {
	c, _ := newTestContext("/")
	assert.False(t, HandleBindError(c, nil))

	c, w := newTestContext("/")
	assert.True(t, HandleBindError(c, errors.New("unexpected EOF")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext("/")
	assert.True(t, HandleBindError(c, &http.MaxBytesError{Limit: 8}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestParseQueryHelpers(t *testing.T) {
	c, _ := newTestContext("/?limit=25&flag=true&other=1&bad=x")
	assert.Equal(t, 25, ParseQueryInt(c, "limit", 50))
	assert.Equal(t, 7, ParseQueryInt(c, "bad", 7))
	assert.Equal(t, 0, ParseQueryInt(c, "offset", 0))
	assert.True(t, ParseQueryBool(c, "flag", false))
	assert.True(t, ParseQueryBool(c, "other", false))
	assert.True(t, ParseQueryBool(c, "missing", true))
}

func TestParsePaginationParams(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"/", 0, 0},
		{"/?limit=100&offset=20", 100, 20},
		{"/?limit=2000", 1000, 0},
		{"/?offset=-5&limit=-1", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := newTestContext(tt.query)
			p := ParsePaginationParams(c)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}
