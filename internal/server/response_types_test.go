// file: internal/server/response_types_test.go
// version: 2.0.0
// guid: 8a9b0c1d-2e3f-4a5b-6c7d-8e9f0a1b2c3d

package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/book-library/internal/models"
)

func TestPaginationPage(t *testing.T) {
	books := []models.Book{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	assert.Len(t, PaginationParams{}.Page(books), 3)
	assert.Equal(t, []models.Book{{ID: "2"}}, PaginationParams{Limit: 1, Offset: 1}.Page(books))
	assert.Equal(t, []models.Book{{ID: "3"}}, PaginationParams{Limit: 5, Offset: 2}.Page(books))
	assert.Empty(t, PaginationParams{Offset: 3}.Page(books))
}

func TestNewListResponse(t *testing.T) {
	items := []models.Book{{ID: "1"}, {ID: "2"}}
	resp := NewListResponse(items, PaginationParams{Limit: 2}, 7)

	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 2, resp.Limit)
	assert.Equal(t, 7, resp.Total)
}

func TestImportPreviewJSON(t *testing.T) {
	data, err := json.Marshal(ImportPreview{Count: 3, ConfirmRequired: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3,"confirm_required":true}`, string(data))
}
