// file: internal/server/response_types.go
// version: 2.0.0
// guid: 7f8a9b0c-1d2e-3f4a-5b6c-7d8e9f0a1b2c

package server

import (
	"github.com/jdfalk/book-library/internal/models"
	"github.com/jdfalk/book-library/internal/operations"
	"github.com/jdfalk/book-library/internal/scanner"
)

// ListResponse provides a consistent format for paginated list responses
type ListResponse struct {
	Items  any `json:"items"`
	Count  int `json:"count"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
	Total  int `json:"total"`
}

// PaginationParams holds common pagination parameters
type PaginationParams struct {
	Limit  int
	Offset int
}

// Page returns the slice of books the params select.
func (p PaginationParams) Page(books []models.Book) []models.Book {
	if p.Offset >= len(books) {
		return []models.Book{}
	}
	books = books[p.Offset:]
	if p.Limit > 0 && p.Limit < len(books) {
		books = books[:p.Limit]
	}
	return books
}

// NewListResponse creates a new ListResponse with pagination info
func NewListResponse(items []models.Book, p PaginationParams, total int) *ListResponse {
	return &ListResponse{
		Items:  items,
		Count:  len(items),
		Limit:  p.Limit,
		Offset: p.Offset,
		Total:  total,
	}
}

// ImportPreview is returned by an import that has not been confirmed yet.
type ImportPreview struct {
	Count           int  `json:"count"`
	ConfirmRequired bool `json:"confirm_required"`
}

// DeleteResponse provides a consistent format for deletion responses
type DeleteResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// ScanResponse reports the scan controller after an action.
type ScanResponse struct {
	Status scanner.Status `json:"status"`
	Code   string         `json:"code,omitempty"`
}

// ISBNRequest is the body of POST /scan/isbn.
type ISBNRequest struct {
	ISBN string `json:"isbn" binding:"required"`
}

// ImportISBNsRequest is the body of POST /books/import-isbns.
type ImportISBNsRequest struct {
	ISBNs   []string `json:"isbns" binding:"required"`
	Workers int      `json:"workers"`
}

// ImportISBNsResponse reports how a batch import was split. Operation is
// nil when nothing was left to look up.
type ImportISBNsResponse struct {
	Operation      *operations.Operation `json:"operation,omitempty"`
	Queued         int                   `json:"queued"`
	AlreadyPresent int                   `json:"already_present"`
	Invalid        []string              `json:"invalid"`
}

// OperationsResponse lists background operations, newest first.
type OperationsResponse struct {
	Items []operations.Operation `json:"items"`
	Count int                    `json:"count"`
}

// CoversResponse lists cover thumbnails for a title.
type CoversResponse struct {
	Covers []string `json:"covers"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status       string         `json:"status"`
	Timestamp    int64          `json:"timestamp"`
	Version      string         `json:"version"`
	DatabaseType string         `json:"database_type"`
	Books        int            `json:"books"`
	Loading      bool           `json:"loading"`
	Scan         scanner.Status `json:"scan"`
	SSEClients   int            `json:"sse_clients"`
	Operations   int            `json:"operations"`
}
