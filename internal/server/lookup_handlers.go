// file: internal/server/lookup_handlers.go
// version: 1.0.0
// guid: 6e8a0c2e-4b7d-4f19-a3c5-1d7f9b2e4a60

package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jdfalk/book-library/internal/models"
)

// maxCovers caps the thumbnails returned for one title.
const maxCovers = 20

// lookupISBN resolves an ISBN through the source chain without storing it.
func (s *Server) lookupISBN(c *gin.Context) {
	ol := opLogger(c, "lookupISBN")
	isbn := models.CleanISBN(c.Param("isbn"))
	ol.SetResourceID(isbn)

	if !models.IsValidISBN(isbn) {
		RespondWithValidationError(c, "isbn", "enter a valid ISBN (10 or 13 digits)")
		return
	}
	if s.lookup == nil {
		RespondWithError(c, http.StatusServiceUnavailable, "ISBN lookup is not configured", "LOOKUP_UNAVAILABLE")
		return
	}

	book, err := s.lookup.SearchByISBN(c.Request.Context(), isbn)
	if err != nil {
		ol.LogWarning(err.Error())
		RespondWithDomainError(c, err, "lookup failed")
		return
	}
	ol.LogSuccess(http.StatusOK)
	RespondWithOK(c, book)
}

// lookupCovers lists cover thumbnails for a title and optional author.
func (s *Server) lookupCovers(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		RespondWithValidationError(c, "title", "is required")
		return
	}
	if s.lookup == nil {
		RespondWithError(c, http.StatusServiceUnavailable, "ISBN lookup is not configured", "LOOKUP_UNAVAILABLE")
		return
	}

	limit := ParseQueryInt(c, "limit", maxCovers)
	covers := []string{}
	for url := range s.lookup.SearchBookCovers(c.Request.Context(), title, c.Query("author")) {
		covers = append(covers, url)
		if len(covers) >= limit {
			break
		}
	}
	RespondWithOK(c, CoversResponse{Covers: covers})
}
