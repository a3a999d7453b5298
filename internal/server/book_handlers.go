// file: internal/server/book_handlers.go
// version: 1.0.0
// guid: 0b2d4f6a-8c1e-4a3b-9d5f-7e9b1d3f5a86

package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jdfalk/book-library/internal/database"
	"github.com/jdfalk/book-library/internal/library"
	"github.com/jdfalk/book-library/internal/models"
	"github.com/jdfalk/book-library/internal/search"
)

// filterFromQuery reads the list filters shared by list and export.
func filterFromQuery(c *gin.Context) (models.Filter, error) {
	f := models.Filter{
		SearchTerm: c.Query("search"),
		Genre:      c.Query("genre"),
		Author:     c.Query("author"),
		ISBN:       c.Query("isbn"),
		Publisher:  c.Query("publisher"),
	}
	if v := c.Query("status"); v != "" {
		status, err := models.ParseReadingStatus(v)
		if err != nil {
			return f, err
		}
		f.ReadingStatus = status
	}
	return f, nil
}

// selectBooks applies q (full-text), the filters and the sort from the query.
func (s *Server) selectBooks(c *gin.Context) ([]models.Book, error) {
	f, err := filterFromQuery(c)
	if err != nil {
		return nil, err
	}

	books := s.lib.Books()
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		if s.index == nil {
			return nil, fmt.Errorf("%w: full-text search is not available", models.ErrValidation)
		}
		ids, err := s.index.Search(q, len(books))
		if err != nil {
			return nil, err
		}
		books = search.Select(books, ids)
	}

	books = models.FilterBooks(books, f)
	if field := c.Query("sort"); field != "" {
		order := models.SortOrder(strings.ToLower(c.DefaultQuery("order", string(models.SortAsc))))
		if order != models.SortAsc && order != models.SortDesc {
			return nil, fmt.Errorf("%w: order must be asc or desc", models.ErrValidation)
		}
		books = models.SortBooks(books, field, order)
	}
	return books, nil
}

func (s *Server) listBooks(c *gin.Context) {
	books, err := s.selectBooks(c)
	if err != nil {
		RespondWithDomainError(c, err, "failed to list books")
		return
	}
	p := ParsePaginationParams(c)
	RespondWithOK(c, NewListResponse(p.Page(books), p, len(books)))
}

func (s *Server) getBook(c *gin.Context) {
	id := c.Param("id")
	book, ok := s.lib.Get(id)
	if !ok {
		RespondWithNotFound(c, "book", id)
		return
	}
	RespondWithOK(c, book)
}

func (s *Server) createBook(c *gin.Context) {
	ol := opLogger(c, "createBook")

	var book models.Book
	if HandleBindError(c, c.ShouldBindJSON(&book)) {
		return
	}
	stored, err := s.lib.AddBook(c.Request.Context(), book)
	if err != nil {
		ol.LogError(http.StatusBadRequest, err)
		RespondWithDomainError(c, err, s.lib.Error())
		return
	}
	ol.SetResourceID(stored.ID)
	ol.LogSuccess(http.StatusCreated)
	RespondWithCreated(c, stored)
}

func (s *Server) updateBook(c *gin.Context) {
	ol := opLogger(c, "updateBook")
	id := c.Param("id")
	ol.SetResourceID(id)

	if _, ok := s.lib.Get(id); !ok {
		RespondWithDomainError(c, fmt.Errorf("%w: %s", library.ErrBookNotFound, id), "")
		return
	}
	var book models.Book
	if HandleBindError(c, c.ShouldBindJSON(&book)) {
		return
	}
	book.ID = id
	if err := book.Validate(); err != nil {
		RespondWithDomainError(c, err, "")
		return
	}
	updated, err := s.lib.UpdateBook(c.Request.Context(), book)
	if err != nil {
		ol.LogError(http.StatusInternalServerError, err)
		RespondWithDomainError(c, err, s.lib.Error())
		return
	}
	ol.LogSuccess(http.StatusOK)
	RespondWithOK(c, updated)
}

func (s *Server) deleteBook(c *gin.Context) {
	ol := opLogger(c, "deleteBook")
	id := c.Param("id")
	ol.SetResourceID(id)

	if _, ok := s.lib.Get(id); !ok {
		RespondWithNotFound(c, "book", id)
		return
	}
	if err := s.lib.RemoveBook(c.Request.Context(), id); err != nil {
		ol.LogError(http.StatusInternalServerError, err)
		RespondWithDomainError(c, err, s.lib.Error())
		return
	}
	ol.LogSuccess(http.StatusOK)
	RespondWithOK(c, DeleteResponse{Deleted: true, ID: id})
}

func (s *Server) exportBooks(c *gin.Context) {
	books, err := s.selectBooks(c)
	if err != nil {
		RespondWithDomainError(c, err, "failed to export books")
		return
	}
	data, err := s.lib.ExportBooks(books)
	if err != nil {
		RespondWithDomainError(c, err, s.lib.Error())
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, database.ExportFileName(time.Now())))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// importBooks previews the record count unless confirm=true, then merges.
func (s *Server) importBooks(c *gin.Context) {
	ol := opLogger(c, "importBooks")

	body, err := io.ReadAll(c.Request.Body)
	if HandleBindError(c, err) {
		return
	}
	books, err := database.ParseBooks(body)
	if err != nil {
		RespondWithDomainError(c, err, "")
		return
	}
	if len(books) == 0 {
		RespondWithValidationError(c, "books", "the file contains no books")
		return
	}
	ol.AddDetail("count", len(books))

	if !ParseQueryBool(c, "confirm", false) {
		RespondWithOK(c, ImportPreview{Count: len(books), ConfirmRequired: true})
		return
	}
	merged, err := s.lib.ImportBooks(c.Request.Context(), books)
	if err != nil {
		ol.LogError(http.StatusInternalServerError, err)
		RespondWithDomainError(c, err, s.lib.Error())
		return
	}
	ol.LogSuccess(http.StatusOK)
	RespondWithOK(c, NewListResponse(merged, PaginationParams{}, len(merged)))
}

func (s *Server) getStats(c *gin.Context) {
	RespondWithOK(c, models.ComputeStats(s.lib.Books()))
}

func (s *Server) listGenres(c *gin.Context) {
	RespondWithOK(c, gin.H{
		"genres": models.Genres,
		"used":   models.UniqueGenres(s.lib.Books()),
	})
}

func (s *Server) suggestTitles(c *gin.Context) {
	if s.index == nil {
		RespondWithOK(c, gin.H{"suggestions": []search.Suggestion{}})
		return
	}
	RespondWithOK(c, gin.H{"suggestions": s.index.Suggest(c.Query("q"), ParseQueryInt(c, "limit", 10))})
}
