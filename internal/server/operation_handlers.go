// file: internal/server/operation_handlers.go
// version: 1.0.0
// guid: 1f3b5d7a-9c2e-4b4d-a6f8-0e2c4a6b8d13

package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jdfalk/book-library/internal/models"
	"github.com/jdfalk/book-library/internal/operations"
)

// maxImportISBNs caps one batch import request.
const maxImportISBNs = 1000

// importISBNs queues a background lookup of a list of ISBNs. Progress is
// published on the operations event topic.
func (s *Server) importISBNs(c *gin.Context) {
	ol := opLogger(c, "importISBNs")
	var req ImportISBNsRequest
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}
	if len(req.ISBNs) > maxImportISBNs {
		RespondWithValidationError(c, "isbns", "at most 1000 per request")
		return
	}
	if s.lookup == nil {
		RespondWithError(c, http.StatusServiceUnavailable, "ISBN lookup is not configured", "LOOKUP_UNAVAILABLE")
		return
	}

	todo, invalid, present := operations.PendingISBNs(req.ISBNs, s.lib.Books())
	resp := ImportISBNsResponse{Queued: len(todo), AlreadyPresent: present, Invalid: invalid}
	if resp.Invalid == nil {
		resp.Invalid = []string{}
	}
	if len(todo) == 0 {
		ol.LogSuccess(http.StatusOK)
		RespondWithOK(c, resp)
		return
	}

	job := &operations.ISBNImport{
		ISBNs:   todo,
		Workers: req.Workers,
		Lookup:  s.lookup.SearchByISBN,
		Add: func(ctx context.Context, book models.Book) error {
			_, err := s.lib.AddBook(ctx, book)
			return err
		},
	}
	op, err := s.queue.Enqueue(operations.OpISBNImport, operations.PriorityNormal, job.Run)
	if err != nil {
		if errors.Is(err, operations.ErrQueueFull) {
			RespondWithError(c, http.StatusTooManyRequests, err.Error(), "QUEUE_FULL")
			return
		}
		RespondWithError(c, http.StatusServiceUnavailable, err.Error(), "QUEUE_CLOSED")
		return
	}
	ol.SetResourceID(op.ID)
	ol.LogSuccess(http.StatusAccepted)
	resp.Operation = &op
	c.JSON(http.StatusAccepted, resp)
}

func (s *Server) listOperations(c *gin.Context) {
	ops := s.queue.List()
	RespondWithOK(c, OperationsResponse{Items: ops, Count: len(ops)})
}

func (s *Server) getOperation(c *gin.Context) {
	op, ok := s.queue.Get(c.Param("id"))
	if !ok {
		RespondWithNotFound(c, "operation", c.Param("id"))
		return
	}
	RespondWithOK(c, op)
}

func (s *Server) cancelOperation(c *gin.Context) {
	id := c.Param("id")
	if err := s.queue.Cancel(id); err != nil {
		RespondWithNotFound(c, "operation", id)
		return
	}
	op, _ := s.queue.Get(id)
	RespondWithOK(c, op)
}
