// file: internal/server/scan_handlers.go
// version: 1.0.0
// guid: 2f4b6d8e-0a1c-4e3f-b5d7-9c1e3a5f7b92

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jdfalk/book-library/internal/scanner"
)

// scanReply reports the controller status, first waiting for the lookup
// when the caller passed wait=true.
func (s *Server) scanReply(c *gin.Context, status int, code string) {
	if ParseQueryBool(c, "wait", false) {
		s.scan.Wait()
	}
	c.JSON(status, ScanResponse{Status: s.scan.Status(), Code: code})
}

func (s *Server) requireScanner(c *gin.Context) bool {
	if s.scan == nil {
		RespondWithDomainError(c, scanner.ErrScannerUnavailable, "")
		return false
	}
	return true
}

func (s *Server) getScanStatus(c *gin.Context) {
	if !s.requireScanner(c) {
		return
	}
	RespondWithOK(c, ScanResponse{Status: s.scan.Status()})
}

func (s *Server) startScan(c *gin.Context) {
	ol := opLogger(c, "startScan")
	if !s.requireScanner(c) {
		return
	}
	if err := s.scan.Start(); err != nil {
		ol.LogError(http.StatusServiceUnavailable, err)
		RespondWithDomainError(c, err, "could not start the scanner")
		return
	}
	ol.LogSuccess(http.StatusOK)
	RespondWithOK(c, ScanResponse{Status: s.scan.Status()})
}

func (s *Server) stopScan(c *gin.Context) {
	if !s.requireScanner(c) {
		return
	}
	s.scan.Stop()
	RespondWithOK(c, ScanResponse{Status: s.scan.Status()})
}

// scanISBN looks up a manually entered ISBN and adds the book when found.
func (s *Server) scanISBN(c *gin.Context) {
	ol := opLogger(c, "scanISBN")
	if !s.requireScanner(c) {
		return
	}
	var req ISBNRequest
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}
	ol.SetResourceID(req.ISBN)
	if err := s.scan.SearchISBN(req.ISBN); err != nil {
		ol.LogError(http.StatusBadRequest, err)
		RespondWithDomainError(c, err, "lookup failed")
		return
	}
	s.scanReply(c, http.StatusAccepted, req.ISBN)
}

func (s *Server) simulateScan(c *gin.Context) {
	if !s.requireScanner(c) {
		return
	}
	if err := s.scan.SimulateScan(); err != nil {
		RespondWithDomainError(c, err, "simulated scan failed")
		return
	}
	s.scanReply(c, http.StatusAccepted, s.scan.Status().LastScannedCode)
}

// scanImage decodes the barcode in the uploaded "image" form file.
func (s *Server) scanImage(c *gin.Context) {
	ol := opLogger(c, "scanImage")
	if !s.requireScanner(c) {
		return
	}
	fh, err := c.FormFile("image")
	if HandleBindError(c, err) {
		return
	}
	f, err := fh.Open()
	if err != nil {
		RespondWithBadRequest(c, "could not read the uploaded image")
		return
	}
	defer f.Close()

	img, err := scanner.LoadImage(f)
	if err != nil {
		RespondWithValidationError(c, "image", err.Error())
		return
	}
	if err := s.scan.ProcessImage(c.Request.Context(), img); err != nil {
		ol.LogWarning(err.Error())
		RespondWithDomainError(c, err, "could not process the image")
		return
	}
	ol.AddDetail("filename", fh.Filename)
	s.scanReply(c, http.StatusAccepted, s.scan.Status().LastScannedCode)
}
