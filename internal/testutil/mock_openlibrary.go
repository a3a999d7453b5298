// file: internal/testutil/mock_openlibrary.go
// version: 2.0.0
// guid: c3d4e5f6-a7b8-9012-cdef-345678901abc

package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// MockServer is an httptest.Server that answers from a pattern table and
// counts the requests it receives.
type MockServer struct {
	*httptest.Server
	hits atomic.Int64
}

// Hits returns how many requests the server has handled.
func (m *MockServer) Hits() int {
	return int(m.hits.Load())
}

// NewMockServer creates a server whose responses map keys are matched against
// the request URL using Contains. Unmatched requests get 404.
func NewMockServer(t *testing.T, responses map[string]string) *MockServer {
	t.Helper()
	m := &MockServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.hits.Add(1)
		for pattern, body := range responses {
			if strings.Contains(r.URL.String(), pattern) {
				w.Header().Set("Content-Type", contentTypeFor(body))
				_, _ = w.Write([]byte(body))
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// NewStatusServer creates a server that answers every request with status.
func NewStatusServer(t *testing.T, status int) *MockServer {
	t.Helper()
	m := &MockServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.hits.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockOpenLibraryServer creates an httptest.Server that mimics the Open Library Books API.
func MockOpenLibraryServer(t *testing.T, responses map[string]string) *MockServer {
	t.Helper()
	return NewMockServer(t, responses)
}

func contentTypeFor(body string) string {
	if strings.HasPrefix(strings.TrimSpace(body), "<") {
		return "text/xml; charset=utf-8"
	}
	return "application/json"
}

// SimulatedISBN is the ISBN the scan simulation submits.
const SimulatedISBN = "9782253093008"

// GoogleBooksISBNResponse is a volumes?q=isbn: answer for SimulatedISBN.
const GoogleBooksISBNResponse = `{
	"totalItems": 1,
	"items": [{
		"volumeInfo": {
			"title": "Les Misérables",
			"authors": ["Victor Hugo"],
			"publisher": "Le Livre de Poche",
			"publishedDate": "1998",
			"description": "Roman historique.",
			"pageCount": 1664,
			"categories": ["Fiction"],
			"language": "fr",
			"imageLinks": {"thumbnail": "http://books.example.com/cover.jpg"}
		}
	}]
}`

// GoogleBooksEmptyResponse returns no items.
const GoogleBooksEmptyResponse = `{"kind":"books#volumes","totalItems":0}`

// OpenLibraryISBNResponse is an api/books jscmd=data answer for SimulatedISBN.
const OpenLibraryISBNResponse = `{
	"ISBN:9782253093008": {
		"title": "Les Misérables",
		"authors": [{"name": "Victor Hugo"}],
		"publishers": [{"name": "Le Livre de Poche"}, {"name": "LGF"}],
		"publish_date": "1998",
		"number_of_pages": 1664,
		"cover": {"small": "http://covers.example.com/s.jpg", "large": "http://covers.example.com/l.jpg"},
		"excerpts": [{"text": "En 1815, M. Charles-François-Bienvenu Myriel..."}],
		"subjects": [{"name": "Fiction"}, "France", {"name": "History"}, {"name": "Paris"}]
	}
}`

// OpenLibraryEmptyResponse returns no results.
const OpenLibraryEmptyResponse = `{}`

// BnFISBNResponse is an SRU Dublin Core answer with one record.
const BnFISBNResponse = `<?xml version="1.0" encoding="UTF-8"?>
<srw:searchRetrieveResponse xmlns:srw="http://www.loc.gov/zing/srw/">
  <srw:numberOfRecords>1</srw:numberOfRecords>
  <srw:records><srw:record><srw:recordData>
    <oai_dc:dc xmlns:dc="http://purl.org/dc/elements/1.1/">
      <dc:title>Les misérables / Victor Hugo</dc:title>
      <dc:creator>Hugo, Victor (1802-1885). Auteur du texte</dc:creator>
      <dc:publisher>Librairie générale française (Paris)</dc:publisher>
      <dc:date>1998</dc:date>
      <dc:subject>Roman français -- 19e siècle</dc:subject>
    </oai_dc:dc>
  </srw:recordData></srw:record></srw:records>
</srw:searchRetrieveResponse>`

// BnFEmptyResponse is an SRU answer with zero records.
const BnFEmptyResponse = `<?xml version="1.0" encoding="UTF-8"?>
<srw:searchRetrieveResponse xmlns:srw="http://www.loc.gov/zing/srw/">
  <srw:numberOfRecords>0</srw:numberOfRecords>
</srw:searchRetrieveResponse>`

// GoogleBooksCoversResponse has three volumes, one without a thumbnail.
const GoogleBooksCoversResponse = `{
	"totalItems": 3,
	"items": [
		{"volumeInfo": {"title": "A", "imageLinks": {"thumbnail": "http://img.example.com/1.jpg"}}},
		{"volumeInfo": {"title": "B"}},
		{"volumeInfo": {"title": "C", "imageLinks": {"thumbnail": "http://img.example.com/3.jpg"}}}
	]
}`
