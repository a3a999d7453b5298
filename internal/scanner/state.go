// file: internal/scanner/state.go
// version: 1.0.0
// guid: 0d7e3b5a-8c1f-4d2e-b6a9-3f5c7e1d9b20

package scanner

import (
	"context"
	"errors"
	"image"
)

// State is the scan controller's main state.
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
	StateLoading  State = "loading"
)

// DefaultMinCodeLength is the shortest detected code treated as an ISBN.
const DefaultMinCodeLength = 10

// DefaultQueueSize bounds the detection channel between stream and controller.
const DefaultQueueSize = 16

// DefaultSimulateISBN is the ISBN SimulateScan submits.
const DefaultSimulateISBN = "9782253093008"

var (
	// ErrScannerUnavailable means no live stream is configured.
	ErrScannerUnavailable = errors.New("scanner unavailable")
	// ErrNoCode means the decoder found no barcode in an image.
	ErrNoCode = errors.New("no barcode found")
	// ErrLookupInFlight refuses a new lookup while one is running.
	ErrLookupInFlight = errors.New("a lookup is already in progress")
	// ErrClosed is returned by operations on a closed controller.
	ErrClosed = errors.New("scanner closed")
)

// Status is a snapshot of the controller. Err is orthogonal to State:
// it can be set in any state and is cleared by the next action.
type Status struct {
	State           State  `json:"state"`
	Err             string `json:"error,omitempty"`
	LastScannedCode string `json:"lastScannedCode,omitempty"`
	DecoderLoaded   bool   `json:"decoderLoaded"`
}

// Scanning reports whether the live stream is active.
func (s Status) Scanning() bool { return s.State == StateScanning }

// Loading reports whether a lookup is in flight.
func (s Status) Loading() bool { return s.State == StateLoading }

// Detection is one code reported by a live stream.
type Detection struct {
	Code   string `json:"code"`
	Format string `json:"format,omitempty"`
	Source string `json:"source,omitempty"`
}

// Decoder finds a barcode in a still image.
type Decoder interface {
	DecodeSingle(ctx context.Context, img image.Image) (string, error)
}

// Stream produces detections until stopped. Start must not block; Stop must
// be idempotent. Streams deliver with Offer so a slow consumer never blocks them.
type Stream interface {
	Start(ctx context.Context, out chan<- Detection) error
	Stop() error
}
