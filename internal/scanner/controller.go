// file: internal/scanner/controller.go
// version: 1.0.0
// guid: 5b9e1c3d-7a2f-4e8b-9d0c-6f4a2b8e1d37

package scanner

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"
	"sync"

	"github.com/jdfalk/book-library/internal/metrics"
	"github.com/jdfalk/book-library/internal/models"
)

// LookupFunc resolves an ISBN to a book.
type LookupFunc func(ctx context.Context, isbn string) (*models.Book, error)

// BookFoundFunc receives every book a lookup resolves.
type BookFoundFunc func(ctx context.Context, book models.Book) error

// Options tunes a Controller. Zero values pick the defaults.
type Options struct {
	MinCodeLength int
	QueueSize     int
	SimulateISBN  string
}

func (o Options) withDefaults() Options {
	if o.MinCodeLength <= 0 {
		o.MinCodeLength = DefaultMinCodeLength
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.SimulateISBN == "" {
		o.SimulateISBN = DefaultSimulateISBN
	}
	return o
}

// Controller drives a scanning session: idle, scanning, loading. A live
// stream feeds detections; a long enough code stops the stream and starts a
// lookup; the lookup result is handed to the BookFoundFunc.
type Controller struct {
	opts    Options
	lookup  LookupFunc
	onFound BookFoundFunc

	mu       sync.Mutex
	status   Status
	decoder  Decoder
	stream   Stream
	session  context.CancelFunc
	closed   bool
	inflight sync.WaitGroup

	listenersMu sync.RWMutex
	listeners   []func(Status)
}

// NewController creates an idle controller. lookup must be non-nil.
func NewController(lookup LookupFunc, onFound BookFoundFunc, opts Options) *Controller {
	return &Controller{
		opts:    opts.withDefaults(),
		lookup:  lookup,
		onFound: onFound,
		status:  Status{State: StateIdle},
	}
}

// SetDecoder installs the still-image decoder.
func (c *Controller) SetDecoder(d Decoder) {
	c.mu.Lock()
	c.decoder = d
	c.updateLoadedLocked()
	st := c.status
	c.mu.Unlock()
	c.notify(st)
}

// SetStream installs the live detection stream. Any running session is stopped first.
func (c *Controller) SetStream(s Stream) {
	c.mu.Lock()
	c.stopSessionLocked()
	if c.status.State == StateScanning {
		c.setStateLocked(StateIdle)
	}
	c.stream = s
	c.updateLoadedLocked()
	st := c.status
	c.mu.Unlock()
	c.notify(st)
}

func (c *Controller) updateLoadedLocked() {
	c.status.DecoderLoaded = c.stream != nil || c.decoder != nil
}

// Status returns a copy of the current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Subscribe registers fn to receive every status change.
func (c *Controller) Subscribe(fn func(Status)) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, fn)
	c.listenersMu.Unlock()
}

func (c *Controller) notify(st Status) {
	c.listenersMu.RLock()
	listeners := append([]func(Status){}, c.listeners...)
	c.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(st)
	}
}

func (c *Controller) setStateLocked(s State) {
	if c.status.State != s {
		metrics.IncScanTransition(string(s))
	}
	c.status.State = s
}

// Start opens a live scanning session. Any active session is stopped first.
// Without a stream the controller stays idle and reports ErrScannerUnavailable.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.status.State == StateLoading {
		c.mu.Unlock()
		return ErrLookupInFlight
	}
	c.status.Err = ""
	c.stopSessionLocked()
	c.setStateLocked(StateIdle)

	if c.stream == nil {
		c.status.Err = "scanner unavailable: the barcode reader is not loaded, use manual ISBN entry instead"
		st := c.status
		c.mu.Unlock()
		log.Printf("[WARN] scan start refused: no stream configured")
		c.notify(st)
		return ErrScannerUnavailable
	}

	ctx, cancel := context.WithCancel(context.Background())
	queue := make(chan Detection, c.opts.QueueSize)
	if err := c.stream.Start(ctx, queue); err != nil {
		cancel()
		c.status.Err = fmt.Sprintf("could not start the scanner: %v", err)
		st := c.status
		c.mu.Unlock()
		log.Printf("[ERROR] scan stream failed to start: %v", err)
		c.notify(st)
		return fmt.Errorf("%w: %v", ErrScannerUnavailable, err)
	}
	c.session = cancel
	c.setStateLocked(StateScanning)
	st := c.status
	c.mu.Unlock()

	go c.consume(ctx, queue)
	log.Printf("[INFO] scan session started")
	c.notify(st)
	return nil
}

// consume feeds queued detections to the state machine until the session ends.
func (c *Controller) consume(ctx context.Context, queue <-chan Detection) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-queue:
			c.HandleDetection(d)
		}
	}
}

// Stop ends the live session. Calling it when not scanning is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	changed := c.stopSessionLocked()
	if c.status.State == StateScanning {
		c.setStateLocked(StateIdle)
		changed = true
	}
	st := c.status
	c.mu.Unlock()
	if changed {
		c.notify(st)
	}
}

// stopSessionLocked cancels the session and stops the stream. Stream errors
// are logged and otherwise ignored.
func (c *Controller) stopSessionLocked() bool {
	if c.session == nil {
		return false
	}
	c.session()
	c.session = nil
	if c.stream != nil {
		if err := c.stream.Stop(); err != nil {
			log.Printf("[WARN] scan stream stop: %v", err)
		}
	}
	return true
}

// HandleDetection applies one detection. Codes shorter than MinCodeLength
// and detections outside a scanning session are ignored.
func (c *Controller) HandleDetection(d Detection) {
	code := strings.TrimSpace(d.Code)

	c.mu.Lock()
	if c.closed || c.status.State != StateScanning {
		c.mu.Unlock()
		return
	}
	if len(code) < c.opts.MinCodeLength {
		c.mu.Unlock()
		log.Printf("[DEBUG] ignoring short code %q (%d chars)", code, len(code))
		return
	}
	log.Printf("[INFO] barcode detected: %s", code)
	c.status.LastScannedCode = code
	c.beginLookupLocked(code)
	st := c.status
	c.mu.Unlock()
	c.notify(st)
}

// SearchISBN runs a lookup for a manually entered ISBN.
func (c *Controller) SearchISBN(isbn string) error {
	isbn = strings.TrimSpace(isbn)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if len(isbn) < c.opts.MinCodeLength {
		c.status.Err = "enter a valid ISBN (10 or 13 digits)"
		st := c.status
		c.mu.Unlock()
		c.notify(st)
		return fmt.Errorf("%w: enter a valid ISBN (10 or 13 digits)", models.ErrValidation)
	}
	if c.status.State == StateLoading {
		c.mu.Unlock()
		return ErrLookupInFlight
	}
	c.beginLookupLocked(isbn)
	st := c.status
	c.mu.Unlock()
	c.notify(st)
	return nil
}

// SimulateScan looks up the canned test ISBN as if it had been scanned.
func (c *Controller) SimulateScan() error {
	log.Printf("[INFO] simulating a scan with ISBN %s", c.opts.SimulateISBN)
	return c.SearchISBN(c.opts.SimulateISBN)
}

// ProcessImage decodes a still image and looks up the code it carries.
func (c *Controller) ProcessImage(ctx context.Context, img image.Image) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	dec := c.decoder
	c.mu.Unlock()

	if dec == nil {
		c.setError("scanner unavailable: no image decoder is loaded, use manual ISBN entry instead")
		return ErrScannerUnavailable
	}

	code, err := dec.DecodeSingle(ctx, img)
	if err != nil || strings.TrimSpace(code) == "" {
		log.Printf("[INFO] no barcode in uploaded image: %v", err)
		c.setError("no barcode found in image: try another image or enter the ISBN manually")
		if err == nil {
			err = ErrNoCode
		}
		return fmt.Errorf("decode image: %w", err)
	}
	log.Printf("[INFO] barcode decoded from image: %s", code)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.status.State == StateLoading {
		c.mu.Unlock()
		return ErrLookupInFlight
	}
	c.beginLookupLocked(strings.TrimSpace(code))
	st := c.status
	c.mu.Unlock()
	c.notify(st)
	return nil
}

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.status.Err = msg
	st := c.status
	c.mu.Unlock()
	c.notify(st)
}

// beginLookupLocked stops any live session, enters loading and resolves
// isbn in the background. The lookup is never canceled; after Close its
// outcome no longer changes the status.
func (c *Controller) beginLookupLocked(isbn string) {
	c.stopSessionLocked()
	c.status.Err = ""
	c.setStateLocked(StateLoading)
	c.inflight.Add(1)

	go func() {
		defer c.inflight.Done()
		ctx := context.Background()

		book, err := c.lookup(ctx, isbn)
		if err == nil && book == nil {
			err = fmt.Errorf("no book found for ISBN %s", isbn)
		}
		if err != nil {
			log.Printf("[WARN] lookup for %s failed: %v", isbn, err)
			c.finishLookup(isbn, fmt.Sprintf("no book found for ISBN %s: check the number or try another ISBN", isbn))
			return
		}
		if c.onFound != nil {
			if ferr := c.onFound(ctx, *book); ferr != nil {
				log.Printf("[ERROR] saving scanned book %s failed: %v", isbn, ferr)
				c.finishLookup(isbn, fmt.Sprintf("book with ISBN %s was found but could not be saved: %v", isbn, ferr))
				return
			}
		}
		c.finishLookup(isbn, "")
	}()
}

// finishLookup returns to idle. An empty errMsg means success and clears
// the last scanned code; otherwise the code is kept for a retry.
func (c *Controller) finishLookup(isbn, errMsg string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		log.Printf("[DEBUG] lookup for %s finished after close, status not updated", isbn)
		return
	}
	c.status.Err = errMsg
	if errMsg == "" {
		c.status.LastScannedCode = ""
	}
	c.setStateLocked(StateIdle)
	st := c.status
	c.mu.Unlock()
	c.notify(st)
}

// Wait blocks until no lookup is in flight.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Close stops any session whatever the state. It is idempotent. An
// in-flight lookup still completes but no longer updates the status.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.stopSessionLocked()
	c.closed = true
	return nil
}
