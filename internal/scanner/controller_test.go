// file: internal/scanner/controller_test.go
// version: 1.0.0
// guid: 3a7c9e1b-5d2f-4a8c-b0e6-8f2d4a6c0e59

package scanner

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/book-library/internal/models"
)

// fakeStream hands its output channel to the test.
type fakeStream struct {
	mu       sync.Mutex
	out      chan<- Detection
	starts   int
	stops    int
	startErr error
}

func (f *fakeStream) Start(ctx context.Context, out chan<- Detection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.starts++
	f.out = out
	return nil
}

func (f *fakeStream) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeStream) emit(code string) {
	f.mu.Lock()
	out := f.out
	f.mu.Unlock()
	out <- Detection{Code: code}
}

type fakeDecoder struct {
	code string
	err  error
}

func (d fakeDecoder) DecodeSingle(ctx context.Context, img image.Image) (string, error) {
	return d.code, d.err
}

// lookupRecorder resolves ISBNs from a table and can be held open.
type lookupRecorder struct {
	mu      sync.Mutex
	calls   []string
	books   map[string]models.Book
	release chan struct{}
}

func (l *lookupRecorder) lookup(ctx context.Context, isbn string) (*models.Book, error) {
	l.mu.Lock()
	l.calls = append(l.calls, isbn)
	release := l.release
	l.mu.Unlock()
	if release != nil {
		<-release
	}
	b, ok := l.books[isbn]
	if !ok {
		return nil, errors.New("no book found for ISBN " + isbn)
	}
	b.ISBN = isbn
	b.ReadingStatus = models.StatusUnread
	return &b, nil
}

func (l *lookupRecorder) calledWith() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type foundRecorder struct {
	mu    sync.Mutex
	books []models.Book
	err   error
}

func (f *foundRecorder) add(ctx context.Context, b models.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.books = append(f.books, b)
	return nil
}

func (f *foundRecorder) all() []models.Book {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Book(nil), f.books...)
}

func newTestController(t *testing.T) (*Controller, *lookupRecorder, *foundRecorder) {
	t.Helper()
	lr := &lookupRecorder{books: map[string]models.Book{
		DefaultSimulateISBN: {ID: "sim", Title: "Les Misérables", Author: "Victor Hugo"},
		"2070360024":        {ID: "etr", Title: "L'Étranger", Author: "Albert Camus"},
	}}
	fr := &foundRecorder{}
	c := NewController(lr.lookup, fr.add, Options{})
	t.Cleanup(func() { _ = c.Close() })
	return c, lr, fr
}

func waitForState(t *testing.T, c *Controller, want State) Status {
	t.Helper()
	var st Status
	require.Eventually(t, func() bool {
		st = c.Status()
		return st.State == want
	}, 2*time.Second, 5*time.Millisecond, "state never became %s", want)
	return st
}

func TestStartWithoutStreamStaysIdleWithError(t *testing.T) {
	c, _, _ := newTestController(t)

	err := c.Start()
	assert.ErrorIs(t, err, ErrScannerUnavailable)

	st := c.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Contains(t, st.Err, "manual")
	assert.False(t, st.DecoderLoaded)
}

func TestStartFailingStream(t *testing.T) {
	c, _, _ := newTestController(t)
	c.SetStream(&fakeStream{startErr: errors.New("camera busy")})

	err := c.Start()
	assert.ErrorIs(t, err, ErrScannerUnavailable)
	st := c.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Contains(t, st.Err, "camera busy")
}

func TestStartStop(t *testing.T) {
	c, _, _ := newTestController(t)
	fs := &fakeStream{}
	c.SetStream(fs)
	assert.True(t, c.Status().DecoderLoaded)

	require.NoError(t, c.Start())
	assert.Equal(t, StateScanning, c.Status().State)

	c.Stop()
	assert.Equal(t, StateIdle, c.Status().State)
	c.Stop() // idempotent
	assert.Equal(t, 1, fs.stops)
}

func TestStartRestartsActiveSession(t *testing.T) {
	c, _, _ := newTestController(t)
	fs := &fakeStream{}
	c.SetStream(fs)

	require.NoError(t, c.Start())
	require.NoError(t, c.Start())
	assert.Equal(t, 2, fs.starts)
	assert.Equal(t, 1, fs.stops, "second start force-stops the first session")
	assert.Equal(t, StateScanning, c.Status().State)
}

func TestShortCodeIgnored(t *testing.T) {
	c, lr, _ := newTestController(t)
	fs := &fakeStream{}
	c.SetStream(fs)
	require.NoError(t, c.Start())

	c.HandleDetection(Detection{Code: "123456789"})
	assert.Equal(t, StateScanning, c.Status().State)
	assert.Empty(t, lr.calledWith())
	assert.Empty(t, c.Status().LastScannedCode)
}

func TestDetectionTriggersLookup(t *testing.T) {
	c, lr, fr := newTestController(t)
	lr.release = make(chan struct{})
	fs := &fakeStream{}
	c.SetStream(fs)
	require.NoError(t, c.Start())

	fs.emit("2070360024")
	st := waitForState(t, c, StateLoading)
	assert.False(t, st.Scanning())
	assert.Equal(t, "2070360024", st.LastScannedCode)
	assert.Equal(t, 1, fs.stops, "stream stopped on detection")

	close(lr.release)
	c.Wait()

	st = c.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Empty(t, st.Err)
	assert.Empty(t, st.LastScannedCode)
	require.Len(t, fr.all(), 1)
	assert.Equal(t, "L'Étranger", fr.all()[0].Title)
}

func TestDetectionOutsideSessionIgnored(t *testing.T) {
	c, lr, _ := newTestController(t)
	c.HandleDetection(Detection{Code: "2070360024"})
	assert.Equal(t, StateIdle, c.Status().State)
	assert.Empty(t, lr.calledWith())
}

func TestLookupFailureKeepsCode(t *testing.T) {
	c, _, fr := newTestController(t)
	fs := &fakeStream{}
	c.SetStream(fs)
	require.NoError(t, c.Start())

	c.HandleDetection(Detection{Code: "0000000000"})
	c.Wait()

	st := c.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Contains(t, st.Err, "0000000000")
	assert.Equal(t, "0000000000", st.LastScannedCode)
	assert.Empty(t, fr.all())
}

func TestSaveFailureReported(t *testing.T) {
	c, _, fr := newTestController(t)
	fr.err = errors.New("disk full")

	require.NoError(t, c.SimulateScan())
	c.Wait()

	st := c.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Contains(t, st.Err, "disk full")
}

func TestSearchISBNValidation(t *testing.T) {
	c, lr, _ := newTestController(t)

	err := c.SearchISBN("  12345  ")
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, StateIdle, c.Status().State)
	assert.Contains(t, c.Status().Err, "valid ISBN")
	assert.Empty(t, lr.calledWith())
}

func TestSearchISBNTrims(t *testing.T) {
	c, lr, fr := newTestController(t)
	require.NoError(t, c.SearchISBN("  2070360024 "))
	c.Wait()
	assert.Equal(t, []string{"2070360024"}, lr.calledWith())
	assert.Len(t, fr.all(), 1)
}

func TestManualLookupEndsScanSession(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	cases := map[string]func(c *Controller) error{
		"search":   func(c *Controller) error { return c.SearchISBN(DefaultSimulateISBN) },
		"simulate": func(c *Controller) error { return c.SimulateScan() },
		"image": func(c *Controller) error {
			return c.ProcessImage(context.Background(), img)
		},
	}
	for name, run := range cases {
		t.Run(name, func(t *testing.T) {
			c, lr, _ := newTestController(t)
			c.SetDecoder(fakeDecoder{code: DefaultSimulateISBN})
			fs := &fakeStream{}
			c.SetStream(fs)
			require.NoError(t, c.Start())

			require.NoError(t, run(c))
			c.Wait()

			assert.Equal(t, 1, fs.stops)
			assert.Equal(t, StateIdle, c.Status().State)
			c.mu.Lock()
			assert.Nil(t, c.session)
			c.mu.Unlock()
			assert.Equal(t, []string{DefaultSimulateISBN}, lr.calledWith())

			c.HandleDetection(Detection{Code: "2070360024"})
			assert.Equal(t, StateIdle, c.Status().State)
			assert.Len(t, lr.calledWith(), 1)
		})
	}
}

func TestSimulateScan(t *testing.T) {
	c, lr, fr := newTestController(t)
	require.NoError(t, c.SimulateScan())
	c.Wait()

	assert.Equal(t, []string{"9782253093008"}, lr.calledWith())
	books := fr.all()
	require.Len(t, books, 1)
	assert.Equal(t, models.StatusUnread, books[0].ReadingStatus)
	assert.Equal(t, StateIdle, c.Status().State)
}

func TestLookupInFlightRefused(t *testing.T) {
	c, lr, _ := newTestController(t)
	lr.release = make(chan struct{})

	require.NoError(t, c.SimulateScan())
	assert.Equal(t, StateLoading, c.Status().State)
	assert.ErrorIs(t, c.SearchISBN("2070360024"), ErrLookupInFlight)
	assert.ErrorIs(t, c.Start(), ErrLookupInFlight)

	close(lr.release)
	c.Wait()
	assert.Equal(t, []string{DefaultSimulateISBN}, lr.calledWith())
}

func TestProcessImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))

	t.Run("no decoder", func(t *testing.T) {
		c, _, _ := newTestController(t)
		assert.ErrorIs(t, c.ProcessImage(context.Background(), img), ErrScannerUnavailable)
		assert.Equal(t, StateIdle, c.Status().State)
	})

	t.Run("no code", func(t *testing.T) {
		c, lr, _ := newTestController(t)
		c.SetDecoder(fakeDecoder{err: ErrNoCode})
		err := c.ProcessImage(context.Background(), img)
		assert.ErrorIs(t, err, ErrNoCode)
		st := c.Status()
		assert.Equal(t, StateIdle, st.State)
		assert.Contains(t, st.Err, "no barcode")
		assert.Empty(t, lr.calledWith())
	})

	t.Run("code found", func(t *testing.T) {
		c, lr, fr := newTestController(t)
		c.SetDecoder(fakeDecoder{code: "2070360024"})
		require.NoError(t, c.ProcessImage(context.Background(), img))
		c.Wait()
		assert.Equal(t, []string{"2070360024"}, lr.calledWith())
		assert.Len(t, fr.all(), 1)
	})
}

func TestCloseSuppressesLateUpdate(t *testing.T) {
	c, lr, fr := newTestController(t)
	lr.release = make(chan struct{})
	var mu sync.Mutex
	var seen []Status
	c.Subscribe(func(st Status) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	})

	require.NoError(t, c.SimulateScan())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	mu.Lock()
	before := len(seen)
	mu.Unlock()

	close(lr.release)
	c.Wait()

	mu.Lock()
	assert.Equal(t, before, len(seen), "no status change after close")
	mu.Unlock()
	assert.Equal(t, StateLoading, c.Status().State)
	assert.Len(t, fr.all(), 1, "the resolved book is still handed over")
	assert.ErrorIs(t, c.Start(), ErrClosed)
}

func TestSubscribeSeesTransitions(t *testing.T) {
	c, _, _ := newTestController(t)
	c.SetStream(&fakeStream{})

	var mu sync.Mutex
	var states []State
	c.Subscribe(func(st Status) {
		mu.Lock()
		states = append(states, st.State)
		mu.Unlock()
	})

	require.NoError(t, c.Start())
	c.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateScanning, StateIdle}, states)
}
