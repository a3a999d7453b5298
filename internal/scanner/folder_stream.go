// file: internal/scanner/folder_stream.go
// version: 1.0.0
// guid: 7c1e5a9b-3d8f-4b2a-8e6c-0a4d2f6b8c15

package scanner

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/jdfalk/book-library/internal/metrics"
	"github.com/jdfalk/book-library/internal/watcher"
)

// Offer delivers d without blocking. A full queue drops the detection.
func Offer(out chan<- Detection, d Detection) bool {
	select {
	case out <- d:
		return true
	default:
		metrics.IncDetectionsDropped()
		log.Printf("[WARN] scan queue full, dropping detection %q", d.Code)
		return false
	}
}

// FolderStream is a live stream fed by a drop folder: every image written
// into Dir (a phone's camera sync folder, a scanner's output directory) is
// decoded like a camera frame.
type FolderStream struct {
	Dir      string
	Decoder  Decoder
	Debounce time.Duration

	mu      sync.Mutex
	watcher *watcher.Watcher
}

// NewFolderStream creates a stream over dir using dec for each image.
func NewFolderStream(dir string, dec Decoder) *FolderStream {
	return &FolderStream{Dir: dir, Decoder: dec}
}

// Start watches Dir until ctx ends or Stop is called.
func (s *FolderStream) Start(ctx context.Context, out chan<- Detection) error {
	if s.Decoder == nil {
		return errors.New("folder stream has no decoder")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}

	w := watcher.New(func(path string) {
		if ctx.Err() != nil {
			return
		}
		code, err := DecodeFile(ctx, s.Decoder, path)
		if err != nil {
			log.Printf("[DEBUG] no barcode in %s: %v", filepath.Base(path), err)
			return
		}
		Offer(out, Detection{Code: code, Source: path})
	}, s.Debounce)
	if err := w.Start(s.Dir); err != nil {
		return err
	}
	s.watcher = w
	log.Printf("[INFO] watching %s for barcode images", s.Dir)

	go func() {
		<-ctx.Done()
		s.stopWatcher(w)
	}()
	return nil
}

// stopWatcher stops w if it is still the active watcher.
func (s *FolderStream) stopWatcher(w *watcher.Watcher) {
	s.mu.Lock()
	if s.watcher != w {
		s.mu.Unlock()
		return
	}
	s.watcher = nil
	s.mu.Unlock()
	w.Stop()
}

// Stop ends the watch. It is idempotent.
func (s *FolderStream) Stop() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w != nil {
		w.Stop()
	}
	return nil
}
