// file: internal/operations/queue.go
// version: 2.0.0
// guid: 7d6e5f4a-3c2b-1a09-8f7e-6d5c4b3a2190

package operations

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jdfalk/book-library/internal/metrics"
)

// Priority levels for operations
const (
	PriorityLow    = 0
	PriorityNormal = 1
	PriorityHigh   = 2
)

// Status is the lifecycle state of an operation.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Done reports whether the operation has finished, whatever the outcome.
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

var (
	// ErrQueueFull is returned by Enqueue when no slot is free.
	ErrQueueFull = errors.New("operation queue is full")
	// ErrNotFound is returned for unknown operation ids.
	ErrNotFound = errors.New("operation not found")
	// ErrQueueClosed is returned by Enqueue after Shutdown.
	ErrQueueClosed = errors.New("operation queue is shut down")
)

// historySize bounds how many finished operations are remembered.
const historySize = 50

// OperationFunc represents an operation that can be executed
type OperationFunc func(ctx context.Context, progress ProgressReporter) error

// ProgressReporter allows operations to report their progress
type ProgressReporter interface {
	UpdateProgress(current, total int, message string) error
	Log(level, message string)
	IsCanceled() bool
}

// Operation is the externally visible state of a queued operation.
type Operation struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Priority  int       `json:"priority"`
	Status    Status    `json:"status"`
	Current   int       `json:"current"`
	Total     int       `json:"total"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// queuedOperation is an operation plus what the worker needs to run it.
type queuedOperation struct {
	state  Operation
	fn     OperationFunc
	ctx    context.Context
	cancel context.CancelFunc
}

// Listener receives a snapshot after every state or progress change.
type Listener func(Operation)

// OperationQueue runs operations on a fixed pool of workers. High priority
// operations are picked before the others.
type OperationQueue struct {
	mu         sync.RWMutex
	operations map[string]*queuedOperation
	history    []string // finished ids, oldest first
	urgent     chan *queuedOperation
	pending    chan *queuedOperation
	workers    int
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	listeners  []Listener
	closed     bool
}

// NewOperationQueue starts workers goroutines (2 when workers <= 0) with
// room for capacity waiting operations (100 when capacity <= 0).
func NewOperationQueue(workers, capacity int) *OperationQueue {
	if workers <= 0 {
		workers = 2 // Default to 2 workers
	}
	if capacity <= 0 {
		capacity = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &OperationQueue{
		operations: make(map[string]*queuedOperation),
		urgent:     make(chan *queuedOperation, capacity),
		pending:    make(chan *queuedOperation, capacity),
		workers:    workers,
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	return q
}

// Subscribe registers fn for every operation change. Listeners run on the
// worker goroutine and must not block.
func (q *OperationQueue) Subscribe(fn Listener) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listeners = append(q.listeners, fn)
}

func (q *OperationQueue) notify(op Operation) {
	q.mu.RLock()
	listeners := append([]Listener(nil), q.listeners...)
	q.mu.RUnlock()
	for _, fn := range listeners {
		fn(op)
	}
}

// Enqueue adds a new operation and returns its initial state.
func (q *OperationQueue) Enqueue(opType string, priority int, fn OperationFunc) (Operation, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return Operation{}, ErrQueueClosed
	}

	ctx, cancel := context.WithCancel(q.ctx)
	now := time.Now()
	op := &queuedOperation{
		state: Operation{
			ID:        ulid.Make().String(),
			Type:      opType,
			Priority:  priority,
			Status:    StatusQueued,
			Message:   "operation queued",
			CreatedAt: now,
			UpdatedAt: now,
		},
		fn:     fn,
		ctx:    ctx,
		cancel: cancel,
	}

	ch := q.pending
	if priority >= PriorityHigh {
		ch = q.urgent
	}
	select {
	case ch <- op:
	default:
		q.mu.Unlock()
		cancel()
		log.Printf("[WARN] operation queue full, rejecting %s operation", opType)
		return Operation{}, ErrQueueFull
	}
	q.operations[op.state.ID] = op
	snapshot := op.state
	q.mu.Unlock()

	log.Printf("[INFO] operation %s (%s) enqueued with priority %d", snapshot.ID, opType, priority)
	q.notify(snapshot)
	return snapshot, nil
}

// Cancel cancels an operation. A queued operation is marked canceled at
// once; a running one stops at its next cancellation check.
func (q *OperationQueue) Cancel(id string) error {
	q.mu.Lock()
	op, exists := q.operations[id]
	if !exists {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if op.state.Status.Done() {
		q.mu.Unlock()
		return nil
	}
	op.cancel()
	var snapshot *Operation
	if op.state.Status == StatusQueued {
		q.finishLocked(op, StatusCanceled, "operation canceled by user", "")
		s := op.state
		snapshot = &s
	}
	q.mu.Unlock()

	log.Printf("[INFO] operation %s canceled", id)
	if snapshot != nil {
		metrics.IncOperationCanceled(snapshot.Type)
		q.notify(*snapshot)
	}
	return nil
}

// Get returns the state of an active or recently finished operation.
func (q *OperationQueue) Get(id string) (Operation, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	op, ok := q.operations[id]
	if !ok {
		return Operation{}, false
	}
	return op.state, true
}

// List returns active and recently finished operations, newest first.
func (q *OperationQueue) List() []Operation {
	q.mu.RLock()
	defer q.mu.RUnlock()
	results := make([]Operation, 0, len(q.operations))
	for _, op := range q.operations {
		results = append(results, op.state)
	}
	sort.Slice(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID > results[j].ID
	})
	return results
}

// Active returns the number of queued or running operations.
func (q *OperationQueue) Active() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	n := 0
	for _, op := range q.operations {
		if !op.state.Status.Done() {
			n++
		}
	}
	return n
}

// finishLocked records the final state and trims the history.
func (q *OperationQueue) finishLocked(op *queuedOperation, status Status, message, errMsg string) {
	op.state.Status = status
	op.state.Message = message
	op.state.Error = errMsg
	op.state.UpdatedAt = time.Now()
	q.history = append(q.history, op.state.ID)
	for len(q.history) > historySize {
		delete(q.operations, q.history[0])
		q.history = q.history[1:]
	}
}

// next blocks for the next operation, urgent ones first.
func (q *OperationQueue) next() (*queuedOperation, bool) {
	select {
	case op := <-q.urgent:
		return op, true
	default:
	}
	select {
	case <-q.ctx.Done():
		return nil, false
	case op := <-q.urgent:
		return op, true
	case op := <-q.pending:
		return op, true
	}
}

// worker processes operations from the queue
func (q *OperationQueue) worker(id int) {
	defer q.wg.Done()

	log.Printf("[DEBUG] operation worker %d started", id)
	for {
		op, ok := q.next()
		if !ok {
			log.Printf("[DEBUG] operation worker %d stopped", id)
			return
		}
		q.run(op)
	}
}

func (q *OperationQueue) run(op *queuedOperation) {
	q.mu.Lock()
	if op.state.Status != StatusQueued {
		// canceled while waiting
		q.mu.Unlock()
		return
	}
	if op.ctx.Err() != nil {
		q.finishLocked(op, StatusCanceled, "operation canceled", "")
		snapshot := op.state
		q.mu.Unlock()
		metrics.IncOperationCanceled(snapshot.Type)
		q.notify(snapshot)
		return
	}
	op.state.Status = StatusRunning
	op.state.Message = "operation started"
	op.state.UpdatedAt = time.Now()
	snapshot := op.state
	q.mu.Unlock()

	start := time.Now()
	metrics.IncOperationStarted(snapshot.Type)
	q.notify(snapshot)

	reporter := &operationProgressReporter{queue: q, op: op}
	err := op.fn(op.ctx, reporter)

	q.mu.Lock()
	switch {
	case op.ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled)):
		q.finishLocked(op, StatusCanceled, "operation canceled", "")
	case err != nil:
		q.finishLocked(op, StatusFailed, "operation failed", err.Error())
	default:
		q.finishLocked(op, StatusCompleted, "operation completed", "")
	}
	snapshot = op.state
	q.mu.Unlock()
	op.cancel()

	switch snapshot.Status {
	case StatusCanceled:
		metrics.IncOperationCanceled(snapshot.Type)
		log.Printf("[INFO] operation %s was canceled", snapshot.ID)
	case StatusFailed:
		metrics.IncOperationFailed(snapshot.Type)
		log.Printf("[ERROR] operation %s failed: %v", snapshot.ID, err)
	default:
		metrics.IncOperationCompleted(snapshot.Type)
		log.Printf("[INFO] operation %s completed", snapshot.ID)
	}
	metrics.ObserveOperationDuration(snapshot.Type, time.Since(start))
	q.notify(snapshot)
}

// Shutdown cancels every operation and waits for the workers.
func (q *OperationQueue) Shutdown(timeout time.Duration) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	log.Println("[INFO] shutting down operation queue...")
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancelQueued()
		log.Println("[INFO] operation queue shut down gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}

// cancelQueued marks operations that never reached a worker as canceled.
func (q *OperationQueue) cancelQueued() {
	q.mu.Lock()
	var canceled []Operation
	for _, op := range q.operations {
		if op.state.Status == StatusQueued {
			q.finishLocked(op, StatusCanceled, "queue shut down", "")
			canceled = append(canceled, op.state)
		}
	}
	q.mu.Unlock()
	for _, op := range canceled {
		metrics.IncOperationCanceled(op.Type)
		q.notify(op)
	}
}

// operationProgressReporter implements ProgressReporter
type operationProgressReporter struct {
	queue *OperationQueue
	op    *queuedOperation
}

func (r *operationProgressReporter) UpdateProgress(current, total int, message string) error {
	if err := r.op.ctx.Err(); err != nil {
		return err
	}
	r.queue.mu.Lock()
	r.op.state.Current = current
	r.op.state.Total = total
	r.op.state.Message = message
	r.op.state.UpdatedAt = time.Now()
	snapshot := r.op.state
	r.queue.mu.Unlock()

	r.queue.notify(snapshot)
	return nil
}

func (r *operationProgressReporter) Log(level, message string) {
	log.Printf("[%s] operation %s: %s", level, r.op.state.ID, message)
}

func (r *operationProgressReporter) IsCanceled() bool {
	return r.op.ctx.Err() != nil
}
