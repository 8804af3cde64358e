package persistence

import (
	"context"
	"log/slog"
	"sync"
)

// Async writes to a DB on a background goroutine. Writes are fire-and-forget:
// a failed write is logged at debug and dropped, and a full queue drops the
// write rather than block the caller.
type Async struct {
	db   *DB
	jobs chan func(*DB) error

	closeOnce sync.Once
	done      chan struct{}
}

// NewAsync starts the writer goroutine. queue is the number of writes that
// may be buffered.
func NewAsync(db *DB, queue int) *Async {
	if queue <= 0 {
		queue = 64
	}
	a := &Async{
		db:   db,
		jobs: make(chan func(*DB) error, queue),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for job := range a.jobs {
		if err := job(a.db); err != nil {
			slog.Debug("persistence write failed", "error", err)
		}
	}
}

func (a *Async) enqueue(job func(*DB) error) {
	if a == nil {
		return
	}
	select {
	case a.jobs <- job:
	default:
		slog.Debug("persistence queue full, dropping write")
	}
}

// Save queues a blob save.
func (a *Async) Save(key string, blob []byte) {
	a.enqueue(func(db *DB) error { return db.Save(key, blob) })
}

// Record queues a checkpoint.
func (a *Async) Record(c Checkpoint) {
	a.enqueue(func(db *DB) error { return db.Record(c) })
}

// Load reads synchronously. Callers run it off the simulation goroutine.
func (a *Async) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if a == nil {
		return nil, false, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	return a.db.Load(key)
}

// Close stops accepting writes and waits for queued ones to finish.
func (a *Async) Close() {
	if a == nil {
		return
	}
	a.closeOnce.Do(func() {
		close(a.jobs)
		<-a.done
	})
}
