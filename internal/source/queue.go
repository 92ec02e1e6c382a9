// Package source turns external inputs (compositor sockets, X11 properties,
// pointer queries, signals) into events the scheduler loop can drain.
//
// Readers run on their own goroutines and push into a Queue. Each Queue owns an
// eventfd that becomes readable while items are pending, so the loop can block
// on it alongside its timers and only ever touch the data on its own goroutine.
package source

import (
	"encoding/binary"
	"sync"

	"golang.org/x/sys/unix"
)

// DefaultQueueLimit bounds a queue when no limit is given.
const DefaultQueueLimit = 256

// Queue is a bounded multi-producer, single-consumer handoff with an eventfd
// doorbell.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	limit  int
	fd     int
	closed bool
}

// NewQueue creates a queue holding at most limit items. If the eventfd cannot
// be created the queue still works, but Fd returns -1 and the loop has to
// poll it.
func NewQueue[T any](limit int) *Queue[T] {
	if limit <= 0 {
		limit = DefaultQueueLimit
	}
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		fd = -1
	}
	return &Queue[T]{limit: limit, fd: fd}
}

// Fd returns the eventfd, or -1.
func (q *Queue[T]) Fd() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fd
}

// Push appends v. It returns false if the queue is full or closed.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed || len(q.items) >= q.limit {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	wake := len(q.items) == 1
	q.mu.Unlock()

	if wake && q.fd >= 0 {
		var buf [8]byte
		binary.NativeEndian.PutUint64(buf[:], 1)
		_, _ = unix.Write(q.fd, buf[:])
	}
	return true
}

// Drain removes and returns everything pending and resets the doorbell.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	items := q.items
	q.items = nil
	if q.fd >= 0 {
		var buf [8]byte
		_, _ = unix.Read(q.fd, buf[:])
	}
	q.mu.Unlock()
	return items
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close releases the eventfd. Later pushes are rejected.
func (q *Queue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	if q.fd >= 0 {
		err := unix.Close(q.fd)
		q.fd = -1
		return err
	}
	return nil
}
