package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/robotalks/dlcf/pkg/dlcf"
)

var (
	// ErrFull indicates the ring has no room. It matches dlcf.ErrWouldBlock
	// so a channel retries the byte on the next step.
	ErrFull = fmt.Errorf("%w: ring full", dlcf.ErrWouldBlock)
	// ErrClosed is returned by writes after Close.
	ErrClosed = errors.New("transport closed")
)

// Ring is a fixed-capacity byte FIFO with non-blocking access.
// It is safe for concurrent use.
type Ring struct {
	lock    sync.Mutex
	buf     []byte
	head    int
	size    int
	closed  bool
	readyCh chan struct{}
}

// NewRing creates a Ring holding up to capacity bytes.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		panic("transport: ring capacity must be positive")
	}
	return &Ring{
		buf:     make([]byte, capacity),
		readyCh: make(chan struct{}, 1),
	}
}

// Cap returns the capacity.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Len returns the number of buffered bytes.
func (r *Ring) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.size
}

// Ready is signalled after bytes are written or the ring is closed.
func (r *Ring) Ready() <-chan struct{} {
	return r.readyCh
}

// WriteByte implements io.ByteWriter.
func (r *Ring) WriteByte(b byte) error {
	r.lock.Lock()
	switch {
	case r.closed:
		r.lock.Unlock()
		return ErrClosed
	case r.size == len(r.buf):
		r.lock.Unlock()
		return ErrFull
	}
	r.buf[(r.head+r.size)%len(r.buf)] = b
	r.size++
	r.lock.Unlock()
	r.signal()
	return nil
}

// Write buffers as much of p as fits. It returns ErrFull when p is not
// entirely written.
func (r *Ring) Write(p []byte) (n int, err error) {
	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return 0, ErrClosed
	}
	for ; n < len(p) && r.size < len(r.buf); n++ {
		r.buf[(r.head+r.size)%len(r.buf)] = p[n]
		r.size++
	}
	r.lock.Unlock()
	if n > 0 {
		r.signal()
	}
	if n < len(p) {
		err = ErrFull
	}
	return
}

// ReadByte implements io.ByteReader. It returns dlcf.ErrWouldBlock when
// empty, and io.EOF when empty and closed.
func (r *Ring) ReadByte() (byte, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.size == 0 {
		if r.closed {
			return 0, io.EOF
		}
		return 0, dlcf.ErrWouldBlock
	}
	b := r.buf[r.head]
	r.head = (r.head + 1) % len(r.buf)
	r.size--
	return b, nil
}

// Read drains up to len(p) bytes without blocking.
func (r *Ring) Read(p []byte) (n int, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.size == 0 {
		if r.closed {
			return 0, io.EOF
		}
		return 0, dlcf.ErrWouldBlock
	}
	for ; n < len(p) && r.size > 0; n++ {
		p[n] = r.buf[r.head]
		r.head = (r.head + 1) % len(r.buf)
		r.size--
	}
	return
}

// Close rejects further writes. Buffered bytes can still be read.
func (r *Ring) Close() error {
	r.lock.Lock()
	r.closed = true
	r.lock.Unlock()
	r.signal()
	return nil
}

func (r *Ring) signal() {
	select {
	case r.readyCh <- struct{}{}:
	default:
	}
}
