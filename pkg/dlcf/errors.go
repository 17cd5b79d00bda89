package dlcf

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument indicates a bad PDU or an unbound transport.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState indicates the operation is not allowed in current state,
	// e.g. binding a transport while a frame is being transmitted.
	ErrInvalidState = errors.New("invalid state")
	// ErrFramePending indicates a frame is in flight, or nothing is ready yet.
	ErrFramePending = errors.New("frame pending")
	// ErrWouldBlock is returned by non-blocking transports when no byte can be
	// read or written right now. It is not a failure.
	ErrWouldBlock = errors.New("would block")
	// ErrInvalidConfig indicates an ambiguous or incomplete control byte table.
	ErrInvalidConfig = errors.New("invalid config")
)

// Status is the progress reported by status queries and the receive engine.
type Status int

const (
	// StatusOK means the direction is idle.
	StatusOK Status = iota
	// StatusFramePending means a frame is in progress.
	StatusFramePending
	// StatusByteReceived means a byte outside of any frame was consumed.
	StatusByteReceived
	// StatusFrameFinished means a complete frame is available (RX) or
	// the last frame went out (TX).
	StatusFrameFinished
	// StatusFrameDiscarded means a broken frame was dropped and the
	// receiver went back to idle.
	StatusFrameDiscarded
)

var statusNames = map[Status]string{
	StatusOK:             "ok",
	StatusFramePending:   "frame-pending",
	StatusByteReceived:   "byte-received",
	StatusFrameFinished:  "frame-finished",
	StatusFrameDiscarded: "frame-discarded",
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}
