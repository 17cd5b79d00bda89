package transport

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/golang/glog"

	fx "github.com/robotalks/dlcf/pkg/framework"
)

// DefaultBufferSize is the ring size of a Stream in each direction.
const DefaultBufferSize = 4096

// Stream adapts a blocking io.ReadWriteCloser into a Transport.
// Run must be running for bytes to move.
type Stream struct {
	Conn io.ReadWriteCloser

	name    string
	rx      *Ring
	tx      *Ring
	dropped uint64
}

// NewStream wraps conn with rings of bufSize bytes.
func NewStream(name string, conn io.ReadWriteCloser, bufSize int) *Stream {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Stream{
		Conn: conn,
		name: name,
		rx:   NewRing(bufSize),
		tx:   NewRing(bufSize),
	}
}

// Name implements framework.Named.
func (s *Stream) Name() string {
	return s.name
}

// ReadByte implements io.ByteReader.
func (s *Stream) ReadByte() (byte, error) {
	return s.rx.ReadByte()
}

// WriteByte implements io.ByteWriter.
func (s *Stream) WriteByte(b byte) error {
	return s.tx.WriteByte(b)
}

// Close closes the underlying stream.
func (s *Stream) Close() error {
	s.tx.Close()
	return s.Conn.Close()
}

// Dropped is the number of received bytes lost because nobody read them in
// time.
func (s *Stream) Dropped() uint64 {
	return atomic.LoadUint64(&s.dropped)
}

// Run implements framework.Runnable. It returns when ctx is canceled or
// the stream fails, and the stream is closed either way.
func (s *Stream) Run(ctx context.Context) error {
	defer s.rx.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	flushErrCh := make(chan error, 1)
	go func() {
		err := s.flushLoop(ctx)
		if err != nil {
			cancel()
		}
		flushErrCh <- err
	}()
	err := fx.RunWithContextCloser(ctx, s.Conn, s.readLoop)
	cancel()
	if flushErr := <-flushErrCh; flushErr != nil && flushErr != context.Canceled {
		return flushErr
	}
	return err
}

func (s *Stream) readLoop() error {
	buf := make([]byte, 256)
	for {
		n, err := s.Conn.Read(buf)
		if n > 0 {
			if written, _ := s.rx.Write(buf[:n]); written < n {
				atomic.AddUint64(&s.dropped, uint64(n-written))
				glog.V(2).Infof("%s: RX overrun, %d bytes dropped", s.name, n-written)
			}
		}
		if err != nil {
			return err
		}
	}
}

func (s *Stream) flushLoop(ctx context.Context) error {
	buf := make([]byte, 256)
	for {
		n, err := s.tx.Read(buf)
		if err == io.EOF {
			return nil
		}
		if n == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.tx.Ready():
			}
			continue
		}
		if _, err := s.Conn.Write(buf[:n]); err != nil {
			return err
		}
	}
}
