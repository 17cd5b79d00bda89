// Package transport provides non-blocking byte transports for dlcf channels.
//
// A transport is a pair of byte-at-a-time operations plus Close. Reads
// never block: dlcf.ErrWouldBlock is returned when nothing has arrived.
// Transports backed by blocking streams (serial ports, sockets) buffer
// both directions in a Ring and implement framework.Runnable to pump them.
package transport

import "io"

// Transport is a non-blocking byte transport.
type Transport interface {
	io.ByteReader
	io.ByteWriter
	io.Closer
}

// Duplex joins two rings into a Transport: bytes are read from RX and
// written to TX.
type Duplex struct {
	RX *Ring
	TX *Ring
}

// NewLoopback creates two connected ends, the bytes written to one are
// read from the other.
func NewLoopback(size int) (*Duplex, *Duplex) {
	a, b := NewRing(size), NewRing(size)
	return &Duplex{RX: a, TX: b}, &Duplex{RX: b, TX: a}
}

// NewEcho creates a Transport reading back what is written to it.
func NewEcho(size int) *Duplex {
	r := NewRing(size)
	return &Duplex{RX: r, TX: r}
}

// ReadByte implements io.ByteReader.
func (d *Duplex) ReadByte() (byte, error) {
	return d.RX.ReadByte()
}

// WriteByte implements io.ByteWriter.
func (d *Duplex) WriteByte(b byte) error {
	return d.TX.WriteByte(b)
}

// Close closes the sending side, the peer reads io.EOF once drained.
func (d *Duplex) Close() error {
	return d.TX.Close()
}
