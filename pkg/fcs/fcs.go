// Package fcs computes the 16-bit frame check sequence carried at the end of
// a frame payload. The framing layer itself never checks payloads; this is
// the checksum its users append and verify.
//
// The FCS is the HDLC one: CRC-16/MCRF4XX complemented, transmitted least
// significant byte first.
package fcs

import (
	"encoding/binary"
	"errors"

	"github.com/sigurn/crc16"
)

// Size is the length of the trailer in bytes.
const Size = 2

// ErrMismatch indicates the trailer doesn't match the payload.
var ErrMismatch = errors.New("fcs mismatch")

// ErrShort indicates a frame too short to carry a trailer.
var ErrShort = errors.New("frame shorter than fcs")

var table = crc16.MakeTable(crc16.CRC16_MCRF4XX)

// Sum computes the FCS of p.
func Sum(p []byte) uint16 {
	crc := crc16.Init(table)
	crc = crc16.Update(crc, p, table)
	return crc16.Complete(crc, table) ^ 0xffff
}

// Trailer returns the wire form of the FCS of p.
func Trailer(p []byte) [Size]byte {
	var t [Size]byte
	binary.LittleEndian.PutUint16(t[:], Sum(p))
	return t
}

// Append appends the FCS of p to p.
func Append(p []byte) []byte {
	t := Trailer(p)
	return append(p, t[:]...)
}

// Verify checks the trailer of frame and returns the payload without it.
func Verify(frame []byte) ([]byte, error) {
	if len(frame) < Size {
		return nil, ErrShort
	}
	payload := frame[:len(frame)-Size]
	if binary.LittleEndian.Uint16(frame[len(payload):]) != Sum(payload) {
		return nil, ErrMismatch
	}
	return payload, nil
}
