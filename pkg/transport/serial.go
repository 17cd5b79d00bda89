package transport

import (
	"fmt"
	"net/url"
	"strconv"

	"go.bug.st/serial"
)

// SerialDefaultBaudRate is used when the URL has no baud parameter.
const SerialDefaultBaudRate = 115200

// SerialModeFromURL builds the port settings from URL query parameters:
// baud, bits (5-8), parity (none, odd, even, mark, space) and stop (1, 1.5, 2).
func SerialModeFromURL(u *url.URL) (*serial.Mode, error) {
	q := u.Query()
	mode := &serial.Mode{
		BaudRate: SerialDefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if val := q.Get("baud"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil || baud <= 0 {
			return nil, fmt.Errorf("invalid baud rate %q", val)
		}
		mode.BaudRate = baud
	}
	if val := q.Get("bits"); val != "" {
		bits, err := strconv.Atoi(val)
		if err != nil || bits < 5 || bits > 8 {
			return nil, fmt.Errorf("invalid data bits %q", val)
		}
		mode.DataBits = bits
	}
	switch val := q.Get("parity"); val {
	case "", "none", "n":
	case "odd", "o":
		mode.Parity = serial.OddParity
	case "even", "e":
		mode.Parity = serial.EvenParity
	case "mark", "m":
		mode.Parity = serial.MarkParity
	case "space", "s":
		mode.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("invalid parity %q", val)
	}
	switch val := q.Get("stop"); val {
	case "", "1":
	case "1.5":
		mode.StopBits = serial.OnePointFiveStopBits
	case "2":
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("invalid stop bits %q", val)
	}
	return mode, nil
}

// OpenSerial opens a serial port, e.g. serial:///dev/ttyUSB0?baud=115200.
func OpenSerial(u *url.URL, bufSize int) (*Stream, error) {
	mode, err := SerialModeFromURL(u)
	if err != nil {
		return nil, err
	}
	dev := u.Path
	if dev == "" {
		// serial:COM3
		dev = u.Opaque
	}
	port, err := serial.Open(dev, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dev, err)
	}
	return NewStream("serial:"+dev, port, bufSize), nil
}
