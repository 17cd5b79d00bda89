package transport

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// DefaultLoopSize is the ring size of loop: transports.
const DefaultLoopSize = 1024

// Open creates a Transport from a URL:
//
//	loop:                             bytes written are read back
//	loop:?size=256
//	tcp://host:port
//	serial:///dev/ttyUSB0?baud=115200
//	ws://host:port/path, wss://...
//
// The returned transport may implement framework.Runnable, in which case it
// must be run for bytes to move.
func Open(rawURL string) (Transport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URL: %w", err)
	}
	bufSize := DefaultBufferSize
	if val := u.Query().Get("buf"); val != "" {
		if bufSize, err = strconv.Atoi(val); err != nil || bufSize <= 0 {
			return nil, fmt.Errorf("invalid buffer size %q", val)
		}
	}
	switch u.Scheme {
	case "loop":
		size := DefaultLoopSize
		if val := u.Query().Get("size"); val != "" {
			if size, err = strconv.Atoi(val); err != nil || size <= 0 {
				return nil, fmt.Errorf("invalid loop size %q", val)
			}
		}
		return NewEcho(size), nil
	case "tcp":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return NewStream("tcp:"+u.Host, conn, bufSize), nil
	case "serial":
		return OpenSerial(u, bufSize)
	case "ws", "wss":
		return OpenWebsocket(u, bufSize)
	default:
		return nil, fmt.Errorf("unknown transport URL scheme: %q", u.Scheme)
	}
}
