package link

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"
)

var (
	// ErrQueueFull is returned by Send when QueueSize frames are waiting.
	ErrQueueFull = errors.New("send queue full")
	// ErrFrameTooLarge is returned by Send for payloads over MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrEmptyFrame is returned by Send for empty payloads.
	ErrEmptyFrame = errors.New("empty frame")
	// ErrClosed is returned once the transport reports end of stream.
	ErrClosed = errors.New("link closed")
)

// Options tunes an Endpoint.
type Options struct {
	// MaxFrameSize is the largest payload accepted, FCS excluded.
	MaxFrameSize int
	// QueueSize is the number of frames Send can queue.
	QueueSize int
	// StepsPerTick bounds the channel steps in one Control call.
	StepsPerTick int
	// RxTimeout resets a frame which doesn't complete in time. 0 disables it.
	RxTimeout time.Duration
	// FCS appends a frame check sequence to sent frames and verifies
	// received ones.
	FCS bool
}

var defaultOptions = Options{
	MaxFrameSize: 256,
	QueueSize:    16,
	StepsPerTick: 64,
	RxTimeout:    time.Second,
}

func init() {
	if val := os.Getenv("DLCF_FCS"); val != "" {
		defaultOptions.FCS, _ = strconv.ParseBool(val)
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.IntVar(&defaultOptions.MaxFrameSize, "link-mtu", defaultOptions.MaxFrameSize, "Largest frame payload in bytes.")
	flag.IntVar(&defaultOptions.QueueSize, "link-queue", defaultOptions.QueueSize, "Number of frames waiting to be sent.")
	flag.IntVar(&defaultOptions.StepsPerTick, "link-steps", defaultOptions.StepsPerTick, "Channel steps per loop iteration.")
	flag.DurationVar(&defaultOptions.RxTimeout, "link-rx-timeout", defaultOptions.RxTimeout, "Receive watchdog timeout, 0 disables it.")
	flag.BoolVar(&defaultOptions.FCS, "link-fcs", defaultOptions.FCS, "Append and verify a 16-bit frame check sequence.")
}

// DefaultOptions returns a copy of the default options.
func DefaultOptions() Options {
	return defaultOptions
}
