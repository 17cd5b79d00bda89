package dlcf

import (
	"fmt"
	"io"

	"github.com/golang/glog"
)

type txState int

const (
	txConfig   txState = iota // no transport bound yet
	txIdle                    // ready for Submit
	txSOF                     // next byte is SOF
	txData                    // sending payload
	txESC                     // next byte is the substitute of ctlID
	txEOF                     // payload exhausted, deciding on continuation
	txFinished                // EOF produced, waiting for ClearTxStatus or Submit
)

var txStateNames = [...]string{"CONFIG", "IDLE", "SOF", "DATA", "ESC", "EOF", "FIN"}

func (s txState) String() string { return txStateNames[s] }

type rxState int

const (
	rxIdle     rxState = iota // no buffer supplied
	rxSOF                     // waiting for SOF
	rxData                    // receiving payload
	rxESC                     // next byte is a substitute
	rxFinished                // frame available in buffer
	rxError                   // broken frame, waiting for EOF
)

var rxStateNames = [...]string{"IDLE", "SOF", "DATA", "ESC", "FIN", "ERR"}

func (s rxState) String() string { return rxStateNames[s] }

// ContinueFunc is called synchronously when the payload of the frame being
// transmitted is exhausted. A non-empty result is sent as part of the same
// frame, an empty result terminates the frame with EOF. The returned slice
// must stay untouched until it has been transmitted.
type ContinueFunc func() []byte

// Stats counts channel events since Configure.
type Stats struct {
	BytesSent       uint64
	BytesReceived   uint64
	FramesSent      uint64
	FramesReceived  uint64
	FramesDiscarded uint64
	Overflows       uint64
	Resyncs         uint64
	IgnoredBytes    uint64
	BadEscapes      uint64
	TxErrors        uint64
	RxErrors        uint64
}

type txContext struct {
	state   txState
	data    []byte
	len     int
	pos     int
	ctlID   CtlByteID
	cont    ContinueFunc
	pending byte
	// hasPending is set when a produced byte is not yet accepted by the transport.
	hasPending bool
}

type rxContext struct {
	state rxState
	pdu   *PDU
	pos   int
}

// Channel is the framing context of one logical link, e.g. one UART.
type Channel struct {
	// Name is used in logs only.
	Name string

	cfg   *Config
	w     io.ByteWriter
	r     io.ByteReader
	bound bool
	tx    txContext
	rx    rxContext
	stats Stats
}

// NewChannel creates a configured Channel.
func NewChannel(cfg *Config) (*Channel, error) {
	c := &Channel{}
	if err := c.Configure(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Configure binds cfg and resets the channel. Transmission is unusable
// until a transport is bound.
func (c *Channel) Configure(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	c.w, c.r, c.bound = nil, nil, false
	c.tx = txContext{state: txConfig}
	c.rx = rxContext{state: rxIdle}
	c.stats = Stats{}
	c.tracef("RX: RESET -> %s", rxIdle)
	c.tracef("TX: RESET -> %s", txConfig)
	return nil
}

// Config returns the bound configuration.
func (c *Channel) Config() *Config {
	return c.cfg
}

// BindTransport attaches the byte transport. Either side may be nil for a
// single direction channel. It is rejected with ErrInvalidState while a frame
// is being transmitted, including its last byte waiting for the writer.
func (c *Channel) BindTransport(w io.ByteWriter, r io.ByteReader) error {
	if c.cfg == nil || c.tx.hasPending {
		return ErrInvalidState
	}
	switch c.tx.state {
	case txConfig, txIdle, txFinished:
		c.w, c.r, c.bound = w, r, true
		c.setTxState(txIdle)
		return nil
	}
	return ErrInvalidState
}

// SetTxContinuation installs fn to be consulted at the end of every frame
// payload. nil removes it.
func (c *Channel) SetTxContinuation(fn ContinueFunc) {
	c.tx.cont = fn
}

// Stats returns a snapshot of the counters.
func (c *Channel) Stats() Stats {
	return c.stats
}

// ResetTx abandons the frame being transmitted, including a byte the
// transport has not accepted yet.
func (c *Channel) ResetTx() {
	state := txConfig
	if c.bound {
		state = txIdle
	}
	c.tx = txContext{state: c.tx.state, cont: c.tx.cont}
	c.setTxState(state)
}

// ResetRx abandons the frame being received and drops the receive buffer.
func (c *Channel) ResetRx() {
	c.rx.pdu, c.rx.pos = nil, 0
	c.setRxState(rxIdle)
}

// Reset abandons both directions. It is meant for watchdogs.
func (c *Channel) Reset() {
	c.ResetTx()
	c.ResetRx()
}

func (c *Channel) setTxState(s txState) {
	if c.tx.state != s {
		c.tracef("TX: %s -> %s", c.tx.state, s)
	}
	c.tx.state = s
}

func (c *Channel) setRxState(s rxState) {
	if c.rx.state != s {
		c.tracef("RX: %s -> %s", c.rx.state, s)
	}
	c.rx.state = s
}

func (c *Channel) tracef(format string, args ...interface{}) {
	if glog.V(5) {
		glog.Infof("dlcf[%s] %s", c.Name, fmt.Sprintf(format, args...))
	}
}
