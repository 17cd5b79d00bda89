package dlcf

import (
	"errors"

	"github.com/golang/glog"
)

// StepResult reports what one Step did.
type StepResult struct {
	// Sent is set when a byte was accepted by the transport.
	Sent bool
	// TxErr is the transport write failure other than ErrWouldBlock.
	// The byte is retried on the next Step either way.
	TxErr error
	// Received is set when a byte was read and processed.
	Received bool
	// RxStatus is the receive engine status for the byte read.
	// It is only meaningful when Received is set.
	RxStatus Status
	// RxErr is the transport read failure other than ErrWouldBlock.
	RxErr error
}

// Step is the cyclic function of a channel. It moves at most one byte in
// each direction and never blocks, provided the transport doesn't.
//
// A byte the writer refused is kept and retried by the next Step. The
// reader is only consulted while a receive buffer is armed: in IDLE and
// FINISHED nothing is read, so a finished frame stays intact until it is
// released and bytes following it wait in the transport.
func (c *Channel) Step() (res StepResult) {
	c.stepTx(&res)
	c.stepRx(&res)
	return
}

func (c *Channel) stepTx(res *StepResult) {
	if !c.tx.hasPending {
		b, err := c.NextTxByte()
		if err != nil {
			// nothing to transmit
			return
		}
		c.tx.pending, c.tx.hasPending = b, true
	}
	if c.w == nil {
		return
	}
	if err := c.w.WriteByte(c.tx.pending); err != nil {
		if !errors.Is(err, ErrWouldBlock) {
			c.stats.TxErrors++
			res.TxErr = err
			glog.Warningf("dlcf[%s] write %02x failed: %v", c.Name, c.tx.pending, err)
		}
		return
	}
	c.tracef("TX: %02x", c.tx.pending)
	c.tx.hasPending = false
	c.stats.BytesSent++
	res.Sent = true
}

func (c *Channel) stepRx(res *StepResult) {
	switch c.rx.state {
	case rxSOF, rxData, rxESC, rxError:
	default:
		return
	}
	if c.r == nil {
		return
	}
	b, err := c.r.ReadByte()
	if err != nil {
		if !errors.Is(err, ErrWouldBlock) {
			c.stats.RxErrors++
			res.RxErr = err
			glog.Warningf("dlcf[%s] read failed: %v", c.Name, err)
		}
		return
	}
	c.tracef("RX: %02x", b)
	c.stats.BytesReceived++
	res.Received = true
	res.RxStatus = c.ProcessRxByte(b)
}
