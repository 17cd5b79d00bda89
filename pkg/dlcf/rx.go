package dlcf

import "github.com/golang/glog"

// SupplyReceiveBuffer arms the receiver with pdu. The receiver then waits for
// SOF. It is accepted only when idle or after a finished frame; otherwise
// ErrFramePending is returned and nothing changes.
func (c *Channel) SupplyReceiveBuffer(pdu *PDU) error {
	switch c.rx.state {
	case rxIdle, rxFinished:
	default:
		return ErrFramePending
	}
	if pdu == nil || pdu.Data == nil || len(pdu.Data) == 0 {
		return ErrInvalidArgument
	}
	if c.r == nil {
		return ErrInvalidArgument
	}
	c.rx.pdu, c.rx.pos = pdu, 0
	c.setRxState(rxSOF)
	return nil
}

// RxStatus reports StatusFrameFinished when a frame is ready in the buffer,
// StatusOK when idle and StatusFramePending otherwise.
func (c *Channel) RxStatus() Status {
	switch c.rx.state {
	case rxFinished:
		return StatusFrameFinished
	case rxIdle:
		return StatusOK
	}
	return StatusFramePending
}

// ClearRxStatus releases a finished frame. It is a no-op otherwise.
func (c *Channel) ClearRxStatus() {
	if c.rx.state == rxFinished {
		c.setRxState(rxIdle)
	}
}

// RxInFrame reports whether a frame has started and is not complete yet.
func (c *Channel) RxInFrame() bool {
	switch c.rx.state {
	case rxData, rxESC, rxError:
		return true
	}
	return false
}

// ProcessRxByte feeds one received byte into the receive engine.
func (c *Channel) ProcessRxByte(b byte) Status {
	cfg := c.cfg
	switch c.rx.state {
	case rxSOF:
		if b != cfg.Ctl(CtlSOF) {
			// chatter outside of frames
			c.stats.IgnoredBytes++
			return StatusByteReceived
		}
		c.rx.pos = 0
		c.setRxState(rxData)

	case rxData:
		switch b {
		case cfg.Ctl(CtlSOF):
			c.tracef("DEC: RSOF after %d bytes", c.rx.pos)
			c.stats.Resyncs++
			c.rx.pos = 0
		case cfg.Ctl(CtlESC):
			c.setRxState(rxESC)
		case cfg.Ctl(CtlEOF):
			c.rx.pdu.Len = c.rx.pos
			c.stats.FramesReceived++
			c.setRxState(rxFinished)
			glog.V(4).Infof("dlcf[%s] frame received, %d bytes", c.Name, c.rx.pos)
			return StatusFrameFinished
		default:
			c.storeRxByte(b)
		}

	case rxESC:
		v, ok := cfg.unescape(b)
		if !ok {
			c.stats.BadEscapes++
			c.tracef("DEC: bad escape %02x", b)
			if cfg.StrictEscape {
				c.setRxState(rxError)
				return StatusFramePending
			}
		}
		c.setRxState(rxData)
		c.storeRxByte(v)

	case rxError:
		if b != cfg.Ctl(CtlEOF) {
			return StatusFramePending
		}
		c.rx.pdu, c.rx.pos = nil, 0
		c.stats.FramesDiscarded++
		c.setRxState(rxIdle)
		glog.V(4).Infof("dlcf[%s] broken frame discarded", c.Name)
		return StatusFrameDiscarded

	default:
		// no buffer supplied, or the finished frame is not released yet
		return StatusByteReceived
	}
	return StatusFramePending
}

func (c *Channel) storeRxByte(b byte) {
	if c.rx.pos >= len(c.rx.pdu.Data) {
		c.stats.Overflows++
		c.tracef("ERR: OVL=%02x", b)
		c.setRxState(rxError)
		return
	}
	c.rx.pdu.Data[c.rx.pos] = b
	c.rx.pos++
}
