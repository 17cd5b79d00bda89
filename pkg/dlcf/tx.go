package dlcf

// Submit starts the transmission of pdu. It is accepted only when the
// previous frame is finished; otherwise ErrFramePending is returned and
// nothing changes. Before BindTransport it returns ErrInvalidArgument.
// pdu.Data must not be modified until TxStatus reports StatusFrameFinished.
func (c *Channel) Submit(pdu *PDU) error {
	switch c.tx.state {
	case txIdle, txFinished:
		if c.tx.hasPending {
			return ErrFramePending
		}
	case txConfig:
		return ErrInvalidArgument
	default:
		return ErrFramePending
	}
	if pdu == nil || pdu.Data == nil || pdu.Len <= 0 || pdu.Len > len(pdu.Data) {
		return ErrInvalidArgument
	}
	if c.w == nil {
		return ErrInvalidArgument
	}
	c.tx.data, c.tx.len, c.tx.pos = pdu.Data, pdu.Len, 0
	c.setTxState(txSOF)
	return nil
}

// TxStatus reports StatusFrameFinished when no frame is in flight.
func (c *Channel) TxStatus() Status {
	switch c.tx.state {
	case txIdle, txFinished:
		if c.tx.hasPending {
			return StatusFramePending
		}
		return StatusFrameFinished
	}
	return StatusFramePending
}

// ClearTxStatus acknowledges a finished frame. It is a no-op otherwise.
func (c *Channel) ClearTxStatus() {
	if c.tx.state == txFinished {
		c.setTxState(txIdle)
	}
}

// NextTxByte produces the next byte of the stuffed frame. It returns
// ErrFramePending when there is nothing to send.
func (c *Channel) NextTxByte() (byte, error) {
	switch c.tx.state {
	case txSOF:
		c.setTxState(txData)
		return c.cfg.Ctl(CtlSOF), nil
	case txData:
		return c.nextTxDataByte(), nil
	case txESC:
		b := c.cfg.EscBytes[c.tx.ctlID]
		c.tracef("ENC: XCHR (%02x -> %02x)", c.cfg.CtlBytes[c.tx.ctlID], b)
		c.setTxState(txData)
		return b, nil
	}
	return 0, ErrFramePending
}

func (c *Channel) nextTxDataByte() byte {
	for {
		if c.tx.pos < c.tx.len {
			b := c.tx.data[c.tx.pos]
			c.tx.pos++
			if id, ok := c.cfg.escapeID(b); ok {
				// the substitute follows on the next call
				c.tx.ctlID = id
				c.setTxState(txESC)
				return c.cfg.Ctl(CtlESC)
			}
			return b
		}

		c.setTxState(txEOF)
		if cont := c.tx.cont; cont != nil {
			if more := cont(); len(more) > 0 {
				c.tx.data, c.tx.len, c.tx.pos = more, len(more), 0
				c.setTxState(txData)
				continue
			}
		}
		c.tx.data, c.tx.len, c.tx.pos = nil, 0, 0
		c.stats.FramesSent++
		c.setTxState(txFinished)
		return c.cfg.Ctl(CtlEOF)
	}
}
