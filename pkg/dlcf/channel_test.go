package dlcf

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	tSOF byte = 0x02
	tESC byte = 0x10
	tEOF byte = 0x03

	tXSOF byte = 0x22
	tXESC byte = 0x30
	tXEOF byte = 0x23
)

// byteQueue is an in-memory transport. Writes fail failWrites times
// with err before succeeding.
type byteQueue struct {
	data       []byte
	failWrites int
	err        error
}

func (q *byteQueue) WriteByte(b byte) error {
	if q.failWrites > 0 {
		q.failWrites--
		return q.err
	}
	q.data = append(q.data, b)
	return nil
}

func (q *byteQueue) ReadByte() (byte, error) {
	if len(q.data) == 0 {
		return 0, ErrWouldBlock
	}
	b := q.data[0]
	q.data = q.data[1:]
	return b, nil
}

func newTestChannel(t *testing.T, cfg *Config) (*Channel, *byteQueue) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c, err := NewChannel(cfg)
	require.NoError(t, err)
	q := &byteQueue{}
	require.NoError(t, c.BindTransport(q, q))
	return c, q
}

// encode pulls a whole frame out of the transmit engine.
func encode(t *testing.T, c *Channel, payload []byte) []byte {
	require.NoError(t, c.Submit(NewPDU(payload)))
	var out []byte
	for {
		b, err := c.NextTxByte()
		if err != nil {
			require.Equal(t, ErrFramePending, err)
			break
		}
		out = append(out, b)
		require.True(t, len(out) < 4096, "runaway frame")
	}
	require.Equal(t, StatusFrameFinished, c.TxStatus())
	c.ClearTxStatus()
	return out
}

func TestEncode(t *testing.T) {
	testCases := []struct {
		name    string
		payload []byte
		expect  []byte
	}{
		{"single byte", []byte{0x41}, []byte{tSOF, 0x41, tEOF}},
		{"plain", []byte("abc"), []byte{tSOF, 'a', 'b', 'c', tEOF}},
		{"SOF", []byte{tSOF}, []byte{tSOF, tESC, tXSOF, tEOF}},
		{"ESC", []byte{tESC}, []byte{tSOF, tESC, tXESC, tEOF}},
		{"EOF", []byte{tEOF}, []byte{tSOF, tESC, tXEOF, tEOF}},
		{"mixed", []byte{0x41, tSOF, tESC, tEOF, 0x42}, []byte{
			tSOF, 0x41, tESC, tXSOF, tESC, tXESC, tESC, tXEOF, 0x42, tEOF,
		}},
		{"substitutes are plain", []byte{tXSOF, tXESC, tXEOF}, []byte{tSOF, tXSOF, tXESC, tXEOF, tEOF}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestChannel(t, nil)
			require.Equal(t, tc.expect, encode(t, c, tc.payload))
			require.Equal(t, uint64(1), c.Stats().FramesSent)
		})
	}
}

func TestEncodeExtraControlByte(t *testing.T) {
	cfg, err := ParseConfig("02:22,10:30,03:23,11:31")
	require.NoError(t, err)
	c, _ := newTestChannel(t, cfg)
	require.Equal(t, []byte{tSOF, 0x41, tESC, 0x31, tEOF}, encode(t, c, []byte{0x41, 0x11}))
}

func TestEncodeUsesPDULen(t *testing.T) {
	c, _ := newTestChannel(t, nil)
	require.NoError(t, c.Submit(&PDU{Data: []byte("abcdef"), Len: 2}))
	var out []byte
	for b, err := c.NextTxByte(); err == nil; b, err = c.NextTxByte() {
		out = append(out, b)
	}
	require.Equal(t, []byte{tSOF, 'a', 'b', tEOF}, out)
}

func TestRoundTrip(t *testing.T) {
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	payloads := [][]byte{
		{0},
		{tSOF, tSOF, tSOF},
		{tESC, tXESC, tESC},
		{tEOF},
		all,
	}
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 64; i++ {
		p := make([]byte, 1+rnd.Intn(300))
		rnd.Read(p)
		payloads = append(payloads, p)
	}

	tx, _ := newTestChannel(t, nil)
	rx, _ := newTestChannel(t, nil)
	for n, payload := range payloads {
		wire := encode(t, tx, payload)
		pdu := NewBuffer(make([]byte, len(payload)))
		require.NoError(t, rx.SupplyReceiveBuffer(pdu))
		for i, b := range wire {
			status := rx.ProcessRxByte(b)
			if i+1 < len(wire) {
				require.Equalf(t, StatusFramePending, status, "payload[%d] byte[%d]", n, i)
			} else {
				require.Equalf(t, StatusFrameFinished, status, "payload[%d] final", n)
			}
		}
		require.Equalf(t, payload, pdu.Payload(), "payload[%d] mismatch", n)
		rx.ClearRxStatus()
	}
	require.Equal(t, uint64(len(payloads)), tx.Stats().FramesSent)
	require.Equal(t, uint64(len(payloads)), rx.Stats().FramesReceived)
}

func TestSubmit(t *testing.T) {
	testCases := []struct {
		name string
		pdu  *PDU
	}{
		{"nil", nil},
		{"nil data", &PDU{Len: 1}},
		{"zero length", &PDU{Data: []byte{1}}},
		{"negative length", &PDU{Data: []byte{1}, Len: -1}},
		{"length beyond data", &PDU{Data: []byte{1}, Len: 2}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestChannel(t, nil)
			require.Equal(t, ErrInvalidArgument, c.Submit(tc.pdu))
			require.Equal(t, StatusFrameFinished, c.TxStatus())
			_, err := c.NextTxByte()
			require.Equal(t, ErrFramePending, err)
		})
	}
}

func TestSubmitWithoutTransport(t *testing.T) {
	c, err := NewChannel(DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, StatusFramePending, c.TxStatus())
	require.Equal(t, ErrInvalidArgument, c.Submit(NewPDU([]byte{1})))
	require.Equal(t, StatusFramePending, c.TxStatus())
	_, err = c.NextTxByte()
	require.Equal(t, ErrFramePending, err)

	require.NoError(t, c.BindTransport(nil, &byteQueue{}))
	require.Equal(t, ErrInvalidArgument, c.Submit(NewPDU([]byte{1})))
}

func TestSubmitWhileInFlight(t *testing.T) {
	c, _ := newTestChannel(t, nil)
	require.NoError(t, c.Submit(NewPDU([]byte("ab"))))
	b, err := c.NextTxByte()
	require.NoError(t, err)
	require.Equal(t, tSOF, b)

	require.Equal(t, ErrFramePending, c.Submit(NewPDU([]byte("xyz"))))
	require.Equal(t, StatusFramePending, c.TxStatus())

	var out []byte
	for b, err := c.NextTxByte(); err == nil; b, err = c.NextTxByte() {
		out = append(out, b)
	}
	require.Equal(t, []byte{'a', 'b', tEOF}, out)

	// a finished frame doesn't need to be cleared before the next one
	require.NoError(t, c.Submit(NewPDU([]byte("xyz"))))
}

func TestBindTransport(t *testing.T) {
	var zero Channel
	require.Equal(t, ErrInvalidState, zero.BindTransport(&byteQueue{}, nil))
	require.Equal(t, ErrInvalidArgument, zero.SupplyReceiveBuffer(NewBuffer(make([]byte, 1))))

	c, q := newTestChannel(t, nil)
	require.NoError(t, c.Submit(NewPDU([]byte("a"))))
	require.Equal(t, ErrInvalidState, c.BindTransport(q, q))
	c.NextTxByte()
	require.Equal(t, ErrInvalidState, c.BindTransport(q, q))
	c.NextTxByte()
	c.NextTxByte()
	require.Equal(t, StatusFrameFinished, c.TxStatus())
	require.NoError(t, c.BindTransport(q, q))
	require.Equal(t, StatusFrameFinished, c.TxStatus())
}

func TestConfigureErrors(t *testing.T) {
	_, err := NewChannel(nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewChannel(&Config{CtlBytes: []byte{1, 1, 1}, EscBytes: []byte{2, 3, 4}, NumCtlEscBytes: 3})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestClearStatusIdempotent(t *testing.T) {
	c, _ := newTestChannel(t, nil)
	for i := 0; i < 3; i++ {
		c.ClearTxStatus()
		c.ClearRxStatus()
		require.Equal(t, StatusFrameFinished, c.TxStatus())
		require.Equal(t, StatusOK, c.RxStatus())
	}

	// clearing in the middle of a frame changes nothing
	require.NoError(t, c.Submit(NewPDU([]byte("a"))))
	require.NoError(t, c.SupplyReceiveBuffer(NewBuffer(make([]byte, 4))))
	c.ClearTxStatus()
	c.ClearRxStatus()
	require.Equal(t, StatusFramePending, c.TxStatus())
	require.Equal(t, StatusFramePending, c.RxStatus())
	b, err := c.NextTxByte()
	require.NoError(t, err)
	require.Equal(t, tSOF, b)
}

func TestContinuation(t *testing.T) {
	c, _ := newTestChannel(t, nil)
	parts := [][]byte{{tEOF, 'c'}, {'d'}}
	var calls int
	c.SetTxContinuation(func() []byte {
		calls++
		if len(parts) == 0 {
			return nil
		}
		p := parts[0]
		parts = parts[1:]
		return p
	})
	require.Equal(t, []byte{tSOF, 'a', 'b', tESC, tXEOF, 'c', 'd', tEOF}, encode(t, c, []byte("ab")))
	require.Equal(t, 3, calls)
	require.Equal(t, uint64(1), c.Stats().FramesSent)

	// continuation is consulted again for the next frame
	require.Equal(t, []byte{tSOF, 'x', tEOF}, encode(t, c, []byte("x")))
	require.Equal(t, 4, calls)
}

func TestContinuationDeclinesWithEmptySlice(t *testing.T) {
	c, _ := newTestChannel(t, nil)
	c.SetTxContinuation(func() []byte { return []byte{} })
	require.Equal(t, []byte{tSOF, 'a', tEOF}, encode(t, c, []byte("a")))
}

func TestReset(t *testing.T) {
	c, q := newTestChannel(t, nil)
	require.NoError(t, c.Submit(NewPDU([]byte("abc"))))
	require.NoError(t, c.SupplyReceiveBuffer(NewBuffer(make([]byte, 4))))
	c.ProcessRxByte(tSOF)
	c.ProcessRxByte('x')
	require.True(t, c.RxInFrame())
	c.NextTxByte()

	c.Reset()
	require.Equal(t, StatusFrameFinished, c.TxStatus())
	require.Equal(t, StatusOK, c.RxStatus())
	require.False(t, c.RxInFrame())
	_, err := c.NextTxByte()
	require.Equal(t, ErrFramePending, err)
	require.Equal(t, StatusByteReceived, c.ProcessRxByte(tEOF))

	// both directions are usable again
	require.NoError(t, c.BindTransport(q, q))
	require.Equal(t, []byte{tSOF, 'z', tEOF}, encode(t, c, []byte("z")))
	require.NoError(t, c.SupplyReceiveBuffer(NewBuffer(make([]byte, 4))))
}

func TestResetTxWithoutTransport(t *testing.T) {
	c, err := NewChannel(DefaultConfig())
	require.NoError(t, err)
	c.ResetTx()
	require.Equal(t, ErrInvalidArgument, c.Submit(NewPDU([]byte{1})))
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "frame-finished", StatusFrameFinished.String())
	require.Equal(t, "frame-discarded", StatusFrameDiscarded.String())
	require.Equal(t, "status(42)", Status(42).String())
}
