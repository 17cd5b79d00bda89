package link

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dlcf/pkg/dlcf"
	fx "github.com/robotalks/dlcf/pkg/framework"
	"github.com/robotalks/dlcf/pkg/transport"
)

type testCtlCtx struct {
	now time.Time
}

func (c *testCtlCtx) Time() time.Time                     { return c.now }
func (c *testCtlCtx) Context() context.Context            { return context.Background() }
func (c *testCtlCtx) PriorityLevel() int                  { return fx.PrLvLink }
func (c *testCtlCtx) PostRun(...fx.Controller)            {}
func (c *testCtlCtx) PreRunAt(int, ...fx.Controller)      {}
func (c *testCtlCtx) PostRunAt(int, ...fx.Controller)     {}
func (c *testCtlCtx) TriggerNext()                        {}
func (c *testCtlCtx) advance(d time.Duration) *testCtlCtx { c.now = c.now.Add(d); return c }

type testEndpoint struct {
	*Endpoint
	frames [][]byte
}

func newTestEndpoint(t *testing.T, name string, tr transport.Transport, opts Options) *testEndpoint {
	ep, err := New(name, dlcf.DefaultConfig(), tr, opts)
	require.NoError(t, err)
	te := &testEndpoint{Endpoint: ep}
	ep.Handler = HandleFrameFunc(func(ctx context.Context, payload []byte) {
		te.frames = append(te.frames, payload)
	})
	return te
}

func testOptions(withFCS bool) Options {
	return Options{
		MaxFrameSize: 16,
		QueueSize:    4,
		StepsPerTick: 8,
		RxTimeout:    100 * time.Millisecond,
		FCS:          withFCS,
	}
}

func pump(t *testing.T, cc *testCtlCtx, eps ...*testEndpoint) {
	for i := 0; i < 100; i++ {
		for _, ep := range eps {
			require.NoError(t, ep.Control(cc))
		}
		cc.advance(time.Millisecond)
	}
}

func TestEndpointExchange(t *testing.T) {
	for _, withFCS := range []bool{false, true} {
		name := "plain"
		if withFCS {
			name = "fcs"
		}
		t.Run(name, func(t *testing.T) {
			ta, tb := transport.NewLoopback(32)
			a := newTestEndpoint(t, "a", ta, testOptions(withFCS))
			b := newTestEndpoint(t, "b", tb, testOptions(withFCS))

			require.NoError(t, a.Send([]byte{0x02, 0x10, 0x03}))
			require.NoError(t, a.Send([]byte("second")))
			require.NoError(t, b.Send([]byte("reply")))
			pump(t, &testCtlCtx{now: time.Now()}, a, b)

			require.Equal(t, [][]byte{{0x02, 0x10, 0x03}, []byte("second")}, b.frames)
			require.Equal(t, [][]byte{[]byte("reply")}, a.frames)
			require.True(t, a.Idle())
			require.True(t, b.Idle())
			stats := a.Stats()
			require.Equal(t, uint64(2), stats.FramesSent)
			require.Equal(t, uint64(1), stats.Delivered)
			require.Equal(t, 0, stats.Queued)
		})
	}
}

func TestEndpointSendErrors(t *testing.T) {
	tr, _ := transport.NewLoopback(32)
	ep := newTestEndpoint(t, "ep", tr, testOptions(false))
	require.Equal(t, ErrEmptyFrame, ep.Send(nil))
	require.Equal(t, ErrFrameTooLarge, ep.Send(make([]byte, 17)))
	for i := 0; i < 4; i++ {
		require.NoError(t, ep.Send([]byte{byte(i)}))
	}
	require.Equal(t, ErrQueueFull, ep.Send([]byte{4}))
	require.Equal(t, 4, ep.Stats().Queued)

	ep.Reset()
	require.Equal(t, 0, ep.Stats().Queued)
	require.NoError(t, ep.Send([]byte{5}))
}

func TestEndpointSendCopiesPayload(t *testing.T) {
	ta, tb := transport.NewLoopback(32)
	a := newTestEndpoint(t, "a", ta, testOptions(false))
	b := newTestEndpoint(t, "b", tb, testOptions(false))
	payload := []byte("abc")
	require.NoError(t, a.Send(payload))
	payload[0] = 'x'
	pump(t, &testCtlCtx{now: time.Now()}, a, b)
	require.Equal(t, [][]byte{[]byte("abc")}, b.frames)
}

func TestNewEndpointErrors(t *testing.T) {
	tr, _ := transport.NewLoopback(32)
	_, err := New("ep", dlcf.DefaultConfig(), tr, Options{})
	require.Equal(t, dlcf.ErrInvalidArgument, err)
	_, err = New("ep", &dlcf.Config{}, tr, testOptions(false))
	require.Error(t, err)
}

func writeRaw(t *testing.T, w transport.Transport, p ...byte) {
	for _, b := range p {
		require.NoError(t, w.WriteByte(b))
	}
}

func TestEndpointFCSMismatch(t *testing.T) {
	ta, tb := transport.NewLoopback(64)
	a := newTestEndpoint(t, "a", ta, testOptions(true))
	b := newTestEndpoint(t, "b", tb, testOptions(true))
	cc := &testCtlCtx{now: time.Now()}

	// "bc" is not the trailer of "a"
	writeRaw(t, ta, 0x02, 'a', 'b', 'c', 0x03)
	require.NoError(t, a.Send([]byte("ok")))
	pump(t, cc, a, b)

	require.Equal(t, [][]byte{[]byte("ok")}, b.frames)
	require.Equal(t, uint64(1), b.Stats().FCSErrors)
	require.Equal(t, uint64(2), b.Stats().FramesReceived)
}

func TestEndpointDiscardedFrame(t *testing.T) {
	raw, tr := transport.NewLoopback(64)
	ep := newTestEndpoint(t, "ep", tr, testOptions(false))
	cc := &testCtlCtx{now: time.Now()}

	writeRaw(t, raw, 0x02)
	writeRaw(t, raw, make([]byte, 20)...)
	writeRaw(t, raw, 0x03, 0x02, 'h', 'i', 0x03)
	pump(t, cc, ep)

	require.Equal(t, [][]byte{[]byte("hi")}, ep.frames)
	stats := ep.Stats()
	require.Equal(t, uint64(1), stats.Overflows)
	require.Equal(t, uint64(1), stats.FramesDiscarded)
}

func TestEndpointRxTimeout(t *testing.T) {
	raw, tr := transport.NewLoopback(64)
	ep := newTestEndpoint(t, "ep", tr, testOptions(false))
	cc := &testCtlCtx{now: time.Now()}

	writeRaw(t, raw, 0x02, 'x')
	require.NoError(t, ep.Control(cc))
	require.NoError(t, ep.Control(cc.advance(50*time.Millisecond)))
	require.Equal(t, uint64(0), ep.Stats().Timeouts)
	require.NoError(t, ep.Control(cc.advance(60*time.Millisecond)))
	require.Equal(t, uint64(1), ep.Stats().Timeouts)

	// the stale byte doesn't leak into the next frame
	writeRaw(t, raw, 'y', 0x03, 0x02, 'z', 0x03)
	pump(t, cc, ep)
	require.Equal(t, [][]byte{[]byte("z")}, ep.frames)
}

func TestEndpointClosed(t *testing.T) {
	raw, tr := transport.NewLoopback(64)
	ep := newTestEndpoint(t, "ep", tr, testOptions(false))
	cc := &testCtlCtx{now: time.Now()}

	writeRaw(t, raw, 0x02, 'o', 'k', 0x03)
	require.NoError(t, raw.Close())
	require.Equal(t, ErrClosed, ep.Control(cc))
	require.Equal(t, [][]byte{[]byte("ok")}, ep.frames)
	require.Equal(t, ErrClosed, ep.Send([]byte("late")))
	require.NoError(t, ep.Control(cc))
}

func TestEndpointInLoop(t *testing.T) {
	ta, tb := transport.NewLoopback(32)
	a := newTestEndpoint(t, "a", ta, testOptions(true))
	b := newTestEndpoint(t, "b", tb, testOptions(true))
	loop := fx.NewLoop().Add(a, b)
	require.NoError(t, a.Send([]byte("via loop")))
	for i := 0; i < 20 && len(b.frames) == 0; i++ {
		loop.Iterate(context.Background())
	}
	require.Equal(t, [][]byte{[]byte("via loop")}, b.frames)
}
