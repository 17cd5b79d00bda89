package link

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dlcf/pkg/dlcf"
	"github.com/robotalks/dlcf/pkg/fcs"
	fx "github.com/robotalks/dlcf/pkg/framework"
	"github.com/robotalks/dlcf/pkg/transport"
)

// FrameHandler is called when a frame is received.
type FrameHandler interface {
	HandleFrame(ctx context.Context, payload []byte)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, []byte)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, payload []byte) {
	f(ctx, payload)
}

// Stats extends the channel counters with endpoint events.
type Stats struct {
	dlcf.Stats
	Queued    int
	Delivered uint64
	FCSErrors uint64
	Timeouts  uint64
}

// Endpoint exchanges whole frames over a transport.
type Endpoint struct {
	Handler FrameHandler

	name      string
	opts      Options
	transport transport.Transport

	lock    sync.Mutex
	ch      *dlcf.Channel
	queue   [][]byte
	trailer [fcs.Size]byte
	// hasTrailer is set while the trailer of the current frame is not
	// handed to the channel yet.
	hasTrailer bool
	rxPDU      *dlcf.PDU
	rxSince    time.Time
	closed     bool
	stats      Stats
}

// New creates an Endpoint framing tr with cfg.
func New(name string, cfg *dlcf.Config, tr transport.Transport, opts Options) (*Endpoint, error) {
	if opts.MaxFrameSize <= 0 || opts.QueueSize <= 0 || opts.StepsPerTick <= 0 {
		return nil, dlcf.ErrInvalidArgument
	}
	ch, err := dlcf.NewChannel(cfg)
	if err != nil {
		return nil, err
	}
	ch.Name = name
	if err = ch.BindTransport(tr, tr); err != nil {
		return nil, err
	}
	e := &Endpoint{
		name:      name,
		opts:      opts,
		transport: tr,
		ch:        ch,
	}
	rxSize := opts.MaxFrameSize
	if opts.FCS {
		rxSize += fcs.Size
		ch.SetTxContinuation(e.continueWithTrailer)
	}
	e.rxPDU = dlcf.NewBuffer(make([]byte, rxSize))
	if err = ch.SupplyReceiveBuffer(e.rxPDU); err != nil {
		return nil, err
	}
	return e, nil
}

// Name implements framework.Named.
func (e *Endpoint) Name() string {
	return e.name
}

// Options returns the options the endpoint was created with.
func (e *Endpoint) Options() Options {
	return e.opts
}

// Send queues a copy of payload.
func (e *Endpoint) Send(payload []byte) error {
	switch {
	case len(payload) == 0:
		return ErrEmptyFrame
	case len(payload) > e.opts.MaxFrameSize:
		return ErrFrameTooLarge
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.closed {
		return ErrClosed
	}
	if len(e.queue) >= e.opts.QueueSize {
		return ErrQueueFull
	}
	e.queue = append(e.queue, append([]byte(nil), payload...))
	return nil
}

// Stats returns a snapshot of the counters.
func (e *Endpoint) Stats() Stats {
	e.lock.Lock()
	defer e.lock.Unlock()
	s := e.stats
	s.Stats = e.ch.Stats()
	s.Queued = len(e.queue)
	return s
}

// Idle reports whether nothing is queued or being transmitted.
func (e *Endpoint) Idle() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.queue) == 0 && e.ch.TxStatus() == dlcf.StatusFrameFinished
}

// Reset drops queued frames and abandons frames in flight.
func (e *Endpoint) Reset() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.queue = nil
	e.hasTrailer = false
	e.ch.Reset()
	e.rearm()
}

// Close closes the transport.
func (e *Endpoint) Close() error {
	return e.transport.Close()
}

// Control implements framework.Controller.
func (e *Endpoint) Control(cc fx.ControlContext) error {
	frames, err := e.step(cc.Time())
	for _, frame := range frames {
		if h := e.Handler; h != nil {
			h.HandleFrame(cc.Context(), frame)
		}
	}
	return err
}

// AddToLoop implements framework.LoopAdder.
func (e *Endpoint) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvLink, e)
	if runnable, ok := e.transport.(fx.Runnable); ok {
		loop.AddRunnable(fx.NamedRun(e.name, runnable))
	}
}

func (e *Endpoint) step(now time.Time) (frames [][]byte, err error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.closed {
		return nil, nil
	}
	for i := 0; i < e.opts.StepsPerTick; i++ {
		e.submitNext()
		res := e.ch.Step()
		if res.Received {
			switch res.RxStatus {
			case dlcf.StatusFrameFinished:
				if frame := e.takeFrame(); frame != nil {
					frames = append(frames, frame)
				}
				e.rearm()
			case dlcf.StatusFrameDiscarded:
				e.rearm()
			}
		}
		if err = e.transportError(res); err != nil {
			break
		}
		if !res.Sent && !res.Received {
			break
		}
	}
	e.watchdog(now)
	return
}

func (e *Endpoint) submitNext() {
	if len(e.queue) == 0 || e.ch.TxStatus() != dlcf.StatusFrameFinished {
		return
	}
	payload := e.queue[0]
	if err := e.ch.Submit(dlcf.NewPDU(payload)); err != nil {
		// only possible with a broken transport binding
		glog.Errorf("%s: submit failed: %v", e.name, err)
		return
	}
	e.queue[0] = nil
	e.queue = e.queue[1:]
	if e.opts.FCS {
		e.trailer, e.hasTrailer = fcs.Trailer(payload), true
	}
}

func (e *Endpoint) continueWithTrailer() []byte {
	if !e.hasTrailer {
		return nil
	}
	e.hasTrailer = false
	return e.trailer[:]
}

func (e *Endpoint) takeFrame() []byte {
	payload := e.rxPDU.Payload()
	if e.opts.FCS {
		var err error
		if payload, err = fcs.Verify(payload); err != nil {
			e.stats.FCSErrors++
			glog.V(3).Infof("%s: frame dropped: %v", e.name, err)
			return nil
		}
	}
	e.stats.Delivered++
	return append([]byte(nil), payload...)
}

// rearm makes the receive buffer available for the next frame.
func (e *Endpoint) rearm() {
	e.ch.ClearRxStatus()
	e.rxSince = time.Time{}
	if err := e.ch.SupplyReceiveBuffer(e.rxPDU); err != nil {
		glog.Errorf("%s: supply receive buffer failed: %v", e.name, err)
	}
}

func (e *Endpoint) watchdog(now time.Time) {
	if !e.ch.RxInFrame() {
		e.rxSince = time.Time{}
		return
	}
	if e.rxSince.IsZero() {
		e.rxSince = now
		return
	}
	if e.opts.RxTimeout > 0 && now.Sub(e.rxSince) > e.opts.RxTimeout {
		glog.Warningf("%s: receive timeout after %s, frame reset", e.name, now.Sub(e.rxSince))
		e.stats.Timeouts++
		e.ch.ResetRx()
		e.rearm()
	}
}

func (e *Endpoint) transportError(res dlcf.StepResult) error {
	err := res.RxErr
	if err == nil {
		err = res.TxErr
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, transport.ErrClosed) {
		glog.Infof("%s: transport closed", e.name)
		e.closed = true
		e.queue = nil
		return ErrClosed
	}
	return err
}
