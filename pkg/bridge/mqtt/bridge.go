package mqtt

import (
	"context"

	"github.com/golang/glog"

	fx "github.com/robotalks/dlcf/pkg/framework"
)

// Default topics relative to the queue prefix.
const (
	DefaultRxTopic = "rx"
	DefaultTxTopic = "tx"
)

// Sender queues frames on a link.
type Sender interface {
	Send(payload []byte) error
}

// Bridge publishes received frames on RxTopic and sends the messages
// published on TxTopic.
type Bridge struct {
	Queue   *Queue
	Link    Sender
	Codec   Codec
	RxTopic string
	TxTopic string
}

// NewBridge creates a Bridge with default topics.
func NewBridge(q *Queue, link Sender, codec Codec) *Bridge {
	if codec == nil {
		codec = RawCodec{}
	}
	return &Bridge{
		Queue:   q,
		Link:    link,
		Codec:   codec,
		RxTopic: DefaultRxTopic,
		TxTopic: DefaultTxTopic,
	}
}

// Name implements framework.Named.
func (b *Bridge) Name() string {
	return "mqtt-bridge"
}

// HandleFrame implements link.FrameHandler.
func (b *Bridge) HandleFrame(ctx context.Context, payload []byte) {
	msg, err := b.Codec.Encode(payload)
	if err != nil {
		glog.Errorf("encode frame failed: %v", err)
		return
	}
	// don't block the loop on the broker
	b.Queue.Pub(b.RxTopic, msg)
}

// Run implements framework.Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.Queue.Sub(b.TxTopic, b.handleTx)
	defer sub.Close()
	token := b.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	b.Queue.Close()
	return ctx.Err()
}

// AddToLoop implements framework.LoopAdder.
func (b *Bridge) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(b)
}

func (b *Bridge) handleTx(topic string, msg []byte) {
	payload, err := b.Codec.Decode(msg)
	if err != nil {
		glog.Warningf("drop message on %q: %v", topic, err)
		return
	}
	if err = b.Link.Send(payload); err != nil {
		glog.Warningf("drop message on %q: %v", topic, err)
	}
}
