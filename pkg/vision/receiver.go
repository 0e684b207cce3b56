package vision

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/sonic-howl/frc2025/pkg/comm"
	"github.com/sonic-howl/frc2025/pkg/estimator"
	fx "github.com/sonic-howl/frc2025/pkg/framework"
)

// SampleMsg carries a decoded vision sample to the loop.
type SampleMsg struct {
	Sample estimator.VisionSample
}

// ReceiverStats counts the packets seen by a Receiver.
type ReceiverStats struct {
	Received  int
	Malformed int
	LastError string
}

// Receiver reads BotPose packets and posts SampleMsg to the loop.
// Malformed packets are counted and skipped.
type Receiver struct {
	Reader  comm.PacketReader
	StdDevs [3]float64

	lock  sync.Mutex
	stats ReceiverStats
}

// NewReceiver creates a Receiver.
func NewReceiver(reader comm.PacketReader, stdDevs [3]float64) *Receiver {
	return &Receiver{Reader: reader, StdDevs: stdDevs}
}

// Name implements Named.
func (r *Receiver) Name() string {
	return "vision-receiver"
}

// Stats returns a copy of the counters.
func (r *Receiver) Stats() ReceiverStats {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.stats
}

// Run implements Runnable.
func (r *Receiver) Run(ctx context.Context) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	receive := func() error {
		for {
			pkt, err := r.Reader.ReadPacket()
			if err != nil {
				return err
			}
			if msg := r.decode(pkt); msg != nil {
				loopCtl.PostMessage(msg)
			}
		}
	}
	if closer, ok := r.Reader.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, receive)
	}
	return receive()
}

func (r *Receiver) decode(pkt []byte) *SampleMsg {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.stats.Received++
	m, err := DecodeBotPose(pkt)
	if err == nil {
		var s estimator.VisionSample
		if s, err = m.Sample(r.StdDevs); err == nil {
			return &SampleMsg{Sample: s}
		}
	}
	r.stats.Malformed++
	r.stats.LastError = err.Error()
	if r.stats.Malformed == 1 || glog.V(2) {
		glog.Warningf("drop vision packet: %v", err)
	}
	return nil
}

// AddToLoop implements LoopAdder. A Reader which needs to run (e.g. an
// MQTT subscription) is started together with the receiver.
func (r *Receiver) AddToLoop(loop *fx.Loop) {
	if runnable, ok := r.Reader.(fx.Runnable); ok {
		loop.AddRunnable(runnable)
	}
	loop.AddRunnable(r)
}
