package mqtt

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"
)

// Topics used between the drivetrain and its peers, relative to the
// queue's TopicPrefix.
const (
	TopicBotPose   = "vision/botpose"
	TopicTelemetry = "drive/telemetry"
)

// DefaultBacklog is the number of packets buffered before the oldest
// one is dropped.
const DefaultBacklog = 8

// ReadWriter implements PacketReadWriter on a pair of topics.
// Packets arriving faster than they are read replace the oldest buffered
// packet, only fresh data is useful to a control loop.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh  chan []byte
	done      chan struct{}
	closeOnce sync.Once
	dropped   int
	lock      sync.Mutex
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		packetCh: make(chan []byte, DefaultBacklog),
		done:     make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForVision subscribes to vision samples and publishes drivetrain
// telemetry.
func (p *ReadWriter) ForVision() *ReadWriter {
	return p.WithTopics(TopicBotPose, TopicTelemetry)
}

// ForCamera is the camera side of ForVision.
func (p *ReadWriter) ForCamera() *ReadWriter {
	return p.WithTopics(TopicTelemetry, TopicBotPose)
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Dropped returns the number of packets discarded due to backlog.
func (p *ReadWriter) Dropped() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.dropped
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.handleMsg)
	defer sub.Close()
	defer p.Close()
	<-ctx.Done()
	return ctx.Err()
}

// Close makes pending and future reads return io.EOF.
func (p *ReadWriter) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	p.lock.Lock()
	defer p.lock.Unlock()
	for {
		select {
		case p.packetCh <- payload:
			return
		default:
		}
		select {
		case <-p.packetCh:
			p.dropped++
			glog.V(2).Infof("%s backlog full, dropped oldest packet", p.SubTopic)
		default:
		}
	}
}
