// Package comm defines packet transports used to move vision samples and
// telemetry between processes.
package comm

import (
	"errors"
	"sync"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// ErrClosed is returned by a closed in-process transport.
var ErrClosed = errors.New("transport closed")

// Chan is an in-process PacketReadWriter, packets written are read back in
// order. Writes block when the buffer is full.
type Chan struct {
	ch        chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewChan creates a Chan with the given buffer size.
func NewChan(size int) *Chan {
	return &Chan{ch: make(chan []byte, size), done: make(chan struct{})}
}

// ReadPacket implements PacketReader.
func (c *Chan) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-c.ch:
		return pkt, nil
	case <-c.done:
		return nil, ErrClosed
	}
}

// WritePacket implements PacketWriter.
func (c *Chan) WritePacket(pkt []byte) error {
	buf := make([]byte, len(pkt))
	copy(buf, pkt)
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.ch <- buf:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Close implements io.Closer.
func (c *Chan) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}
