// Package device reads Linux joystick devices (/dev/input/jsN).
package device

import (
	"errors"
	"io"
)

// AxisMax is the magnitude of a fully deflected axis.
const AxisMax = 32767

// ErrUnsupported is returned where joystick devices are not available.
var ErrUnsupported = errors.New("joystick devices not supported on this platform")

// Event defines the base event interface.
type Event interface {
	// IsInit indicates this is the init state.
	IsInit() bool
	// Index returns either Axis or Button index.
	Index() int
}

// AxisEvent represents the change on an axis.
type AxisEvent interface {
	Event
	// Value is within [-AxisMax, AxisMax].
	Value() int
}

// ButtonEvent represents the change on a button.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	// Index returns the index of the device on the system.
	Index() int
	// Name returns the name of the device.
	Name() string
	// AxisCount returns the number of Axis on the device.
	AxisCount() int
	// ButtonCount returns the number of buttons on the device.
	ButtonCount() int
	// ReadEvent reads one event from the device, nil for events
	// which are neither axis nor button.
	ReadEvent() (Event, error)
}

// Normalize converts a raw axis value into [-1, 1].
func Normalize(v int) float64 {
	f := float64(v) / AxisMax
	if f > 1 {
		return 1
	}
	if f < -1 {
		return -1
	}
	return f
}
