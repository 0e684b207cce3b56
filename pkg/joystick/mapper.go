package joystick

import (
	"math"

	"github.com/sonic-howl/frc2025/pkg/drive"
	fx "github.com/sonic-howl/frc2025/pkg/framework"
	"github.com/sonic-howl/frc2025/pkg/joystick/device"
)

// DefaultDeadband is the default axis deadband.
const DefaultDeadband = 0.05

// Gamepad layout, left stick translates, right stick X rotates.
const (
	AxisLeftX  = 0
	AxisLeftY  = 1
	AxisRightX = 3

	ButtonA = 0
	ButtonB = 1
	ButtonX = 2
)

// ApplyDeadband zeroes values within the deadband and rescales the rest
// so the output still spans [-1, 1].
func ApplyDeadband(v, deadband float64) float64 {
	if math.Abs(v) <= deadband {
		return 0
	}
	if deadband >= 1 {
		return 0
	}
	if v > 0 {
		return (v - deadband) / (1 - deadband)
	}
	return (v + deadband) / (1 - deadband)
}

// Mapper turns joystick events into drivetrain messages.
type Mapper struct {
	Deadband float64

	input drive.InputMsg
}

// NewMapper creates a Mapper with DefaultDeadband.
func NewMapper() *Mapper {
	return &Mapper{Deadband: DefaultDeadband}
}

// Input returns the current operator input.
func (m *Mapper) Input() drive.InputMsg {
	return m.input
}

// Map returns the message for the event, or nil if it is not relevant.
// Stick forward and left are negative on the device.
func (m *Mapper) Map(ev device.Event) fx.Message {
	switch e := ev.(type) {
	case device.AxisEvent:
		v := -ApplyDeadband(device.Normalize(e.Value()), m.Deadband)
		prev := m.input
		switch e.Index() {
		case AxisLeftY:
			m.input.X = v
		case AxisLeftX:
			m.input.Y = v
		case AxisRightX:
			m.input.Rot = v
		default:
			return nil
		}
		if m.input == prev && !e.IsInit() {
			return nil
		}
		msg := m.input
		return &msg
	case device.ButtonEvent:
		if !e.Pressed() || e.IsInit() {
			return nil
		}
		switch e.Index() {
		case ButtonA:
			return &drive.SetXMsg{}
		case ButtonB:
			return &drive.ToggleFieldRelativeMsg{}
		case ButtonX:
			return &drive.ZeroHeadingMsg{}
		}
	}
	return nil
}

// Release returns the message that stops the robot when the device is lost.
func (m *Mapper) Release() fx.Message {
	m.input = drive.InputMsg{}
	return &drive.InputMsg{}
}
