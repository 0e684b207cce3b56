// Package sim simulates the swerve drive hardware: motors, heading sensor,
// chassis physics and the vision pipeline.
package sim

import (
	"math"
	"sync"
	"time"

	"github.com/sonic-howl/frc2025/pkg/geometry"
	"github.com/sonic-howl/frc2025/pkg/shaper"
)

// Default motor limits, roughly a NEO driving a 3 inch wheel and a
// NEO 550 steering.
const (
	DefaultDriveAccel = 12.0
	DefaultSteerRate  = 4 * math.Pi
)

// DriveMotor is a simulated velocity controlled wheel motor.
type DriveMotor struct {
	// MaxAccel (m/s^2) limits how fast the velocity follows the setpoint,
	// 0 means immediately.
	MaxAccel float64

	lock     sync.Mutex
	setpoint float64
	velocity float64
	position float64
}

// NewDriveMotor creates a DriveMotor with DefaultDriveAccel.
func NewDriveMotor() *DriveMotor {
	return &DriveMotor{MaxAccel: DefaultDriveAccel}
}

// SetVelocity implements DriveActuator.
func (m *DriveMotor) SetVelocity(v float64) {
	m.lock.Lock()
	m.setpoint = v
	m.lock.Unlock()
}

// Position implements DriveActuator.
func (m *DriveMotor) Position() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.position
}

// Velocity implements DriveActuator.
func (m *DriveMotor) Velocity() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.velocity
}

// Setpoint returns the commanded velocity.
func (m *DriveMotor) Setpoint() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.setpoint
}

// Advance moves the motor by dt and returns the distance travelled.
func (m *DriveMotor) Advance(dt time.Duration) float64 {
	secs := dt.Seconds()
	m.lock.Lock()
	defer m.lock.Unlock()
	var dist float64
	if m.MaxAccel > 0 {
		v0 := m.velocity
		m.velocity = shaper.StepTowards(m.velocity, m.setpoint, m.MaxAccel*secs)
		dist = (v0 + m.velocity) / 2 * secs
	} else {
		m.velocity = m.setpoint
		dist = m.velocity * secs
	}
	m.position += dist
	return dist
}

// Jump adds travel without motion, like a glitching encoder.
func (m *DriveMotor) Jump(dist float64) {
	m.lock.Lock()
	m.position += dist
	m.lock.Unlock()
}

// SteerMotor is a simulated steering motor with an absolute encoder.
type SteerMotor struct {
	// MaxRate (rad/s) limits the steering speed, 0 means immediately.
	MaxRate float64

	lock     sync.Mutex
	setpoint float64
	position float64
}

// NewSteerMotor creates a SteerMotor at position with DefaultSteerRate.
func NewSteerMotor(position float64) *SteerMotor {
	position = shaper.WrapAngle(position)
	return &SteerMotor{MaxRate: DefaultSteerRate, setpoint: position, position: position}
}

// SetWrappedPosition implements SteeringActuator.
func (m *SteerMotor) SetWrappedPosition(p float64) {
	m.lock.Lock()
	m.setpoint = shaper.WrapAngle(p)
	m.lock.Unlock()
}

// Position implements SteeringActuator.
func (m *SteerMotor) Position() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.position
}

// Advance turns the motor towards the setpoint along the shorter way.
func (m *SteerMotor) Advance(dt time.Duration) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.MaxRate <= 0 {
		m.position = m.setpoint
		return
	}
	m.position = shaper.StepTowardsCircular(m.position, m.setpoint, m.MaxRate*dt.Seconds())
}

// Angle returns the position as a rotation.
func (m *SteerMotor) Angle() geometry.Rotation2D {
	return geometry.RotationFromRadians(m.Position())
}
