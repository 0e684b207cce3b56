package module

import (
	"github.com/sonic-howl/frc2025/pkg/geometry"
	"github.com/sonic-howl/frc2025/pkg/kinematics"
)

// Module owns the actuators of one swerve module.
//
// Targets and readings are in robot frame; the static angular offset
// of the module is applied on the way to the steering actuator and
// removed on the way back.
type Module struct {
	Geometry kinematics.ModuleGeometry

	drive        DriveActuator
	steer        SteeringActuator
	desired      kinematics.ModuleState
	distanceBase float64
}

// New creates a Module. The current steering angle becomes the desired
// angle so the wheel doesn't move on start.
func New(geom kinematics.ModuleGeometry, drive DriveActuator, steer SteeringActuator) *Module {
	m := &Module{Geometry: geom, drive: drive, steer: steer}
	m.desired.Angle = m.angle()
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.Geometry.Name
}

// SetDesiredState optimizes the target against the measured wheel angle
// and commands both actuators. It returns the state actually commanded.
func (m *Module) SetDesiredState(target kinematics.ModuleState) kinematics.ModuleState {
	optimized := kinematics.Optimize(target, m.angle())
	m.steer.SetWrappedPosition(optimized.Angle.Add(m.Geometry.AngularOffset).Positive())
	m.drive.SetVelocity(optimized.Speed)
	m.desired = optimized
	return optimized
}

// Desired returns the last commanded state.
func (m *Module) Desired() kinematics.ModuleState {
	return m.desired
}

// State returns the measured velocity and angle.
func (m *Module) State() kinematics.ModuleState {
	return kinematics.ModuleState{Speed: m.drive.Velocity(), Angle: m.angle()}
}

// Position returns the measured travel and angle.
func (m *Module) Position() kinematics.ModulePosition {
	return kinematics.ModulePosition{
		Distance: m.drive.Position() - m.distanceBase,
		Angle:    m.angle(),
	}
}

// ResetDriveEncoder makes the current travel read as zero.
func (m *Module) ResetDriveEncoder() {
	m.distanceBase = m.drive.Position()
}

func (m *Module) angle() geometry.Rotation2D {
	return geometry.RotationFromRadians(m.steer.Position()).Sub(m.Geometry.AngularOffset)
}
