package module

// DriveActuator is a velocity controlled wheel motor.
type DriveActuator interface {
	// SetVelocity sets the wheel surface speed setpoint in m/s.
	SetVelocity(float64)
	// Position is the accumulated wheel travel in meters.
	Position() float64
	// Velocity is the measured wheel surface speed in m/s.
	Velocity() float64
}

// SteeringActuator is a position controlled steering motor with an
// absolute angle sensor.
type SteeringActuator interface {
	// SetWrappedPosition sets the angle setpoint in [0, 2pi). The
	// actuator must reach it along the shortest way around.
	SetWrappedPosition(float64)
	// Position is the measured absolute angle in radians.
	Position() float64
}
