package kinematics

import (
	"math"
	"time"

	"github.com/sonic-howl/frc2025/pkg/geometry"
)

// Frame identifies the reference frame of a ChassisVelocity.
type Frame int

// Frames
const (
	// RobotRelative components are along the robot's own axes,
	// X forward and Y to the left.
	RobotRelative Frame = iota
	// FieldRelative components are along the fixed field axes.
	FieldRelative
)

// String implements fmt.Stringer.
func (f Frame) String() string {
	if f == FieldRelative {
		return "field"
	}
	return "robot"
}

// ChassisVelocity is a planar velocity command or measurement.
type ChassisVelocity struct {
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	Omega float64 `json:"omega"`
	Frame Frame   `json:"frame"`
}

// ModuleState is the instantaneous motion of one wheel.
type ModuleState struct {
	// Speed is signed, in m/s.
	Speed float64 `json:"speed"`
	// Angle is the wheel direction in robot frame.
	Angle geometry.Rotation2D `json:"angle"`
}

// ModulePosition is the accumulated travel of one wheel.
type ModulePosition struct {
	// Distance is in meters and never wraps.
	Distance float64             `json:"distance"`
	Angle    geometry.Rotation2D `json:"angle"`
}

// ModuleGeometry describes where a module is mounted.
type ModuleGeometry struct {
	Name string
	// Offset from the robot center, X forward, Y left.
	Offset geometry.Translation2D
	// AngularOffset is the mechanical zero of the steering sensor
	// measured in robot frame.
	AngularOffset geometry.Rotation2D
}

// Robot creates a robot-relative velocity.
func Robot(vx, vy, omega float64) ChassisVelocity {
	return ChassisVelocity{VX: vx, VY: vy, Omega: omega, Frame: RobotRelative}
}

// Field creates a field-relative velocity.
func Field(vx, vy, omega float64) ChassisVelocity {
	return ChassisVelocity{VX: vx, VY: vy, Omega: omega, Frame: FieldRelative}
}

// IsZero tells whether nothing moves.
func (v ChassisVelocity) IsZero() bool {
	return v.VX == 0 && v.VY == 0 && v.Omega == 0
}

// ToRobotRelative converts into robot frame given the robot heading
// on the field. Robot-relative values are returned unchanged.
func (v ChassisVelocity) ToRobotRelative(heading geometry.Rotation2D) ChassisVelocity {
	if v.Frame == RobotRelative {
		return v
	}
	t := geometry.Translation2D{X: v.VX, Y: v.VY}.RotateBy(heading.Neg())
	return Robot(t.X, t.Y, v.Omega)
}

// ToFieldRelative converts into field frame given the robot heading.
func (v ChassisVelocity) ToFieldRelative(heading geometry.Rotation2D) ChassisVelocity {
	if v.Frame == FieldRelative {
		return v
	}
	t := geometry.Translation2D{X: v.VX, Y: v.VY}.RotateBy(heading)
	return Field(t.X, t.Y, v.Omega)
}

// Discretize compensates for translating while rotating during a
// control period of length dt: the returned velocity, held constant
// along an arc for dt, ends at the pose the straight-line command would
// reach. The frame is preserved.
func (v ChassisVelocity) Discretize(dt time.Duration) ChassisVelocity {
	secs := dt.Seconds()
	if secs <= 0 {
		return v
	}
	target := geometry.NewPose2D(v.VX*secs, v.VY*secs, geometry.RotationFromRadians(v.Omega*secs))
	twist := geometry.Pose2D{}.Log(target)
	return ChassisVelocity{
		VX:    twist.DX / secs,
		VY:    twist.DY / secs,
		Omega: twist.DTheta / secs,
		Frame: v.Frame,
	}
}

// Velocity returns the ground velocity vector of the wheel.
func (s ModuleState) Velocity() geometry.Translation2D {
	return s.Angle.Project(s.Speed)
}

// Optimize rewrites target so that reaching it needs at most 90 degrees
// of steering from current, reversing the drive direction if necessary.
func Optimize(target ModuleState, current geometry.Rotation2D) ModuleState {
	if target.Angle.DistanceTo(current) > math.Pi/2 {
		return ModuleState{
			Speed: -target.Speed,
			Angle: target.Angle.AddRadians(math.Pi),
		}
	}
	return target
}

// Desaturate scales all speeds uniformly so none exceeds vMax.
// States already within limits are returned as an identical copy.
func Desaturate(states []ModuleState, vMax float64) []ModuleState {
	out := make([]ModuleState, len(states))
	copy(out, states)
	var top float64
	for _, s := range states {
		if v := math.Abs(s.Speed); v > top {
			top = v
		}
	}
	if top <= vMax || vMax < 0 {
		return out
	}
	scale := vMax / top
	for n := range out {
		if math.Abs(out[n].Speed) == top {
			out[n].Speed = math.Copysign(vMax, out[n].Speed)
			continue
		}
		out[n].Speed = math.Max(-vMax, math.Min(vMax, out[n].Speed*scale))
	}
	return out
}
