// Package drive ties the swerve kinematics, modules, input shaping and
// pose estimation into a drivetrain driven by the control loop.
package drive

import (
	"time"

	"github.com/sonic-howl/frc2025/pkg/estimator"
	"github.com/sonic-howl/frc2025/pkg/geometry"
	"github.com/sonic-howl/frc2025/pkg/kinematics"
	"github.com/sonic-howl/frc2025/pkg/module"
)

// HeadingSensor is an absolute, low drift heading source such as an IMU.
type HeadingSensor interface {
	// Heading returns the current heading, counter-clockwise positive.
	// An error means the reading can't be trusted.
	Heading() (geometry.Rotation2D, error)
	// Rate is the turn rate in rad/s, counter-clockwise positive.
	Rate() float64
	// Reset makes the current heading read as zero.
	Reset()
}

// Actuators are the motors of one module.
type Actuators struct {
	Drive module.DriveActuator
	Steer module.SteeringActuator
}

// InputMsg is operator input in [-1, 1], already deadbanded.
// X is forward, Y is left and Rot is counter-clockwise.
type InputMsg struct {
	X, Y, Rot float64
}

// VelocityMsg commands a chassis velocity directly.
type VelocityMsg struct {
	Velocity kinematics.ChassisVelocity
}

// ModuleTargetsMsg commands module states directly.
type ModuleTargetsMsg struct {
	States []kinematics.ModuleState
}

// SetXMsg locks the wheels in an X formation.
type SetXMsg struct{}

// ResetPoseMsg resets the pose estimate.
type ResetPoseMsg struct {
	Pose geometry.Pose2D
}

// ToggleFieldRelativeMsg flips the interpretation of operator input.
type ToggleFieldRelativeMsg struct{}

// SetFieldRelativeMsg sets the interpretation of operator input.
type SetFieldRelativeMsg struct {
	Enabled bool
}

// ZeroHeadingMsg makes the current heading the field's zero heading.
type ZeroHeadingMsg struct{}

// ResetEncodersMsg zeroes the wheel travel.
type ResetEncodersMsg struct{}

// ModuleStatus reports one module.
type ModuleStatus struct {
	Name     string                    `json:"name"`
	Desired  kinematics.ModuleState    `json:"desired"`
	Measured kinematics.ModuleState    `json:"measured"`
	Position kinematics.ModulePosition `json:"position"`
}

// Status is an advisory snapshot of the drivetrain.
type Status struct {
	Time          time.Time                  `json:"time"`
	Pose          geometry.Pose2D            `json:"pose"`
	OdometryPose  geometry.Pose2D            `json:"odometry_pose"`
	Velocity      kinematics.ChassisVelocity `json:"velocity"`
	FieldRelative bool                       `json:"field_relative"`
	Modules       []ModuleStatus             `json:"modules"`

	// HeadingFault is the latest heading sensor error, empty when healthy.
	HeadingFault     string   `json:"heading_fault,omitempty"`
	SuppressedDeltas uint64   `json:"suppressed_deltas"`
	LastSuppressed   []string `json:"last_suppressed,omitempty"`
	VisionAccepted   uint64   `json:"vision_accepted"`
	VisionRejected   uint64   `json:"vision_rejected"`
	LastVisionError  string   `json:"last_vision_error,omitempty"`
}

func statsInto(st *Status, stats estimator.Stats) {
	st.SuppressedDeltas = stats.SuppressedDeltas
	st.LastSuppressed = stats.LastSuppressed
	st.VisionAccepted = stats.VisionAccepted
	st.VisionRejected = stats.VisionRejected
	if stats.LastVisionError != nil {
		st.LastVisionError = stats.LastVisionError.Error()
	}
}
