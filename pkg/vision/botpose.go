// Package vision decodes robot pose fixes published by an AprilTag camera
// and feeds them to the control loop.
package vision

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/sonic-howl/frc2025/pkg/estimator"
	"github.com/sonic-howl/frc2025/pkg/geometry"
)

// Indices into the botpose array published by the camera.
const (
	FieldX       = 0
	FieldY       = 1
	FieldYaw     = 5
	FieldLatency = 6

	MinFields = 7
)

// MaxLatency rejects samples claiming an implausible pipeline delay.
const MaxLatency = time.Second

var (
	ErrTooFewFields = errors.New("too few botpose fields")
	ErrBadLatency   = errors.New("bad latency")
	ErrNotFinite    = errors.New("botpose value not finite")
	ErrNoTarget     = errors.New("no target in view")
)

// ParseBotPose converts a botpose array into a VisionSample. x and y are
// in meters, yaw in degrees and latency in milliseconds. The sample is
// stamped with the capture time, publishedAt minus latency.
func ParseBotPose(values []float64, publishedAt time.Time, stdDevs [3]float64) (estimator.VisionSample, error) {
	if len(values) < MinFields {
		return estimator.VisionSample{}, errors.Wrapf(ErrTooFewFields, "got %d, need %d", len(values), MinFields)
	}
	for _, n := range []int{FieldX, FieldY, FieldYaw, FieldLatency} {
		if math.IsNaN(values[n]) || math.IsInf(values[n], 0) {
			return estimator.VisionSample{}, errors.Wrapf(ErrNotFinite, "field %d", n)
		}
	}
	latencyMs := values[FieldLatency]
	latency := time.Duration(latencyMs * float64(time.Millisecond))
	if latencyMs <= 0 || latency > MaxLatency {
		return estimator.VisionSample{}, errors.Wrapf(ErrBadLatency, "%vms", latencyMs)
	}
	if values[FieldX] == 0 && values[FieldY] == 0 && values[FieldYaw] == 0 {
		return estimator.VisionSample{}, ErrNoTarget
	}
	return estimator.VisionSample{
		Pose:      geometry.NewPose2D(values[FieldX], values[FieldY], geometry.RotationFromDegrees(values[FieldYaw])),
		Timestamp: publishedAt.Add(-latency),
		StdDevs:   stdDevs,
	}, nil
}

// BotPoseValues builds a botpose array for a pose, the inverse of
// ParseBotPose. Unused fields are zero.
func BotPoseValues(pose geometry.Pose2D, latency time.Duration) []float64 {
	values := make([]float64, MinFields)
	values[FieldX] = pose.X
	values[FieldY] = pose.Y
	values[FieldYaw] = pose.Heading.Degrees()
	values[FieldLatency] = float64(latency) / float64(time.Millisecond)
	return values
}
