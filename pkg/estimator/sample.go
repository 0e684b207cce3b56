package estimator

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/sonic-howl/frc2025/pkg/geometry"
)

// VisionSample is an absolute pose fix from an external pipeline.
type VisionSample struct {
	Pose geometry.Pose2D
	// Timestamp is the capture time, already corrected for latency.
	Timestamp time.Time
	// StdDevs for x (m), y (m) and heading (rad). All zero means the
	// estimator defaults.
	StdDevs [3]float64
}

// Validate checks that every field is usable.
func (s *VisionSample) Validate() error {
	if s.Timestamp.IsZero() {
		return errors.Wrap(ErrInvalidSample, "missing timestamp")
	}
	for _, v := range []float64{s.Pose.X, s.Pose.Y, s.Pose.Heading.Radians()} {
		if !finite(v) {
			return errors.Wrap(ErrInvalidSample, "pose is not finite")
		}
	}
	if s.StdDevs == [3]float64{} {
		return nil
	}
	for n, v := range s.StdDevs {
		if !finite(v) || v <= 0 {
			return errors.Wrapf(ErrInvalidSample, "standard deviation %d is %v", n, v)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
