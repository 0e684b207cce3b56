// Package estimator fuses wheel odometry with delayed vision fixes.
package estimator

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/sonic-howl/frc2025/pkg/geometry"
	"github.com/sonic-howl/frc2025/pkg/kinematics"
)

var (
	// ErrHeadingUnavailable is returned when the heading can't be trusted.
	ErrHeadingUnavailable = errors.New("heading unavailable")
	// ErrInvalidSample is returned for malformed vision samples.
	ErrInvalidSample = errors.New("invalid vision sample")
	// ErrSampleTooOld is returned for samples older than the history.
	ErrSampleTooOld = errors.New("vision sample older than history")
	// ErrSampleFromFuture is returned for samples stamped after the
	// newest odometry update beyond the tolerance.
	ErrSampleFromFuture = errors.New("vision sample from the future")
)

// Stats summarizes recovered anomalies.
type Stats struct {
	// SuppressedDeltas counts wheel deltas dropped as encoder glitches.
	SuppressedDeltas uint64
	// LastSuppressed lists the modules suppressed in the latest update.
	LastSuppressed  []string
	VisionAccepted  uint64
	VisionRejected  uint64
	LastVisionError error
}

// correction ties the fused pose to the odometry pose at one instant.
type correction struct {
	odom  geometry.Pose2D
	fused geometry.Pose2D
}

func (c correction) apply(odom geometry.Pose2D) geometry.Pose2D {
	return c.fused.Plus(odom.RelativeTo(c.odom))
}

type visionEntry struct {
	sample VisionSample
	correction
}

// Estimator keeps the best estimate of the robot pose.
//
// Odometry integrates every update into a pure odometry pose which is
// recorded in a time-indexed history. Each accepted vision sample
// produces a correction at its own timestamp; corrections are replayed
// in timestamp order whenever a sample lands before newer ones. The
// present estimate is the newest correction carried forward by the
// odometry motion since.
type Estimator struct {
	conf Config
	kin  *kinematics.Kinematics

	lock          sync.Mutex
	odom          geometry.Pose2D
	headingOffset geometry.Rotation2D
	positions     []kinematics.ModulePosition
	lastUpdate    time.Time
	history       *history
	anchor        correction
	visions       []visionEntry
	stats         Stats
}

// New creates an Estimator at the origin.
func New(conf Config, k *kinematics.Kinematics) *Estimator {
	if conf.HistoryCapacity <= 0 {
		conf.HistoryCapacity = defaultConfig.HistoryCapacity
	}
	return &Estimator{
		conf:      conf,
		kin:       k,
		positions: make([]kinematics.ModulePosition, k.NumModules()),
		history:   newHistory(conf.HistoryCapacity),
	}
}

// Reset makes pose the estimate at time at. The heading and wheel
// positions read at the same instant become the new baselines.
func (e *Estimator) Reset(at time.Time, heading geometry.Rotation2D, positions []kinematics.ModulePosition, pose geometry.Pose2D) error {
	if !finite(heading.Radians()) {
		return ErrHeadingUnavailable
	}
	if len(positions) != len(e.positions) {
		return errors.Wrapf(kinematics.ErrModuleCount, "%d positions for %d modules", len(positions), len(e.positions))
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	e.odom = pose
	e.headingOffset = pose.Heading.Sub(heading)
	copy(e.positions, positions)
	e.lastUpdate = at
	e.history.clear()
	e.history.insert(at, pose)
	e.anchor = correction{odom: pose, fused: pose}
	e.visions = nil
	return nil
}

// Update integrates the wheel travel since the previous update.
func (e *Estimator) Update(at time.Time, heading geometry.Rotation2D, positions []kinematics.ModulePosition) (geometry.Pose2D, error) {
	if !finite(heading.Radians()) {
		return e.Pose(), ErrHeadingUnavailable
	}
	if len(positions) != len(e.positions) {
		return e.Pose(), errors.Wrapf(kinematics.ErrModuleCount, "%d positions for %d modules", len(positions), len(e.positions))
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	var elapsed float64
	if !e.lastUpdate.IsZero() {
		if !at.After(e.lastUpdate) {
			// history stays ordered: late travel lands on the newest sample.
			at = e.lastUpdate
		}
		elapsed = at.Sub(e.lastUpdate).Seconds()
	}
	bound := e.conf.MaxWheelSpeed*e.conf.GlitchMargin*elapsed + e.conf.GlitchSlack

	end := make([]kinematics.ModulePosition, len(positions))
	e.stats.LastSuppressed = nil
	for i, p := range positions {
		end[i] = p
		delta := p.Distance - e.positions[i].Distance
		if !finite(delta) || math.Abs(delta) > bound {
			// contribute no travel this cycle; the new reading is the baseline.
			end[i].Distance = e.positions[i].Distance
			e.stats.SuppressedDeltas++
			e.stats.LastSuppressed = append(e.stats.LastSuppressed, e.kin.Modules()[i].Name)
			glog.Warningf("module %s: encoder jump of %.3fm suppressed", e.kin.Modules()[i].Name, delta)
		}
	}
	twist, err := e.kin.ToTwist(e.positions, end)
	if err != nil {
		return e.estimate(), err
	}
	fieldHeading := heading.Add(e.headingOffset)
	twist.DTheta = fieldHeading.Sub(e.odom.Heading).Radians()
	e.odom = e.odom.Exp(twist)
	e.odom.Heading = fieldHeading

	for i, p := range positions {
		if finite(p.Distance) {
			e.positions[i] = p
		} else {
			e.positions[i].Angle = p.Angle
		}
	}
	e.lastUpdate = at
	e.history.insert(at, e.odom)
	e.prune(at)
	return e.estimate(), nil
}

// AddVisionSample blends a vision fix into the estimate.
// Rejected samples leave the estimate untouched.
func (e *Estimator) AddVisionSample(s VisionSample) error {
	err := s.Validate()
	e.lock.Lock()
	defer e.lock.Unlock()
	if err == nil {
		err = e.addVisionSample(s)
	}
	if err != nil {
		e.stats.VisionRejected++
		e.stats.LastVisionError = err
		return err
	}
	e.stats.VisionAccepted++
	return nil
}

func (e *Estimator) addVisionSample(s VisionSample) error {
	oldest, ok := e.history.oldest()
	if !ok || s.Timestamp.Before(oldest.at) {
		return ErrSampleTooOld
	}
	if newest, _ := e.history.newest(); s.Timestamp.Sub(newest.at) > e.conf.FutureTolerance {
		return errors.Wrapf(ErrSampleFromFuture, "%v ahead", s.Timestamp.Sub(newest.at))
	}
	if s.StdDevs == [3]float64{} {
		s.StdDevs = e.conf.VisionStdDevs
	}
	i := sort.Search(len(e.visions), func(n int) bool {
		return e.visions[n].sample.Timestamp.After(s.Timestamp)
	})
	e.visions = append(e.visions, visionEntry{})
	copy(e.visions[i+1:], e.visions[i:])
	e.visions[i] = visionEntry{sample: s}
	e.replay(i)
	return nil
}

// replay recomputes corrections from index i onward.
func (e *Estimator) replay(i int) {
	prev := e.anchor
	if i > 0 {
		prev = e.visions[i-1].correction
	}
	for n := i; n < len(e.visions); n++ {
		entry := &e.visions[n]
		odom, ok := e.history.sample(entry.sample.Timestamp)
		if !ok {
			odom = prev.odom
		}
		predicted := prev.apply(odom)
		entry.correction = correction{
			odom:  odom,
			fused: e.blend(predicted, entry.sample),
		}
		prev = entry.correction
	}
}

// blend moves predicted towards the sample with independent gains
// per axis.
func (e *Estimator) blend(predicted geometry.Pose2D, s VisionSample) geometry.Pose2D {
	var k [3]float64
	for n := range k {
		q := e.conf.StateStdDevs[n] * e.conf.StateStdDevs[n]
		r := s.StdDevs[n] * s.StdDevs[n]
		if q+r > 0 {
			k[n] = q / (q + r)
		}
	}
	return geometry.Pose2D{
		Translation2D: geometry.Translation2D{
			X: predicted.X + k[0]*(s.Pose.X-predicted.X),
			Y: predicted.Y + k[1]*(s.Pose.Y-predicted.Y),
		},
		Heading: predicted.Heading.AddRadians(k[2] * s.Pose.Heading.Sub(predicted.Heading).Radians()),
	}
}

// prune forgets history and corrections that fell out of the window.
func (e *Estimator) prune(now time.Time) {
	cutoff := now.Add(-e.conf.HistoryWindow)
	n := 0
	for n < len(e.visions) && e.visions[n].sample.Timestamp.Before(cutoff) {
		n++
	}
	if n > 0 {
		e.anchor = e.visions[n-1].correction
		e.visions = append(e.visions[:0], e.visions[n:]...)
	}
	e.history.pruneBefore(cutoff)
}

func (e *Estimator) estimate() geometry.Pose2D {
	latest := e.anchor
	if n := len(e.visions); n > 0 {
		latest = e.visions[n-1].correction
	}
	return latest.apply(e.odom)
}

// Pose returns the fused estimate.
func (e *Estimator) Pose() geometry.Pose2D {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.estimate()
}

// OdometryPose returns the pose from odometry alone.
func (e *Estimator) OdometryPose() geometry.Pose2D {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.odom
}

// Stats returns a copy of the anomaly counters.
func (e *Estimator) Stats() Stats {
	e.lock.Lock()
	defer e.lock.Unlock()
	s := e.stats
	s.LastSuppressed = append([]string(nil), e.stats.LastSuppressed...)
	return s
}

// FieldHeading converts a heading sensor reading into the field frame
// established by the latest Reset.
func (e *Estimator) FieldHeading(sensor geometry.Rotation2D) geometry.Rotation2D {
	e.lock.Lock()
	defer e.lock.Unlock()
	return sensor.Add(e.headingOffset)
}
