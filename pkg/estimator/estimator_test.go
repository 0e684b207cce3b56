package estimator

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/sonic-howl/frc2025/pkg/geometry"
	"github.com/sonic-howl/frc2025/pkg/kinematics"
)

const cycle = 20 * time.Millisecond

var t0 = time.Unix(1000, 0)

func newTestEstimator(t *testing.T) *Estimator {
	k, err := kinematics.New([]kinematics.ModuleGeometry{
		{Name: "fl", Offset: geometry.Translation2D{X: 0.3429, Y: 0.2921}},
		{Name: "fr", Offset: geometry.Translation2D{X: 0.3429, Y: -0.2921}},
		{Name: "bl", Offset: geometry.Translation2D{X: -0.3429, Y: 0.2921}},
		{Name: "br", Offset: geometry.Translation2D{X: -0.3429, Y: -0.2921}},
	})
	require.NoError(t, err)
	e := NewConfig().NewEstimator(k)
	require.NoError(t, e.Reset(t0, 0, positions(0, 0), geometry.Pose2D{}))
	return e
}

func positions(dist, deg float64) []kinematics.ModulePosition {
	p := make([]kinematics.ModulePosition, 4)
	for i := range p {
		p[i] = kinematics.ModulePosition{Distance: dist, Angle: geometry.RotationFromDegrees(deg)}
	}
	return p
}

// driveForward moves all wheels forward 0.02m per cycle for n cycles.
func driveForward(t *testing.T, e *Estimator, n int) time.Time {
	at := t0
	for i := 1; i <= n; i++ {
		at = t0.Add(time.Duration(i) * cycle)
		_, err := e.Update(at, 0, positions(0.02*float64(i), 0))
		require.NoError(t, err)
	}
	return at
}

func sampleAt(at time.Time, x, y float64) VisionSample {
	return VisionSample{
		Pose:      geometry.NewPose2D(x, y, 0),
		Timestamp: at,
		StdDevs:   [3]float64{0.1, 0.1, 9999999},
	}
}

func TestOdometryIntegration(t *testing.T) {
	testCases := []struct {
		name    string
		deg     float64
		expectX float64
		expectY float64
	}{
		{name: "forward", deg: 0, expectX: 0.02},
		{name: "left", deg: 90, expectY: 0.02},
		{name: "diagonal", deg: 45, expectX: 0.02 / math.Sqrt2, expectY: 0.02 / math.Sqrt2},
		{name: "backward", deg: 180, expectX: -0.02},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEstimator(t)
			pose, err := e.Update(t0.Add(cycle), 0, positions(0.02, tc.deg))
			require.NoError(t, err)
			require.InDelta(t, tc.expectX, pose.X, 1e-9)
			require.InDelta(t, tc.expectY, pose.Y, 1e-9)
			require.InDelta(t, 0, pose.Heading.Radians(), 1e-9)
		})
	}
}

func TestOdometryFollowsHeadingSensor(t *testing.T) {
	e := newTestEstimator(t)
	require.NoError(t, e.Reset(t0, 0.5, positions(0, 0), geometry.Pose2D{}))
	pose, err := e.Update(t0.Add(cycle), 0.6, positions(0, 0))
	require.NoError(t, err)
	require.InDelta(t, 0.1, pose.Heading.Radians(), 1e-9)
	require.InDelta(t, 0, pose.X, 1e-9)
}

func TestOdometryHeadingFault(t *testing.T) {
	e := newTestEstimator(t)
	driveForward(t, e, 1)
	before := e.Pose()
	_, err := e.Update(t0.Add(2*cycle), geometry.Rotation2D(math.NaN()), positions(0.04, 0))
	require.Equal(t, ErrHeadingUnavailable, err)
	require.Equal(t, before, e.Pose())
}

func TestOdometryStaleTimestamp(t *testing.T) {
	e := newTestEstimator(t)
	last := driveForward(t, e, 2)
	pose, err := e.Update(t0.Add(cycle), 0, positions(0.06, 0))
	require.NoError(t, err)
	require.InDelta(t, 0.06, pose.X, 1e-9)

	at1, ok := e.history.sample(t0.Add(cycle))
	require.True(t, ok)
	require.InDelta(t, 0.02, at1.X, 1e-9)
	newest, ok := e.history.newest()
	require.True(t, ok)
	require.Equal(t, last, newest.at)
	require.InDelta(t, 0.06, newest.pose.X, 1e-9)
	require.Equal(t, 3, e.history.Len())
}

func TestOdometrySuppressesGlitch(t *testing.T) {
	e := newTestEstimator(t)
	p := positions(0, 0)
	p[2].Distance = 10
	pose, err := e.Update(t0.Add(cycle), 0, p)
	require.NoError(t, err)
	require.InDelta(t, 0, pose.X, 1e-9)
	require.InDelta(t, 0, pose.Y, 1e-9)
	stats := e.Stats()
	require.Equal(t, uint64(1), stats.SuppressedDeltas)
	require.Equal(t, []string{"bl"}, stats.LastSuppressed)

	// the jumped reading is the new baseline.
	pose, err = e.Update(t0.Add(2*cycle), 0, p)
	require.NoError(t, err)
	require.InDelta(t, 0, pose.X, 1e-9)
	require.Empty(t, e.Stats().LastSuppressed)
}

func TestVisionBlend(t *testing.T) {
	e := newTestEstimator(t)
	s := sampleAt(t0, 1, -1)
	s.Pose.Heading = 1
	require.NoError(t, e.AddVisionSample(s))
	pose := e.Pose()
	require.InDelta(t, 0.5, pose.X, 1e-9)
	require.InDelta(t, -0.5, pose.Y, 1e-9)
	require.InDelta(t, 0, pose.Heading.Radians(), 1e-9)
}

func TestVisionDefaultStdDevs(t *testing.T) {
	e := newTestEstimator(t)
	require.NoError(t, e.AddVisionSample(VisionSample{
		Pose:      geometry.NewPose2D(1, 0, 0),
		Timestamp: t0,
	}))
	// 0.1^2 / (0.1^2 + 0.7^2)
	require.InDelta(t, 0.02, e.Pose().X, 1e-9)
}

func TestVisionPropagatesToPresent(t *testing.T) {
	e := newTestEstimator(t)
	driveForward(t, e, 5)
	require.NoError(t, e.AddVisionSample(sampleAt(t0, 1, 0)))
	require.InDelta(t, 0.6, e.Pose().X, 1e-9)
	require.InDelta(t, 0.1, e.OdometryPose().X, 1e-9)
}

func TestVisionInterpolatesHistory(t *testing.T) {
	e := newTestEstimator(t)
	driveForward(t, e, 2)
	// halfway between the first two updates, odometry was at 0.01.
	require.NoError(t, e.AddVisionSample(sampleAt(t0.Add(cycle/2), 1.01, 0)))
	require.InDelta(t, 0.51+0.03, e.Pose().X, 1e-9)
}

func TestVisionOutOfOrder(t *testing.T) {
	a := sampleAt(t0.Add(cycle), 1, 0)
	b := sampleAt(t0.Add(4*cycle), 2, 0)

	inOrder := newTestEstimator(t)
	driveForward(t, inOrder, 5)
	require.NoError(t, inOrder.AddVisionSample(a))
	require.NoError(t, inOrder.AddVisionSample(b))

	reversed := newTestEstimator(t)
	driveForward(t, reversed, 5)
	require.NoError(t, reversed.AddVisionSample(b))
	require.InDelta(t, 1.06, reversed.Pose().X, 1e-9)
	require.NoError(t, reversed.AddVisionSample(a))

	require.InDelta(t, 1.305, inOrder.Pose().X, 1e-9)
	require.InDelta(t, inOrder.Pose().X, reversed.Pose().X, 1e-9)
	require.InDelta(t, inOrder.Pose().Y, reversed.Pose().Y, 1e-9)
	require.Equal(t, uint64(2), reversed.Stats().VisionAccepted)
}

func TestVisionRejected(t *testing.T) {
	testCases := []struct {
		name   string
		sample VisionSample
		cause  error
	}{
		{
			name:   "nan std dev",
			sample: VisionSample{Pose: geometry.NewPose2D(1, 1, 0), Timestamp: t0, StdDevs: [3]float64{math.NaN(), 0.7, 1}},
			cause:  ErrInvalidSample,
		},
		{
			name:   "negative std dev",
			sample: VisionSample{Pose: geometry.NewPose2D(1, 1, 0), Timestamp: t0, StdDevs: [3]float64{0.7, -0.7, 1}},
			cause:  ErrInvalidSample,
		},
		{
			name:   "infinite pose",
			sample: sampleAt(t0, math.Inf(1), 0),
			cause:  ErrInvalidSample,
		},
		{
			name:   "missing timestamp",
			sample: sampleAt(time.Time{}, 1, 0),
			cause:  ErrInvalidSample,
		},
		{
			name:   "before history",
			sample: sampleAt(t0.Add(-time.Second), 1, 0),
			cause:  ErrSampleTooOld,
		},
		{
			name:   "from the future",
			sample: sampleAt(t0.Add(time.Second), 1, 0),
			cause:  ErrSampleFromFuture,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEstimator(t)
			driveForward(t, e, 1)
			before := e.Pose()
			err := e.AddVisionSample(tc.sample)
			require.Error(t, err)
			require.Equal(t, tc.cause, errors.Cause(err))
			require.Equal(t, before, e.Pose())
			require.Equal(t, uint64(1), e.Stats().VisionRejected)
		})
	}
}

func TestResetPose(t *testing.T) {
	e := newTestEstimator(t)
	at := driveForward(t, e, 5)
	require.NoError(t, e.AddVisionSample(sampleAt(at, 3, 3)))

	target := geometry.NewPose2D(1, 2, geometry.RotationFromDegrees(90))
	require.NoError(t, e.Reset(at, 0.3, positions(0.1, 0), target))
	require.Equal(t, target, e.Pose())

	pose, err := e.Update(at.Add(cycle), 0.3, positions(0.1, 0))
	require.NoError(t, err)
	require.InDelta(t, 1, pose.X, 1e-9)
	require.InDelta(t, 2, pose.Y, 1e-9)
	require.InDelta(t, math.Pi/2, pose.Heading.Radians(), 1e-9)

	// moving forward in robot frame is +Y on the field now.
	pose, err = e.Update(at.Add(2*cycle), 0.3, positions(0.12, 0))
	require.NoError(t, err)
	require.InDelta(t, 1, pose.X, 1e-9)
	require.InDelta(t, 2.02, pose.Y, 1e-9)

	err = e.AddVisionSample(sampleAt(at.Add(-cycle), 0, 0))
	require.Equal(t, ErrSampleTooOld, errors.Cause(err))
}

func TestHistoryWindow(t *testing.T) {
	e := newTestEstimator(t)
	at := driveForward(t, e, 150)
	require.True(t, e.history.Len() <= int(e.conf.HistoryWindow/cycle)+2)

	err := e.AddVisionSample(sampleAt(t0, 0, 0))
	require.Equal(t, ErrSampleTooOld, errors.Cause(err))
	require.NoError(t, e.AddVisionSample(sampleAt(at.Add(-time.Second), 0, 0)))
}

func TestCorrectionSurvivesPruning(t *testing.T) {
	e := newTestEstimator(t)
	driveForward(t, e, 5)
	require.NoError(t, e.AddVisionSample(sampleAt(t0, 1, 0)))
	fused := e.Pose().X

	// stand still well past the history window.
	for i := 6; i < 200; i++ {
		_, err := e.Update(t0.Add(time.Duration(i)*cycle), 0, positions(0.1, 0))
		require.NoError(t, err)
	}
	require.Empty(t, e.visions)
	require.InDelta(t, fused, e.Pose().X, 1e-9)
}

func TestFieldHeading(t *testing.T) {
	e := newTestEstimator(t)
	sensor := geometry.RotationFromDegrees(30)
	require.NoError(t, e.Reset(t0, sensor, positions(0, 0), geometry.NewPose2D(1, 2, geometry.RotationFromDegrees(180))))
	require.InDelta(t, 180, e.FieldHeading(sensor).Positive()*180/math.Pi, 1e-9)
	require.InDelta(t, -170, e.FieldHeading(geometry.RotationFromDegrees(40)).Degrees(), 1e-9)
}
