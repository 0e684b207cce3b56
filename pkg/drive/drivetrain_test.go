package drive

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/sonic-howl/frc2025/pkg/estimator"
	"github.com/sonic-howl/frc2025/pkg/geometry"
	"github.com/sonic-howl/frc2025/pkg/kinematics"
)

func requireDesired(t *testing.T, d *Drivetrain, speeds []float64, degrees []float64) {
	st := d.Status()
	require.Len(t, st.Modules, len(speeds))
	for n, m := range st.Modules {
		require.InDelta(t, speeds[n], m.Desired.Speed, 1e-9, m.Name)
		require.InDelta(t, degrees[n], m.Desired.Angle.Degrees(), 1e-9, m.Name)
	}
}

func TestDriveOneCycle(t *testing.T) {
	r := newTestRig(t)
	require.NoError(t, r.d.Drive(kinematics.Robot(1, 0, 0)))
	requireDesired(t, r.d, []float64{1, 1, 1, 1}, []float64{0, 0, 0, 0})
	pose := r.step(t)
	require.InDelta(t, 0.02, pose.X, 1e-9)
	require.InDelta(t, 0, pose.Y, 1e-9)
	require.InDelta(t, 0, pose.Heading.Radians(), 1e-9)
	require.Equal(t, pose, r.d.Pose())
}

func TestNewRejectsBadSetup(t *testing.T) {
	conf := NewConfig()
	_, err := New(*conf, make([]Actuators, 3), &fakeGyro{})
	require.Equal(t, kinematics.ErrModuleCount, errors.Cause(err))

	conf.Modules[1].X, conf.Modules[1].Y = conf.Modules[0].X, conf.Modules[0].Y
	actuators := make([]Actuators, 4)
	for n := range actuators {
		actuators[n] = Actuators{Drive: &idealDrive{}, Steer: &idealSteer{}}
	}
	_, err = New(*conf, actuators, &fakeGyro{})
	require.Equal(t, kinematics.ErrDegenerateGeometry, errors.Cause(err))

	_, err = New(*NewConfig(), actuators, nil)
	require.Error(t, err)
}

func TestDriveFieldRelative(t *testing.T) {
	r := newTestRig(t)
	r.gyro.heading = geometry.RotationFromDegrees(60)
	require.NoError(t, r.d.Drive(kinematics.Field(1, 0, 0)))
	requireDesired(t, r.d, []float64{1, 1, 1, 1}, []float64{-60, -60, -60, -60})
}

func TestDriveHeadingFault(t *testing.T) {
	r := newTestRig(t)
	require.NoError(t, r.d.Drive(kinematics.Robot(1, 0, 0)))
	r.gyro.err = errGyroDisconnected

	err := r.d.Drive(kinematics.Field(0, 1, 0))
	require.Equal(t, estimator.ErrHeadingUnavailable, errors.Cause(err))
	// previous command is kept.
	requireDesired(t, r.d, []float64{1, 1, 1, 1}, []float64{0, 0, 0, 0})

	before := r.d.Pose()
	r.now = r.now.Add(cycle)
	_, err = r.d.Periodic(r.now)
	require.Equal(t, estimator.ErrHeadingUnavailable, errors.Cause(err))
	require.Equal(t, before, r.d.Pose())
	require.Equal(t, errGyroDisconnected.Error(), r.d.Status().HeadingFault)

	// robot relative driving doesn't need the heading.
	require.NoError(t, r.d.Drive(kinematics.Robot(1, 1, 0)))
	requireDesired(t, r.d, []float64{math.Sqrt2, math.Sqrt2, math.Sqrt2, math.Sqrt2}, []float64{45, 45, 45, 45})

	r.gyro.err = nil
	r.step(t)
	require.Empty(t, r.d.Status().HeadingFault)
}

func TestSetX(t *testing.T) {
	r := newTestRig(t)
	r.d.SetX()
	requireDesired(t, r.d, []float64{0, 0, 0, 0}, []float64{45, -45, -45, 45})
	// a stop keeps the wheels locked.
	r.d.Stop()
	requireDesired(t, r.d, []float64{0, 0, 0, 0}, []float64{45, -45, -45, 45})
}

func TestSetModuleTargetsDesaturates(t *testing.T) {
	r := newTestRig(t)
	states := []kinematics.ModuleState{
		{Speed: 9.6}, {Speed: 4.8}, {Speed: 2.4}, {Speed: 0},
	}
	require.NoError(t, r.d.SetModuleTargets(states))
	requireDesired(t, r.d, []float64{4.8, 2.4, 1.2, 0}, []float64{0, 0, 0, 0})
	require.Equal(t, 9.6, states[0].Speed)

	err := r.d.SetModuleTargets(states[:2])
	require.Equal(t, kinematics.ErrModuleCount, errors.Cause(err))
}

func TestDriveInput(t *testing.T) {
	testCases := []struct {
		name      string
		rateLimit bool
		x, rot    float64
		speed     float64
	}{
		{name: "scaled", x: 0.5, speed: 2.4},
		{name: "full", x: 1, speed: 4.8},
		{name: "rate limited", rateLimit: true, x: 1, speed: 1.8 * 0.02 * 4.8},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRig(t, func(c *Config) { c.RateLimit = tc.rateLimit })
			require.NoError(t, r.d.DriveInput(tc.x, 0, tc.rot, r.now))
			requireDesired(t, r.d, []float64{tc.speed, tc.speed, tc.speed, tc.speed}, []float64{0, 0, 0, 0})
		})
	}
}

func TestDriveInputSpin(t *testing.T) {
	r := newTestRig(t)
	require.NoError(t, r.d.DriveInput(0, 0, 1, r.now))
	v, err := r.d.ChassisVelocity()
	require.NoError(t, err)
	require.InDelta(t, 0, v.VX, 1e-9)
	require.InDelta(t, 0, v.VY, 1e-9)
	require.InDelta(t, 2*math.Pi, v.Omega, 1e-9)
}

func TestFieldRelativeToggle(t *testing.T) {
	r := newTestRig(t)
	require.False(t, r.d.FieldRelative())
	require.True(t, r.d.ToggleFieldRelative())
	require.True(t, r.d.FieldRelative())

	r.gyro.heading = geometry.RotationFromDegrees(60)
	require.NoError(t, r.d.DriveInput(0.5, 0, 0, r.now))
	requireDesired(t, r.d, []float64{2.4, 2.4, 2.4, 2.4}, []float64{-60, -60, -60, -60})

	r.d.SetFieldRelative(false)
	require.False(t, r.d.FieldRelative())
}

func TestChassisVelocity(t *testing.T) {
	r := newTestRig(t)
	require.NoError(t, r.d.Drive(kinematics.Robot(1, 0.5, 0.2)))
	v, err := r.d.ChassisVelocity()
	require.NoError(t, err)
	require.Equal(t, kinematics.RobotRelative, v.Frame)
	require.InDelta(t, 1, v.VX, 1e-9)
	require.InDelta(t, 0.5, v.VY, 1e-9)
	require.InDelta(t, 0.2, v.Omega, 1e-9)

	require.NoError(t, r.d.ResetPose(geometry.NewPose2D(0, 0, geometry.RotationFromDegrees(90))))
	fv, err := r.d.FieldVelocity()
	require.NoError(t, err)
	require.Equal(t, kinematics.FieldRelative, fv.Frame)
	require.InDelta(t, -0.5, fv.VX, 1e-9)
	require.InDelta(t, 1, fv.VY, 1e-9)
}

func TestDriveRobotRelative(t *testing.T) {
	r := newTestRig(t)
	require.Equal(t, kinematics.ErrNotRobotRelative, r.d.DriveRobotRelative(kinematics.Field(1, 0, 0)))
	require.NoError(t, r.d.DriveRobotRelative(kinematics.Robot(1, 0, 0)))
	requireDesired(t, r.d, []float64{1, 1, 1, 1}, []float64{0, 0, 0, 0})

	require.NoError(t, r.d.DriveRobotRelative(kinematics.Robot(1, 0, 1)))
	v, err := r.d.ChassisVelocity()
	require.NoError(t, err)
	// translation is bent against the rotation.
	require.True(t, v.VY < 0)
	require.InDelta(t, 1, v.Omega, 1e-9)
}

func TestResetPose(t *testing.T) {
	r := newTestRig(t)
	require.NoError(t, r.d.Drive(kinematics.Robot(1, 0, 0)))
	r.step(t)
	require.NoError(t, r.d.ResetPose(geometry.NewPose2D(1, 2, geometry.RotationFromDegrees(90))))
	require.InDelta(t, 1, r.d.Pose().X, 1e-9)
	require.InDelta(t, 2, r.d.Pose().Y, 1e-9)

	pose := r.step(t)
	require.InDelta(t, 1, pose.X, 1e-9)
	require.InDelta(t, 2.02, pose.Y, 1e-9)
	require.InDelta(t, 90, pose.Heading.Degrees(), 1e-9)
}

func TestZeroHeading(t *testing.T) {
	r := newTestRig(t)
	require.NoError(t, r.d.Drive(kinematics.Robot(1, 0, 0)))
	r.step(t)
	r.gyro.heading = geometry.RotationFromDegrees(30)
	r.d.Stop()
	pose := r.step(t)
	require.InDelta(t, 30, pose.Heading.Degrees(), 1e-9)

	require.NoError(t, r.d.ZeroHeading())
	require.Equal(t, 1, r.gyro.resets)
	require.InDelta(t, 0, r.d.Pose().Heading.Radians(), 1e-9)
	require.InDelta(t, pose.X, r.d.Pose().X, 1e-9)
	require.InDelta(t, pose.Y, r.d.Pose().Y, 1e-9)
}

func TestResetEncoders(t *testing.T) {
	r := newTestRig(t)
	require.NoError(t, r.d.Drive(kinematics.Robot(1, 0, 0)))
	r.step(t)
	r.step(t)
	require.NoError(t, r.d.ResetEncoders())
	for _, m := range r.d.Status().Modules {
		require.InDelta(t, 0, m.Position.Distance, 1e-12)
	}
	require.InDelta(t, 0.04, r.d.Pose().X, 1e-9)
	pose := r.step(t)
	require.InDelta(t, 0.06, pose.X, 1e-9)
}

func TestTurnRate(t *testing.T) {
	r := newTestRig(t)
	r.gyro.rate = 1.5
	require.Equal(t, 1.5, r.d.TurnRate())
}

func TestVisionSamples(t *testing.T) {
	r := newTestRig(t)
	require.NoError(t, r.d.Drive(kinematics.Robot(1, 0, 0)))
	for i := 0; i < 5; i++ {
		r.step(t)
	}
	before := r.d.Pose()

	bad := estimator.VisionSample{
		Pose:      geometry.NewPose2D(0.1, 0, 0),
		Timestamp: r.now,
		StdDevs:   [3]float64{math.NaN(), 0.1, 0.1},
	}
	require.Error(t, r.d.AddVisionSample(bad))
	require.Equal(t, before, r.d.Pose())

	good := estimator.VisionSample{
		Pose:      geometry.NewPose2D(before.X+0.2, 0, 0),
		Timestamp: r.now,
		StdDevs:   [3]float64{0.1, 0.1, 9999999},
	}
	require.NoError(t, r.d.AddVisionSample(good))
	require.InDelta(t, before.X+0.1, r.d.Pose().X, 1e-9)

	st := r.d.Status()
	require.Equal(t, uint64(1), st.VisionAccepted)
	require.Equal(t, uint64(1), st.VisionRejected)
	require.NotEmpty(t, st.LastVisionError)
}
