package drive

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sonic-howl/frc2025/pkg/estimator"
	fx "github.com/sonic-howl/frc2025/pkg/framework"
	"github.com/sonic-howl/frc2025/pkg/geometry"
	"github.com/sonic-howl/frc2025/pkg/kinematics"
	"github.com/sonic-howl/frc2025/pkg/vision"
)

type packetRecorder struct {
	packets [][]byte
}

func (r *packetRecorder) WritePacket(pkt []byte) error {
	r.packets = append(r.packets, pkt)
	return nil
}

// newLoopRig runs the drivetrain in a loop, the actuate stage moves the
// ideal wheels.
func newLoopRig(t *testing.T) (*testRig, *fx.Loop) {
	r := newTestRig(t)
	l := fx.NewLoop().Add(r.d)
	l.AddController(fx.StageActuate, fx.ControlFunc(func(cc fx.ControlContext) error {
		for _, m := range r.drives {
			m.position += m.setpoint * cycle.Seconds()
		}
		return nil
	}))
	return r, l
}

func (r *testRig) iterate(l *fx.Loop) {
	r.now = r.now.Add(cycle)
	l.Step(context.Background(), r.now)
}

func TestLoopHoldsCommand(t *testing.T) {
	r, l := newLoopRig(t)
	l.PostMessage(&VelocityMsg{Velocity: kinematics.Robot(1, 0, 0)})
	for i := 0; i < 5; i++ {
		r.iterate(l)
	}
	// the first iteration commands, odometry sees motion from the second.
	require.InDelta(t, 0.08, r.d.Pose().X, 1e-9)

	l.PostMessage(&InputMsg{X: 0.5, Y: 0.5})
	r.iterate(l)
	speed := 2.4 * math.Sqrt2
	requireDesired(t, r.d, []float64{speed, speed, speed, speed}, []float64{45, 45, 45, 45})

	l.PostMessage(&SetXMsg{})
	r.iterate(l)
	r.iterate(l)
	requireDesired(t, r.d, []float64{0, 0, 0, 0}, []float64{45, -45, -45, 45})
}

func TestLoopCommands(t *testing.T) {
	r, l := newLoopRig(t)
	l.PostMessage(&ToggleFieldRelativeMsg{})
	r.iterate(l)
	require.True(t, r.d.FieldRelative())
	l.PostMessage(&SetFieldRelativeMsg{Enabled: false})
	r.iterate(l)
	require.False(t, r.d.FieldRelative())

	l.PostMessage(&ResetPoseMsg{Pose: geometry.NewPose2D(3, 4, geometry.RotationFromDegrees(180))})
	r.iterate(l)
	pose := r.d.Pose()
	require.InDelta(t, 3, pose.X, 1e-9)
	require.InDelta(t, 4, pose.Y, 1e-9)

	r.gyro.heading = geometry.RotationFromDegrees(10)
	l.PostMessage(&ZeroHeadingMsg{})
	r.iterate(l)
	require.Equal(t, 1, r.gyro.resets)
	require.InDelta(t, 0, r.d.Pose().Heading.Radians(), 1e-9)

	l.PostMessage(&ModuleTargetsMsg{States: []kinematics.ModuleState{
		{Speed: 0.5}, {Speed: 0.5}, {Speed: 0.5}, {Speed: 0.5},
	}})
	r.iterate(l)
	r.iterate(l)
	l.PostMessage(&VelocityMsg{Velocity: kinematics.Robot(0, 0, 0)})
	l.PostMessage(&ResetEncodersMsg{})
	r.iterate(l)
	for _, m := range r.d.Status().Modules {
		require.InDelta(t, 0, m.Position.Distance, 1e-12)
	}
}

func TestLoopVision(t *testing.T) {
	r, l := newLoopRig(t)
	r.iterate(l)
	l.PostMessage(&vision.SampleMsg{Sample: estimator.VisionSample{
		Pose:      geometry.NewPose2D(0.5, 0, 0),
		Timestamp: r.now,
		StdDevs:   [3]float64{0.1, 0.1, 9999999},
	}})
	r.iterate(l)
	require.InDelta(t, 0.25, r.d.Pose().X, 1e-9)
	require.Equal(t, uint64(1), r.d.Status().VisionAccepted)
}

func TestLoopVisionRejections(t *testing.T) {
	r, l := newLoopRig(t)
	r.iterate(l)
	stale := estimator.VisionSample{Pose: geometry.NewPose2D(0.5, 0, 0), Timestamp: t0.Add(-time.Hour)}
	for i := 0; i < 2; i++ {
		l.PostMessage(&vision.SampleMsg{Sample: stale})
		r.iterate(l)
		require.True(t, r.d.visionRejecting)
	}
	require.Equal(t, uint64(2), r.d.Status().VisionRejected)
	require.InDelta(t, 0, r.d.Pose().X, 1e-9)

	l.PostMessage(&vision.SampleMsg{Sample: estimator.VisionSample{
		Pose:      geometry.NewPose2D(0.5, 0, 0),
		Timestamp: r.now,
	}})
	r.iterate(l)
	require.False(t, r.d.visionRejecting)
	require.Equal(t, uint64(1), r.d.Status().VisionAccepted)
}

func TestTelemetry(t *testing.T) {
	r, l := newLoopRig(t)
	rec := &packetRecorder{}
	l.Add(NewTelemetry(r.d, rec))
	l.PostMessage(&VelocityMsg{Velocity: kinematics.Robot(1, 0, 0)})
	for i := 0; i < 10; i++ {
		r.iterate(l)
	}
	// 200ms at 100ms interval.
	require.Len(t, rec.packets, 2)
	var st Status
	require.NoError(t, json.Unmarshal(rec.packets[1], &st))
	require.Len(t, st.Modules, 4)
	require.Equal(t, "front-left", st.Modules[0].Name)
	require.True(t, st.Pose.X > 0)
}
