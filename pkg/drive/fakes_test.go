package drive

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sonic-howl/frc2025/pkg/geometry"
)

const cycle = 20 * time.Millisecond

var t0 = time.Unix(2000, 0)

// idealDrive reaches its setpoint immediately.
type idealDrive struct {
	setpoint float64
	position float64
}

func (m *idealDrive) SetVelocity(v float64) { m.setpoint = v }
func (m *idealDrive) Position() float64     { return m.position }
func (m *idealDrive) Velocity() float64     { return m.setpoint }

type idealSteer struct {
	position float64
}

func (m *idealSteer) SetWrappedPosition(p float64) { m.position = p }
func (m *idealSteer) Position() float64            { return m.position }

type fakeGyro struct {
	heading geometry.Rotation2D
	rate    float64
	err     error
	resets  int
}

func (g *fakeGyro) Heading() (geometry.Rotation2D, error) {
	if g.err != nil {
		return 0, g.err
	}
	return g.heading, nil
}

func (g *fakeGyro) Rate() float64 { return g.rate }

func (g *fakeGyro) Reset() {
	g.heading = 0
	g.resets++
}

var errGyroDisconnected = errors.New("gyro disconnected")

type testRig struct {
	d      *Drivetrain
	drives []*idealDrive
	steers []*idealSteer
	gyro   *fakeGyro
	now    time.Time
}

func newTestRig(t *testing.T, mutate ...func(*Config)) *testRig {
	conf := NewConfig()
	conf.RateLimit = false
	for _, fn := range mutate {
		fn(conf)
	}
	r := &testRig{gyro: &fakeGyro{}, now: t0}
	actuators := make([]Actuators, len(conf.Modules))
	for n, m := range conf.Modules {
		drive := &idealDrive{}
		// wheels start straight ahead.
		steer := &idealSteer{position: geometry.RotationFromRadians(m.AngularOffset).Positive()}
		r.drives = append(r.drives, drive)
		r.steers = append(r.steers, steer)
		actuators[n] = Actuators{Drive: drive, Steer: steer}
	}
	d, err := New(*conf, actuators, r.gyro)
	require.NoError(t, err)
	d.Clock = func() time.Time { return r.now }
	r.d = d
	_, err = d.Periodic(r.now)
	require.NoError(t, err)
	return r
}

// step moves the wheels for one cycle and integrates odometry.
func (r *testRig) step(t *testing.T) geometry.Pose2D {
	for _, m := range r.drives {
		m.position += m.setpoint * cycle.Seconds()
	}
	r.now = r.now.Add(cycle)
	pose, err := r.d.Periodic(r.now)
	require.NoError(t, err)
	return pose
}
