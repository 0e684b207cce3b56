package drive

import (
	"math"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/sonic-howl/frc2025/pkg/estimator"
	"github.com/sonic-howl/frc2025/pkg/geometry"
	"github.com/sonic-howl/frc2025/pkg/kinematics"
	"github.com/sonic-howl/frc2025/pkg/module"
	"github.com/sonic-howl/frc2025/pkg/shaper"
)

// xAngle is the wheel angle of a module in the X formation: front-left
// and back-right at 45 degrees, the others at -45 degrees.
func xAngle(offset geometry.Translation2D) geometry.Rotation2D {
	if (offset.X >= 0) == (offset.Y >= 0) {
		return geometry.RotationFromDegrees(45)
	}
	return geometry.RotationFromDegrees(-45)
}

type commandKind int

const (
	commandNone commandKind = iota
	commandInput
	commandVelocity
	commandHold
)

// Drivetrain is a swerve drive.
type Drivetrain struct {
	// Clock provides the time for calls made outside of the loop,
	// defaults to time.Now.
	Clock func() time.Time

	conf    Config
	kin     *kinematics.Kinematics
	modules []*module.Module
	heading HeadingSensor
	shaper  *shaper.PolarLimiter
	est     *estimator.Estimator

	lock          sync.Mutex
	fieldRelative bool
	pendingReset  *geometry.Pose2D
	headingFault  error
	lastPeriodic  time.Time

	// visionRejecting is only touched by the sense stage.
	visionRejecting bool

	command  commandKind
	input    InputMsg
	velocity kinematics.ChassisVelocity
}

// New creates a Drivetrain, actuators are matched with conf.Modules by
// index. It fails when the configuration or the geometry is invalid.
func New(conf Config, actuators []Actuators, heading HeadingSensor) (*Drivetrain, error) {
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid drive config")
	}
	if len(actuators) != len(conf.Modules) {
		return nil, errors.Wrapf(kinematics.ErrModuleCount, "%d actuator sets for %d modules", len(actuators), len(conf.Modules))
	}
	if heading == nil {
		return nil, errors.New("heading sensor required")
	}
	kin, err := kinematics.New(conf.Geometry())
	if err != nil {
		return nil, err
	}
	kin.SetCenterOfRotation(conf.CenterOfRotation)
	d := &Drivetrain{
		conf:          conf,
		kin:           kin,
		heading:       heading,
		shaper:        conf.Shaper.NewPolarLimiter(),
		est:           conf.EstimatorConfig().NewEstimator(kin),
		fieldRelative: conf.FieldRelative,
		pendingReset:  &geometry.Pose2D{},
	}
	held := make([]geometry.Rotation2D, len(actuators))
	for n, a := range actuators {
		if a.Drive == nil || a.Steer == nil {
			return nil, errors.Errorf("module %s: missing actuator", conf.Modules[n].Name)
		}
		m := module.New(conf.Modules[n].Geometry(), a.Drive, a.Steer)
		d.modules = append(d.modules, m)
		held[n] = m.State().Angle
	}
	if err := kin.ResetHeadings(held...); err != nil {
		return nil, err
	}
	return d, nil
}

// Config returns the configuration in use.
func (d *Drivetrain) Config() Config {
	return d.conf
}

// Kinematics returns the kinematics of the drivetrain.
func (d *Drivetrain) Kinematics() *kinematics.Kinematics {
	return d.kin
}

// Modules returns the modules in configuration order.
func (d *Drivetrain) Modules() []*module.Module {
	return d.modules
}

// Drive commands a chassis velocity. A field relative velocity is rotated
// into robot frame with the heading sensor, nothing is commanded when the
// sensor fails.
func (d *Drivetrain) Drive(v kinematics.ChassisVelocity) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.command, d.velocity = commandVelocity, v
	return d.drive(v)
}

// DriveInput drives with operator input, see InputMsg. The input is
// shaped when rate limiting is enabled, now is the sample time.
func (d *Drivetrain) DriveInput(x, y, rot float64, now time.Time) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.command, d.input = commandInput, InputMsg{X: x, Y: y, Rot: rot}
	return d.driveInput(d.input, now)
}

// DriveRobotRelative drives with a robot relative velocity compensated for
// the rotation during one loop period, for path followers.
func (d *Drivetrain) DriveRobotRelative(v kinematics.ChassisVelocity) error {
	if v.Frame != kinematics.RobotRelative {
		return kinematics.ErrNotRobotRelative
	}
	return d.Drive(v.Discretize(d.conf.Period))
}

// SetModuleTargets commands module states directly, bypassing the
// kinematics. States are desaturated and optimized.
func (d *Drivetrain) SetModuleTargets(states []kinematics.ModuleState) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.command = commandHold
	return d.setModuleTargets(states)
}

// SetX points all wheels at the chassis center so the robot resists
// being pushed. It stays locked until the next drive command.
func (d *Drivetrain) SetX() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.command = commandHold
	d.setX()
}

// Stop commands zero velocity, wheels hold their angles.
func (d *Drivetrain) Stop() {
	d.Drive(kinematics.Robot(0, 0, 0))
}

// Pose returns the fused pose estimate.
func (d *Drivetrain) Pose() geometry.Pose2D {
	return d.est.Pose()
}

// ResetPose overwrites the pose estimate, wheel travel and heading are
// re-based at the same time.
func (d *Drivetrain) ResetPose(p geometry.Pose2D) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.rebase(d.now(), p)
}

// ChassisVelocity is the robot relative velocity measured by the wheels.
func (d *Drivetrain) ChassisVelocity() (kinematics.ChassisVelocity, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.measuredVelocity()
}

// FieldVelocity is ChassisVelocity in field frame.
func (d *Drivetrain) FieldVelocity() (kinematics.ChassisVelocity, error) {
	v, err := d.ChassisVelocity()
	if err != nil {
		return v, err
	}
	return v.ToFieldRelative(d.Pose().Heading), nil
}

// FieldRelative tells how operator input is interpreted.
func (d *Drivetrain) FieldRelative() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.fieldRelative
}

// SetFieldRelative sets how operator input is interpreted.
func (d *Drivetrain) SetFieldRelative(enabled bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.setFieldRelative(enabled)
}

// ToggleFieldRelative flips how operator input is interpreted and
// returns the new setting.
func (d *Drivetrain) ToggleFieldRelative() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.setFieldRelative(!d.fieldRelative)
	return d.fieldRelative
}

// ZeroHeading resets the heading sensor and makes the current direction
// the field's zero heading, the position is kept.
func (d *Drivetrain) ZeroHeading() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.zeroHeading(d.now())
}

// TurnRate is the heading rate in rad/s.
func (d *Drivetrain) TurnRate() float64 {
	return d.heading.Rate()
}

// ResetEncoders zeroes the wheel travel keeping the pose.
func (d *Drivetrain) ResetEncoders() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.resetEncoders(d.now())
}

// Periodic integrates odometry, it must be called once per loop period.
// A heading fault is recorded in Status and returned, the pose is kept.
func (d *Drivetrain) Periodic(now time.Time) (geometry.Pose2D, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.periodic(now)
}

// AddVisionSample fuses a vision fix into the pose estimate.
func (d *Drivetrain) AddVisionSample(s estimator.VisionSample) error {
	return d.est.AddVisionSample(s)
}

// Status returns an advisory snapshot.
func (d *Drivetrain) Status() Status {
	d.lock.Lock()
	defer d.lock.Unlock()
	st := Status{
		Time:          d.lastPeriodic,
		Pose:          d.est.Pose(),
		OdometryPose:  d.est.OdometryPose(),
		FieldRelative: d.fieldRelative,
	}
	if v, err := d.measuredVelocity(); err == nil {
		st.Velocity = v
	}
	for _, m := range d.modules {
		st.Modules = append(st.Modules, ModuleStatus{
			Name:     m.Name(),
			Desired:  m.Desired(),
			Measured: m.State(),
			Position: m.Position(),
		})
	}
	if d.headingFault != nil {
		st.HeadingFault = d.headingFault.Error()
	}
	statsInto(&st, d.est.Stats())
	return st
}

func (d *Drivetrain) now() time.Time {
	now := time.Now()
	if d.Clock != nil {
		now = d.Clock()
	}
	if now.Before(d.lastPeriodic) {
		return d.lastPeriodic
	}
	return now
}

func (d *Drivetrain) readHeading() (geometry.Rotation2D, error) {
	h, err := d.heading.Heading()
	if err == nil && (math.IsNaN(h.Radians()) || math.IsInf(h.Radians(), 0)) {
		err = errors.New("heading is not finite")
	}
	if err != nil {
		if d.headingFault == nil {
			glog.Warningf("heading sensor fault: %v", err)
		}
		d.headingFault = err
		return 0, errors.Wrap(estimator.ErrHeadingUnavailable, err.Error())
	}
	if d.headingFault != nil {
		glog.Info("heading sensor recovered")
		d.headingFault = nil
	}
	return h, nil
}

func (d *Drivetrain) positions() []kinematics.ModulePosition {
	positions := make([]kinematics.ModulePosition, len(d.modules))
	for n, m := range d.modules {
		positions[n] = m.Position()
	}
	return positions
}

func (d *Drivetrain) drive(v kinematics.ChassisVelocity) error {
	if v.Frame == kinematics.FieldRelative {
		h, err := d.readHeading()
		if err != nil {
			return err
		}
		v = v.ToRobotRelative(d.est.FieldHeading(h))
	}
	states, err := d.kin.ToModuleStates(v)
	if err != nil {
		return err
	}
	return d.setModuleTargets(states)
}

func (d *Drivetrain) driveInput(in InputMsg, now time.Time) error {
	x, y, rot := in.X, in.Y, in.Rot
	if d.conf.RateLimit {
		out := d.shaper.Shape(x, y, rot, now)
		x, y, rot = out.X, out.Y, out.Rot
	}
	v := kinematics.ChassisVelocity{
		VX:    x * d.conf.MaxSpeed,
		VY:    y * d.conf.MaxSpeed,
		Omega: rot * d.conf.MaxAngularSpeed,
		Frame: kinematics.RobotRelative,
	}
	if d.fieldRelative {
		v.Frame = kinematics.FieldRelative
	}
	return d.drive(v)
}

func (d *Drivetrain) setModuleTargets(states []kinematics.ModuleState) error {
	if len(states) != len(d.modules) {
		return errors.Wrapf(kinematics.ErrModuleCount, "%d states for %d modules", len(states), len(d.modules))
	}
	states = kinematics.Desaturate(states, d.conf.MaxSpeed)
	held := make([]geometry.Rotation2D, len(states))
	for n, m := range d.modules {
		held[n] = m.SetDesiredState(states[n]).Angle
	}
	return d.kin.ResetHeadings(held...)
}

func (d *Drivetrain) setX() {
	states := make([]kinematics.ModuleState, len(d.modules))
	for n, m := range d.modules {
		states[n].Angle = xAngle(m.Geometry.Offset)
	}
	d.setModuleTargets(states)
}

func (d *Drivetrain) setFieldRelative(enabled bool) {
	if d.fieldRelative != enabled {
		glog.Infof("field relative: %v", enabled)
	}
	d.fieldRelative = enabled
}

// rebase resets the estimator to pose, it is deferred to the next
// Periodic before the first one or while the heading sensor fails.
func (d *Drivetrain) rebase(now time.Time, pose geometry.Pose2D) error {
	if d.lastPeriodic.IsZero() {
		d.pendingReset = &pose
		return nil
	}
	h, err := d.readHeading()
	if err != nil {
		d.pendingReset = &pose
		return err
	}
	if err := d.est.Reset(now, h, d.positions(), pose); err != nil {
		return err
	}
	d.pendingReset = nil
	return nil
}

func (d *Drivetrain) zeroHeading(now time.Time) error {
	d.heading.Reset()
	pose := d.est.Pose()
	if d.pendingReset != nil {
		pose = *d.pendingReset
	}
	pose.Heading = 0
	d.shaper.Reset()
	return d.rebase(now, pose)
}

func (d *Drivetrain) resetEncoders(now time.Time) error {
	pose := d.est.Pose()
	if d.pendingReset != nil {
		pose = *d.pendingReset
	}
	for _, m := range d.modules {
		m.ResetDriveEncoder()
	}
	return d.rebase(now, pose)
}

func (d *Drivetrain) periodic(now time.Time) (geometry.Pose2D, error) {
	d.lastPeriodic = now
	if d.pendingReset != nil {
		if err := d.rebase(now, *d.pendingReset); err != nil {
			return d.est.Pose(), err
		}
		return d.est.Pose(), nil
	}
	h, err := d.readHeading()
	if err != nil {
		return d.est.Pose(), err
	}
	return d.est.Update(now, h, d.positions())
}

func (d *Drivetrain) measuredVelocity() (kinematics.ChassisVelocity, error) {
	states := make([]kinematics.ModuleState, len(d.modules))
	for n, m := range d.modules {
		states[n] = m.State()
	}
	return d.kin.ToChassisVelocity(states)
}
