package sim

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/sonic-howl/frc2025/pkg/drive"
	fx "github.com/sonic-howl/frc2025/pkg/framework"
	"github.com/sonic-howl/frc2025/pkg/geometry"
	"github.com/sonic-howl/frc2025/pkg/kinematics"
)

// Swerve simulates the chassis: it advances the motors and moves the
// true pose by the velocity the wheels produce.
type Swerve struct {
	Drives []*DriveMotor
	Steers []*SteerMotor
	Gyro   *Gyro

	kin     *kinematics.Kinematics
	offsets []geometry.Rotation2D

	lock sync.Mutex
	pose geometry.Pose2D
}

// NewSwerve creates the simulated hardware for the modules, wheels start
// pointing forward.
func NewSwerve(modules []kinematics.ModuleGeometry) (*Swerve, error) {
	kin, err := kinematics.New(modules)
	if err != nil {
		return nil, err
	}
	s := &Swerve{Gyro: &Gyro{}, kin: kin}
	for _, m := range modules {
		s.Drives = append(s.Drives, NewDriveMotor())
		s.Steers = append(s.Steers, NewSteerMotor(m.AngularOffset.Positive()))
		s.offsets = append(s.offsets, m.AngularOffset)
	}
	return s, nil
}

// Actuators returns the motors to build a drive.Drivetrain.
func (s *Swerve) Actuators() []drive.Actuators {
	actuators := make([]drive.Actuators, len(s.Drives))
	for n := range actuators {
		actuators[n] = drive.Actuators{Drive: s.Drives[n], Steer: s.Steers[n]}
	}
	return actuators
}

// Name implements Named.
func (s *Swerve) Name() string {
	return "robot"
}

// Pose returns the true pose.
func (s *Swerve) Pose() geometry.Pose2D {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.pose
}

// SetPose places the robot.
func (s *Swerve) SetPose(p geometry.Pose2D) {
	s.lock.Lock()
	s.pose = p
	s.lock.Unlock()
	s.Gyro.Set(p.Heading, 0)
}

// Advance simulates dt.
func (s *Swerve) Advance(dt time.Duration) error {
	if dt <= 0 {
		return nil
	}
	states := make([]kinematics.ModuleState, len(s.Drives))
	for n := range s.Drives {
		s.Steers[n].Advance(dt)
		travel := s.Drives[n].Advance(dt)
		states[n] = kinematics.ModuleState{
			Speed: travel / dt.Seconds(),
			Angle: s.Steers[n].Angle().Sub(s.offsets[n]),
		}
	}
	v, err := s.kin.ToChassisVelocity(states)
	if err != nil {
		return err
	}
	secs := dt.Seconds()
	s.lock.Lock()
	s.pose = s.pose.Exp(geometry.Twist2D{DX: v.VX * secs, DY: v.VY * secs, DTheta: v.Omega * secs})
	pose := s.pose
	s.lock.Unlock()
	s.Gyro.Set(pose.Heading, v.Omega)
	glog.V(4).Infof("sim pose %.3f %.3f %.1f", pose.X, pose.Y, pose.Heading.Degrees())
	return nil
}

// AddToLoop implements LoopAdder.
func (s *Swerve) AddToLoop(l *fx.Loop) {
	l.AddController(fx.StageActuate, s)
}

// Control implements Controller.
func (s *Swerve) Control(cc fx.ControlContext) error {
	return s.Advance(cc.Elapsed())
}
