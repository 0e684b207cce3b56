package drive

import (
	"github.com/golang/glog"

	"github.com/sonic-howl/frc2025/pkg/estimator"
	fx "github.com/sonic-howl/frc2025/pkg/framework"
	"github.com/sonic-howl/frc2025/pkg/kinematics"
	"github.com/sonic-howl/frc2025/pkg/vision"
)

// AddToLoop implements LoopAdder. Odometry and vision run in the sense
// stage, commands are applied in the control stage. The latest drive
// command is re-applied every iteration until replaced.
func (d *Drivetrain) AddToLoop(l *fx.Loop) {
	l.AddController(fx.StageSense, fx.ControlFunc(d.sense))
	l.AddController(fx.StageControl, fx.ControlFunc(d.control))
}

func (d *Drivetrain) sense(cc fx.ControlContext) error {
	_, err := d.Periodic(cc.Time())
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(msg fx.Message) bool {
		m, ok := msg.(*vision.SampleMsg)
		if !ok {
			return false
		}
		d.ingestVision(m.Sample)
		return true
	}))
	return err
}

// ingestVision warns when samples start being dropped and when they
// are accepted again.
func (d *Drivetrain) ingestVision(s estimator.VisionSample) {
	err := d.AddVisionSample(s)
	switch {
	case err != nil && !d.visionRejecting:
		glog.Warningf("vision sample dropped: %v", err)
	case err != nil:
		glog.V(2).Infof("vision sample dropped: %v", err)
	case d.visionRejecting:
		glog.Info("vision samples accepted again")
	}
	d.visionRejecting = err != nil
}

func (d *Drivetrain) control(cc fx.ControlContext) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	now := cc.Time()
	var errs fx.AggregatedError
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(msg fx.Message) bool {
		switch m := msg.(type) {
		case *InputMsg:
			d.command, d.input = commandInput, *m
		case *VelocityMsg:
			d.command, d.velocity = commandVelocity, m.Velocity
		case *ModuleTargetsMsg:
			d.command = commandHold
			errs.Add(d.setModuleTargets(m.States))
		case *SetXMsg:
			d.command = commandHold
			d.setX()
		case *ResetPoseMsg:
			glog.Infof("reset pose to (%.3f, %.3f, %.1f deg)", m.Pose.X, m.Pose.Y, m.Pose.Heading.Degrees())
			errs.Add(d.rebase(now, m.Pose))
		case *ToggleFieldRelativeMsg:
			d.setFieldRelative(!d.fieldRelative)
		case *SetFieldRelativeMsg:
			d.setFieldRelative(m.Enabled)
		case *ZeroHeadingMsg:
			glog.Info("zero heading")
			errs.Add(d.zeroHeading(now))
		case *ResetEncodersMsg:
			errs.Add(d.resetEncoders(now))
		default:
			return false
		}
		return true
	}))
	switch d.command {
	case commandInput:
		errs.Add(d.driveInput(d.input, now))
	case commandVelocity:
		errs.Add(d.drive(d.velocity))
	case commandNone:
		errs.Add(d.drive(kinematics.Robot(0, 0, 0)))
	}
	return errs.Aggregate()
}
