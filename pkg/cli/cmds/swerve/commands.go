// Package swerve registers the drivetrain commands of the shell.
package swerve

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/sonic-howl/frc2025/pkg/cli/sh"
	"github.com/sonic-howl/frc2025/pkg/drive"
	fx "github.com/sonic-howl/frc2025/pkg/framework"
	"github.com/sonic-howl/frc2025/pkg/geometry"
	"github.com/sonic-howl/frc2025/pkg/kinematics"
	"github.com/sonic-howl/frc2025/pkg/vision"
)

// DefaultVisionLatency is used by the vision command without LATENCY_MS.
const DefaultVisionLatency = 30 * time.Millisecond

func parseFloats(args []string, names ...string) ([]float64, error) {
	if len(args) < len(names) {
		return nil, fmt.Errorf("%s required", names[len(args)])
	}
	vals := make([]float64, len(names))
	for n, name := range names {
		val, err := strconv.ParseFloat(args[n], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", name, err)
		}
		vals[n] = val
	}
	return vals, nil
}

func parseDrive(args []string) (fx.Message, error) {
	vals, err := parseFloats(args, "VX", "VY", "OMEGA")
	if err != nil {
		return nil, err
	}
	v := kinematics.Robot(vals[0], vals[1], vals[2])
	if len(args) > 3 {
		switch args[3] {
		case "field":
			v.Frame = kinematics.FieldRelative
		case "robot":
		default:
			return nil, fmt.Errorf("invalid frame %q, expect field or robot", args[3])
		}
	}
	return &drive.VelocityMsg{Velocity: v}, nil
}

func parseInput(args []string) (fx.Message, error) {
	vals, err := parseFloats(args, "X", "Y", "ROT")
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		if v < -1 || v > 1 {
			return nil, fmt.Errorf("input %v out of [-1, 1]", v)
		}
	}
	return &drive.InputMsg{X: vals[0], Y: vals[1], Rot: vals[2]}, nil
}

func parseReset(args []string) (fx.Message, error) {
	vals, err := parseFloats(args, "X", "Y", "DEG")
	if err != nil {
		return nil, err
	}
	return &drive.ResetPoseMsg{Pose: geometry.NewPose2D(vals[0], vals[1], geometry.RotationFromDegrees(vals[2]))}, nil
}

func parseField(args []string) (fx.Message, error) {
	if len(args) == 0 {
		return &drive.ToggleFieldRelativeMsg{}, nil
	}
	switch args[0] {
	case "on":
		return &drive.SetFieldRelativeMsg{Enabled: true}, nil
	case "off":
		return &drive.SetFieldRelativeMsg{}, nil
	}
	return nil, fmt.Errorf("invalid %q, expect on or off", args[0])
}

// parseVision builds a sample as the camera would have published it at now.
func parseVision(args []string, now time.Time) (fx.Message, error) {
	vals, err := parseFloats(args, "X", "Y", "DEG")
	if err != nil {
		return nil, err
	}
	latency := DefaultVisionLatency
	if len(args) > 3 {
		ms, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid LATENCY_MS: %v", err)
		}
		latency = time.Duration(ms * float64(time.Millisecond))
	}
	pose := geometry.NewPose2D(vals[0], vals[1], geometry.RotationFromDegrees(vals[2]))
	sample, err := vision.ParseBotPose(vision.BotPoseValues(pose, latency), now, [3]float64{})
	if err != nil {
		return nil, err
	}
	return &vision.SampleMsg{Sample: sample}, nil
}

func constMsg(msg fx.Message) func([]string) (fx.Message, error) {
	return func([]string) (fx.Message, error) { return msg, nil }
}

var (
	// DriveCmd commands a chassis velocity.
	DriveCmd = ishell.Cmd{
		Name:    "drive",
		Aliases: []string{"d"},
		Help:    "VX(m/s) VY(m/s) OMEGA(rad/s) [field|robot]",
		Func:    sh.ArgsFunc(parseDrive),
	}

	// InputCmd simulates operator input.
	InputCmd = ishell.Cmd{
		Name:    "input",
		Aliases: []string{"i"},
		Help:    "X Y ROT, each in [-1, 1]",
		Func:    sh.ArgsFunc(parseInput),
	}

	// StopCmd stops the robot.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"s"},
		Help:    "",
		Func:    sh.ArgsFunc(constMsg(&drive.VelocityMsg{})),
	}

	// SetXCmd locks the wheels.
	SetXCmd = ishell.Cmd{
		Name: "x",
		Help: "lock wheels in X formation",
		Func: sh.ArgsFunc(constMsg(&drive.SetXMsg{})),
	}

	// PoseCmd prints the estimated pose.
	PoseCmd = ishell.Cmd{
		Name:    "pose",
		Aliases: []string{"p"},
		Help:    "",
		Func: func(c *ishell.Context) {
			p := sh.ShellFrom(c).Target.Status().Pose
			sh.Print(c, p, "x=%.3f y=%.3f heading=%.1f\n", p.X, p.Y, p.Heading.Degrees())
		},
	}

	// ResetCmd resets the pose estimate.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "X(m) Y(m) HEADING(degrees)",
		Func: sh.ArgsFunc(parseReset),
	}

	// FieldCmd toggles or sets field relative input.
	FieldCmd = ishell.Cmd{
		Name:    "field",
		Aliases: []string{"f"},
		Help:    "[on|off]",
		Func:    sh.ArgsFunc(parseField),
	}

	// ZeroCmd zeroes the heading.
	ZeroCmd = ishell.Cmd{
		Name: "zero",
		Help: "",
		Func: sh.ArgsFunc(constMsg(&drive.ZeroHeadingMsg{})),
	}

	// SpeedsCmd prints the measured chassis velocity.
	SpeedsCmd = ishell.Cmd{
		Name: "speeds",
		Help: "",
		Func: func(c *ishell.Context) {
			v := sh.ShellFrom(c).Target.Status().Velocity
			sh.Print(c, v, "vx=%.3f vy=%.3f omega=%.3f (%s)\n", v.VX, v.VY, v.Omega, v.Frame)
		},
	}

	// StatusCmd prints the drivetrain status.
	StatusCmd = ishell.Cmd{
		Name: "status",
		Help: "",
		Func: func(c *ishell.Context) {
			st := sh.ShellFrom(c).Target.Status()
			sh.Print(c, st, "%s\n", formatStatus(st))
		},
	}

	// VisionCmd injects a vision sample.
	VisionCmd = ishell.Cmd{
		Name:    "vision",
		Aliases: []string{"v"},
		Help:    "X(m) Y(m) HEADING(degrees) [LATENCY_MS]",
		Func: sh.ArgsFunc(func(args []string) (fx.Message, error) {
			return parseVision(args, time.Now())
		}),
	}
)

func formatStatus(st drive.Status) string {
	s := fmt.Sprintf("pose x=%.3f y=%.3f heading=%.1f field-relative=%v\n",
		st.Pose.X, st.Pose.Y, st.Pose.Heading.Degrees(), st.FieldRelative)
	for _, m := range st.Modules {
		s += fmt.Sprintf("  %-12s desired %6.2f@%6.1f measured %6.2f@%6.1f travel %.3f\n",
			m.Name, m.Desired.Speed, m.Desired.Angle.Degrees(),
			m.Measured.Speed, m.Measured.Angle.Degrees(), m.Position.Distance)
	}
	if st.HeadingFault != "" {
		s += "heading fault: " + st.HeadingFault + "\n"
	}
	s += fmt.Sprintf("vision accepted=%d rejected=%d suppressed deltas=%d",
		st.VisionAccepted, st.VisionRejected, st.SuppressedDeltas)
	if st.LastVisionError != "" {
		s += " last vision error: " + st.LastVisionError
	}
	return s
}

func init() {
	sh.AddCmds(
		&DriveCmd,
		&InputCmd,
		&StopCmd,
		&SetXCmd,
		&PoseCmd,
		&ResetCmd,
		&FieldCmd,
		&ZeroCmd,
		&SpeedsCmd,
		&StatusCmd,
		&VisionCmd,
	)
}
