package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"time"

	"github.com/golang/glog"

	"github.com/sonic-howl/frc2025/pkg/comm"
	"github.com/sonic-howl/frc2025/pkg/comm/mqtt"
	"github.com/sonic-howl/frc2025/pkg/drive"
	"github.com/sonic-howl/frc2025/pkg/env"
	fx "github.com/sonic-howl/frc2025/pkg/framework"
	"github.com/sonic-howl/frc2025/pkg/joystick"
	"github.com/sonic-howl/frc2025/pkg/sim"
	"github.com/sonic-howl/frc2025/pkg/sim/visualization/see"
	"github.com/sonic-howl/frc2025/pkg/vision"
)

var (
	useJoystick bool
	simVision   = true
	display     bool
)

func init() {
	env.SetupFlags()
	drive.SetupFlags()
	vision.SetupFlags()
	joystick.SetupFlags()
	see.SetupFlags()
	flag.BoolVar(&useJoystick, "joystick", useJoystick, "Drive with a joystick.")
	flag.BoolVar(&simVision, "sim-vision", simVision, "Simulate the camera when no vision source is configured.")
	flag.BoolVar(&display, "see", display, "Print the field display stream on stdout.")
}

func main() {
	flag.Parse()

	conf, err := drive.LoadConfig()
	if err != nil {
		glog.Fatal(err)
	}
	robot, err := sim.NewSwerve(conf.Geometry())
	if err != nil {
		glog.Fatal(err)
	}
	dt, err := drive.New(*conf, robot.Actuators(), robot.Gyro)
	if err != nil {
		glog.Fatal(err)
	}

	q, err := env.NewConfig().NewQueue("swerved")
	if err != nil {
		glog.Fatal(err)
	}
	if q != nil {
		defer q.Close()
	}

	loop := fx.NewLoop().Add(dt, robot)
	loop.Interval = conf.Period

	visionConf := vision.NewConfig()
	recv, err := visionConf.NewReceiver(q)
	if err != nil {
		glog.Fatal(err)
	}
	if recv == nil && simVision {
		ch := comm.NewChan(mqtt.DefaultBacklog)
		loop.Add(sim.NewVisionEmitter(robot, ch, time.Now().UnixNano()))
		recv = vision.NewReceiver(ch, visionConf.StdDevs)
	}
	if recv != nil {
		loop.Add(recv)
	}
	if q != nil {
		loop.Add(drive.NewTelemetry(dt, mqtt.NewPacketReadWriter(q).ForVision()))
	}
	if useJoystick {
		loop.Add(joystick.NewConfig().NewController())
	}
	if display {
		loop.Add(see.NewConfig().NewAdapter().
			Track("robot", "truth", robot).
			Track("estimate", "estimate", dt))
	}

	glog.Infof("swerve drive running, %d modules, period %v", len(conf.Modules), loop.Interval)
	if err := fx.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		glog.Fatal(err)
	}
}
