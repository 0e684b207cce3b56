package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/sonic-howl/frc2025/pkg/cli/sh"
	"github.com/sonic-howl/frc2025/pkg/drive"
	fx "github.com/sonic-howl/frc2025/pkg/framework"
	"github.com/sonic-howl/frc2025/pkg/sim"

	_ "github.com/sonic-howl/frc2025/pkg/cli/cmds/swerve"
)

func init() {
	drive.SetupFlags()
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
	loop := fx.NewLoop().Add(dt, robot)
	loop.Interval = conf.Period

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	sh.New(sh.LoopTarget{LoopControl: loop, Drivetrain: dt}).Run(flag.Args()...)
}
