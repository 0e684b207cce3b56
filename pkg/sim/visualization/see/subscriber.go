// Package see is the adapter to visualize robot poses on the field in
// github.com/robotalks/see.
package see

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/golang/glog"

	fx "github.com/sonic-howl/frc2025/pkg/framework"
	"github.com/sonic-howl/frc2025/pkg/geometry"
)

// RobotRadius is the drawn radius (mm) of a robot.
const RobotRadius = 450

// PoseSource provides the pose of a visualized object.
type PoseSource interface {
	Pose() geometry.Pose2D
}

// PoseFunc is the func form of PoseSource.
type PoseFunc func() geometry.Pose2D

// Pose implements PoseSource.
func (f PoseFunc) Pose() geometry.Pose2D {
	return f()
}

type tracked struct {
	typ, id string
	src     PoseSource
	last    *geometry.Pose2D
}

// Adapter is the visualization adapter to visualize using
// github.com/robotalks/see. Each report is a JSON array of messages
// written as one line to Out.
type Adapter struct {
	Config *Config
	Out    io.Writer

	initial    bool
	objects    []*tracked
	removedIDs []string
	lastReport time.Time
}

// NewAdapter creates the adapter.
func NewAdapter(config *Config) *Adapter {
	return &Adapter{
		Config:  config,
		Out:     os.Stdout,
		initial: true,
	}
}

// Track adds an object whose pose is reported when it changes.
func (a *Adapter) Track(typ, name string, src PoseSource) *Adapter {
	a.objects = append(a.objects, &tracked{typ: typ, id: ObjectID(name), src: src})
	return a
}

// Untrack stops reporting the object and removes it from display.
func (a *Adapter) Untrack(name string) {
	id := ObjectID(name)
	for n, obj := range a.objects {
		if obj.id == id {
			a.objects = append(a.objects[:n], a.objects[n+1:]...)
			a.removedIDs = append(a.removedIDs, id)
			return
		}
	}
}

// AddToLoop implements LoopAdder.
func (a *Adapter) AddToLoop(l *fx.Loop) {
	l.AddController(fx.StagePostProc, fx.ControlFunc(a.ReportChanges))
}

// FieldPos converts field coordinates (m, origin at the blue corner, y to
// the left) into display coordinates (mm, origin at the center, y down).
func (a *Adapter) FieldPos(t geometry.Translation2D) (float64, float64) {
	return t.X*1000 - a.Config.W/2, a.Config.H/2 - t.Y*1000
}

// ReportChanges is a controller to report changes.
func (a *Adapter) ReportChanges(cc fx.ControlContext) error {
	now := cc.Time()
	if !a.initial && a.Config.Interval > 0 && now.Sub(a.lastReport) < a.Config.Interval {
		return nil
	}
	a.lastReport = now

	var msgs []Message
	if a.initial {
		w, h := a.Config.W/2, a.Config.H/2
		msgs = []Message{
			{Action: ActionReset},
			{Action: ActionObject, Object: NewObject("corner", "corner-lt").With("loc", "lt").At(-w, -h).Radius(1)},
			{Action: ActionObject, Object: NewObject("corner", "corner-lb").With("loc", "lb").At(-w, h).Radius(1)},
			{Action: ActionObject, Object: NewObject("corner", "corner-rt").With("loc", "rt").At(w, -h).Radius(1)},
			{Action: ActionObject, Object: NewObject("corner", "corner-rb").With("loc", "rb").At(w, h).Radius(1)},
		}
		a.initial = false
		a.removedIDs = nil
	}

	for _, obj := range a.objects {
		pose := obj.src.Pose()
		if obj.last != nil && *obj.last == pose {
			continue
		}
		obj.last = &pose
		x, y := a.FieldPos(pose.Translation2D)
		msgs = append(msgs, Message{
			Action: ActionObject,
			Object: NewObject(obj.typ, obj.id).At(x, y).Radius(RobotRadius).Rotate(-pose.Heading.Degrees()),
		})
	}

	for _, id := range a.removedIDs {
		msgs = append(msgs, Message{Action: ActionRemove, RemoveID: id})
	}
	a.removedIDs = nil

	if len(msgs) == 0 {
		return nil
	}
	encoded, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	if _, err := a.Out.Write(append(encoded, '\n')); err != nil {
		glog.Warningf("see: %v", err)
	}
	return nil
}
