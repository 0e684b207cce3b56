package drive

import (
	"encoding/json"
	"time"

	"github.com/golang/glog"

	"github.com/sonic-howl/frc2025/pkg/comm"
	fx "github.com/sonic-howl/frc2025/pkg/framework"
)

// DefaultTelemetryInterval is the default period of status reports.
const DefaultTelemetryInterval = 100 * time.Millisecond

// Telemetry publishes the drivetrain Status as JSON packets.
type Telemetry struct {
	Drivetrain *Drivetrain
	Writer     comm.PacketWriter
	Interval   time.Duration

	lastSent time.Time
	failing  bool
}

// NewTelemetry creates a Telemetry with the default interval.
func NewTelemetry(d *Drivetrain, w comm.PacketWriter) *Telemetry {
	return &Telemetry{Drivetrain: d, Writer: w, Interval: DefaultTelemetryInterval}
}

// AddToLoop implements LoopAdder.
func (t *Telemetry) AddToLoop(l *fx.Loop) {
	l.AddController(fx.StagePostProc, t)
}

// Control implements Controller.
func (t *Telemetry) Control(cc fx.ControlContext) error {
	now := cc.Time()
	if !t.lastSent.IsZero() && now.Sub(t.lastSent) < t.Interval {
		return nil
	}
	t.lastSent = now
	data, err := json.Marshal(t.Drivetrain.Status())
	if err != nil {
		return err
	}
	err = t.Writer.WritePacket(data)
	if err != nil && !t.failing {
		glog.Warningf("telemetry: %v", err)
	}
	t.failing = err != nil
	return nil
}
