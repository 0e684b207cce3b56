package sim

import (
	"math/rand"
	"time"

	"github.com/golang/glog"

	"github.com/sonic-howl/frc2025/pkg/comm"
	fx "github.com/sonic-howl/frc2025/pkg/framework"
	"github.com/sonic-howl/frc2025/pkg/geometry"
	"github.com/sonic-howl/frc2025/pkg/vision"
)

// PoseSource provides a pose.
type PoseSource interface {
	Pose() geometry.Pose2D
}

type timedPose struct {
	at   time.Time
	pose geometry.Pose2D
}

// VisionEmitter plays the camera: it publishes the true pose as BotPose
// packets, delayed by Latency and disturbed by Gaussian noise.
type VisionEmitter struct {
	Source PoseSource
	Writer comm.PacketWriter
	// Period between two packets.
	Period time.Duration
	// Latency between capture and publish.
	Latency time.Duration
	// NoiseXY (m) and NoiseHeading (rad) are standard deviations.
	NoiseXY      float64
	NoiseHeading float64

	rand     *rand.Rand
	captures []timedPose
	lastSent time.Time
	failing  bool
}

// NewVisionEmitter creates a VisionEmitter publishing at 20Hz with 30ms
// latency and 2cm noise.
func NewVisionEmitter(src PoseSource, w comm.PacketWriter, seed int64) *VisionEmitter {
	return &VisionEmitter{
		Source:  src,
		Writer:  w,
		Period:  50 * time.Millisecond,
		Latency: 30 * time.Millisecond,
		NoiseXY: 0.02,
		rand:    rand.New(rand.NewSource(seed)),
	}
}

// AddToLoop implements LoopAdder.
func (e *VisionEmitter) AddToLoop(l *fx.Loop) {
	l.AddController(fx.StagePostProc, e)
}

// Control implements Controller.
func (e *VisionEmitter) Control(cc fx.ControlContext) error {
	now := cc.Time()
	e.captures = append(e.captures, timedPose{at: now, pose: e.Source.Pose()})
	if !e.lastSent.IsZero() && now.Sub(e.lastSent) < e.Period {
		return nil
	}
	capture, ok := e.capture(now.Add(-e.Latency))
	if !ok {
		return nil
	}
	e.lastSent = now
	pose := capture.pose
	pose.X += e.noise(e.NoiseXY)
	pose.Y += e.noise(e.NoiseXY)
	pose.Heading = pose.Heading.AddRadians(e.noise(e.NoiseHeading))
	pkt, err := vision.EncodeBotPose(vision.NewBotPose(pose, capture.at.Add(e.Latency), e.Latency))
	if err != nil {
		return err
	}
	err = e.Writer.WritePacket(pkt)
	if err != nil && !e.failing {
		glog.Warningf("vision emitter: %v", err)
	}
	e.failing = err != nil
	return nil
}

// capture finds the newest pose recorded at or before t and forgets the
// older ones.
func (e *VisionEmitter) capture(t time.Time) (timedPose, bool) {
	n := -1
	for i, c := range e.captures {
		if c.at.After(t) {
			break
		}
		n = i
	}
	if n < 0 {
		return timedPose{}, false
	}
	c := e.captures[n]
	e.captures = append(e.captures[:0], e.captures[n:]...)
	return c, true
}

func (e *VisionEmitter) noise(sigma float64) float64 {
	if sigma <= 0 {
		return 0
	}
	return e.rand.NormFloat64() * sigma
}
