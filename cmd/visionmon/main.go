package main

//go-build: CGO_ENABLED=0

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/sonic-howl/frc2025/pkg/comm/mqtt"
	"github.com/sonic-howl/frc2025/pkg/drive"
	"github.com/sonic-howl/frc2025/pkg/env"
	"github.com/sonic-howl/frc2025/pkg/vision"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()

	q, err := env.NewConfig().NewQueue("visionmon")
	if err != nil {
		glog.Fatal(err)
	}
	if q == nil {
		fmt.Fprintln(os.Stderr, "an MQTT broker is required, use -mqtt or SWERVE_MQTT_URL")
		os.Exit(2)
	}
	defer q.Close()

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		ts := time.Now().Format("15:04:05.000")
		switch {
		case strings.HasSuffix(topic, mqtt.TopicBotPose):
			msg, err := vision.DecodeBotPose(payload)
			if err != nil {
				fmt.Printf("%s %s: bad message: %v\n", ts, topic, err)
				return
			}
			s, err := msg.Sample([3]float64{})
			if err != nil {
				fmt.Printf("%s %s: rejected %v: %s\n", ts, topic, err, msg.String())
				return
			}
			fmt.Printf("%s %s: x=%.3f y=%.3f heading=%.1f captured %v ago\n", ts, topic,
				s.Pose.X, s.Pose.Y, s.Pose.Heading.Degrees(), time.Since(s.Timestamp).Round(time.Millisecond))
		case strings.HasSuffix(topic, mqtt.TopicTelemetry):
			var st drive.Status
			if err := json.Unmarshal(payload, &st); err != nil {
				fmt.Printf("%s %s: bad message: %v\n", ts, topic, err)
				return
			}
			fmt.Printf("%s %s: pose x=%.3f y=%.3f heading=%.1f vision %d/%d\n", ts, topic,
				st.Pose.X, st.Pose.Y, st.Pose.Heading.Degrees(), st.VisionAccepted, st.VisionAccepted+st.VisionRejected)
		default:
			fmt.Printf("%s %s: %d bytes\n", ts, topic, len(payload))
		}
	}))
	<-(chan struct{})(nil)
}
