package see

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/sonic-howl/frc2025/pkg/framework"
	"github.com/sonic-howl/frc2025/pkg/geometry"
)

func readReports(t *testing.T, out *bytes.Buffer) [][]Message {
	var reports [][]Message
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var msgs []Message
		require.NoError(t, json.Unmarshal([]byte(line), &msgs))
		reports = append(reports, msgs)
	}
	out.Reset()
	return reports
}

func TestAdapterReports(t *testing.T) {
	conf := NewConfig()
	conf.Interval = 0
	var out bytes.Buffer
	a := conf.NewAdapter()
	a.Out = &out
	pose := geometry.NewPose2D(1, 2, geometry.RotationFromDegrees(90))
	a.Track("robot", "sim/robot", PoseFunc(func() geometry.Pose2D { return pose }))
	l := fx.NewLoop().Add(a)

	now := time.Unix(100, 0)
	step := func() {
		now = now.Add(20 * time.Millisecond)
		l.Step(context.Background(), now)
	}

	step()
	reports := readReports(t, &out)
	require.Len(t, reports, 1)
	msgs := reports[0]
	require.Len(t, msgs, 6)
	require.Equal(t, ActionReset, msgs[0].Action)
	robot := msgs[5].Object
	require.Equal(t, "sim.robot", robot[PropID])
	require.Equal(t, "robot", robot[PropType])
	require.InDelta(t, -90, robot[PropRotate], 1e-9)
	origin := robot[PropOrigin].(map[string]interface{})
	require.InDelta(t, 1000-conf.W/2, origin["x"], 1e-9)
	require.InDelta(t, conf.H/2-2000, origin["y"], 1e-9)

	step()
	require.Empty(t, readReports(t, &out))

	pose.X = 3
	step()
	reports = readReports(t, &out)
	require.Len(t, reports, 1)
	require.Len(t, reports[0], 1)
	require.Equal(t, ActionObject, reports[0][0].Action)

	a.Untrack("sim/robot")
	step()
	reports = readReports(t, &out)
	require.Len(t, reports, 1)
	require.Equal(t, []Message{{Action: ActionRemove, RemoveID: "sim.robot"}}, reports[0])
}

func TestAdapterInterval(t *testing.T) {
	conf := NewConfig()
	conf.Interval = 100 * time.Millisecond
	var out bytes.Buffer
	a := conf.NewAdapter()
	a.Out = &out
	var x float64
	a.Track("robot", "robot", PoseFunc(func() geometry.Pose2D { return geometry.NewPose2D(x, 0, 0) }))
	l := fx.NewLoop().Add(a)

	now := time.Unix(100, 0)
	for i := 0; i < 10; i++ {
		x += 0.1
		l.Step(context.Background(), now)
		now = now.Add(20 * time.Millisecond)
	}
	// 0, 100ms, 200ms ... within 180ms.
	require.Len(t, readReports(t, &out), 2)
}
