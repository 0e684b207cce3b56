package shaper

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const cycle = 20 * time.Millisecond

func TestStepTowards(t *testing.T) {
	testCases := []struct {
		name    string
		current float64
		target  float64
		step    float64
		expect  float64
	}{
		{name: "up", current: 0, target: 1, step: 0.25, expect: 0.25},
		{name: "down", current: 0, target: -1, step: 0.25, expect: -0.25},
		{name: "no overshoot", current: 0.9, target: 1, step: 0.25, expect: 1},
		{name: "zero step", current: 0.5, target: 1, step: 0, expect: 0.5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.expect, StepTowards(tc.current, tc.target, tc.step), 1e-12)
		})
	}
}

func TestWrapAngle(t *testing.T) {
	require.InDelta(t, 0, WrapAngle(2*math.Pi), 1e-12)
	require.InDelta(t, 1.5*math.Pi, WrapAngle(-0.5*math.Pi), 1e-12)
	require.InDelta(t, 0.5, WrapAngle(4*math.Pi+0.5), 1e-12)
	require.InDelta(t, 0, WrapAngle(-2*math.Pi), 1e-12)
}

func TestAngleDifference(t *testing.T) {
	require.InDelta(t, 0.2, AngleDifference(0.1, -0.1), 1e-12)
	require.InDelta(t, math.Pi, AngleDifference(0, math.Pi), 1e-12)
	require.InDelta(t, math.Pi/2, AngleDifference(-math.Pi/4, math.Pi/4), 1e-12)
}

func TestStepTowardsCircular(t *testing.T) {
	testCases := []struct {
		name    string
		current float64
		target  float64
		step    float64
		expect  float64
	}{
		{name: "counter clockwise", current: 0.1, target: 0.5, step: 0.1, expect: 0.2},
		{name: "clockwise", current: 0.5, target: 0.1, step: 0.1, expect: 0.4},
		// the shorter way from 0.1 to -0.1 is clockwise through zero.
		{name: "clockwise across zero", current: 0.1, target: -0.1, step: 0.05, expect: 0.05},
		{name: "counter clockwise across zero", current: -0.1, target: 0.1, step: 0.05, expect: 2*math.Pi - 0.05},
		{name: "reach", current: 3, target: 3.05, step: 0.1, expect: 3.05},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.expect, StepTowardsCircular(tc.current, tc.target, tc.step), 1e-9)
		})
	}
}

func TestSlewRateLimiter(t *testing.T) {
	l := NewSlewRateLimiter(2, 0)
	require.InDelta(t, 0.04, l.Step(1, cycle), 1e-12)
	require.InDelta(t, 0.08, l.Step(1, cycle), 1e-12)
	require.InDelta(t, 0.04, l.Step(-1, cycle), 1e-12)
	l.Reset(0.5)
	require.Equal(t, 0.5, l.Value())
}

func TestPolarLimiterReversal(t *testing.T) {
	p := NewPolarLimiter(defaultConfig)
	p.magnitude.Reset(0.5)

	prevMag := p.Magnitude()
	var flipped bool
	for i := 0; i < 100 && !flipped; i++ {
		p.Step(-1, 0, 0, cycle)
		if prevMag > stoppedMagnitude {
			require.Equal(t, 0.0, p.Direction(), "cycle %d", i)
			require.True(t, p.Magnitude() < prevMag, "cycle %d: %v !< %v", i, p.Magnitude(), prevMag)
		} else {
			require.InDelta(t, math.Pi, p.Direction(), 1e-12)
			flipped = true
		}
		prevMag = p.Magnitude()
	}
	require.True(t, flipped)

	out := p.Step(-1, 0, 0, cycle)
	require.True(t, out.X < 0)
	require.InDelta(t, 0, out.Y, 1e-9)
}

func TestPolarLimiterFromRest(t *testing.T) {
	p := NewPolarLimiter(defaultConfig)
	p.Step(0, 1, 0, cycle)
	require.InDelta(t, math.Pi/2, p.Direction(), 1e-12)
	out := p.Step(0, 1, 0, cycle)
	require.InDelta(t, 0, out.X, 1e-9)
	require.InDelta(t, 0.036, out.Y, 1e-9)
}

func TestPolarLimiterMiddleBand(t *testing.T) {
	p := NewPolarLimiter(defaultConfig)
	p.magnitude.Reset(0.5)
	in := 0.6 * math.Pi
	p.Step(math.Cos(in), math.Sin(in), 0, cycle)
	// turning rate at magnitude 0.5 is 1.2 / 0.5 rad/s.
	require.InDelta(t, 2.4*0.02, p.Direction(), 1e-9)
	require.InDelta(t, 0.5-1.8*0.02, p.Magnitude(), 1e-9)
}

func TestPolarLimiterSmallTurn(t *testing.T) {
	p := NewPolarLimiter(defaultConfig)
	p.magnitude.Reset(1)
	p.Step(math.Cos(0.3), math.Sin(0.3), 0, cycle)
	require.InDelta(t, 1.2*0.02, p.Direction(), 1e-9)
	require.InDelta(t, 1, p.Magnitude(), 1e-9)
}

func TestPolarLimiterStopHoldsDirection(t *testing.T) {
	p := NewPolarLimiter(defaultConfig)
	p.direction = 2
	p.magnitude.Reset(0.1)
	p.Step(0, 0, 0, cycle)
	require.Equal(t, 2.0, p.Direction())
	require.InDelta(t, 0.1-0.036, p.Magnitude(), 1e-9)
}

func TestPolarLimiterRotation(t *testing.T) {
	p := NewPolarLimiter(defaultConfig)
	out := p.Step(0, 0, 1, cycle)
	require.InDelta(t, 0.04, out.Rot, 1e-12)
	out = p.Step(0, 0, -1, cycle)
	require.InDelta(t, 0, out.Rot, 1e-12)
}

func TestPolarLimiterShapeElapsed(t *testing.T) {
	p := NewPolarLimiter(defaultConfig)
	start := time.Unix(100, 0)
	p.Shape(1, 0, 0, start)
	require.InDelta(t, 0.036, p.Magnitude(), 1e-9)
	p.Shape(1, 0, 0, start.Add(100*time.Millisecond))
	require.InDelta(t, 0.036+0.18, p.Magnitude(), 1e-9)
	// time going backwards doesn't move anything.
	p.Shape(1, 0, 0, start)
	require.InDelta(t, 0.216, p.Magnitude(), 1e-9)

	p.Reset()
	require.Equal(t, 0.0, p.Magnitude())
}
