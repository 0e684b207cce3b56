package shaper

import (
	"math"
	"time"
)

// SlewRateLimiter bounds how fast a value may change, in units per second.
type SlewRateLimiter struct {
	Rate  float64
	value float64
}

// NewSlewRateLimiter creates a limiter starting at initial.
func NewSlewRateLimiter(rate, initial float64) *SlewRateLimiter {
	return &SlewRateLimiter{Rate: rate, value: initial}
}

// Step moves the value towards input by at most Rate * dt.
func (l *SlewRateLimiter) Step(input float64, dt time.Duration) float64 {
	l.value = StepTowards(l.value, input, l.Rate*dt.Seconds())
	return l.value
}

// Value returns the current output.
func (l *SlewRateLimiter) Value() float64 {
	return l.value
}

// Reset jumps to value.
func (l *SlewRateLimiter) Reset(value float64) {
	l.value = value
}

// StepTowards moves current towards target by at most step.
func StepTowards(current, target, step float64) float64 {
	if math.Abs(current-target) <= step {
		return target
	}
	if target < current {
		return current - step
	}
	return current + step
}

// WrapAngle wraps an angle into [0, 2pi).
func WrapAngle(a float64) float64 {
	twoPi := 2 * math.Pi
	r := math.Mod(a, twoPi)
	if r < 0 {
		r += twoPi
	}
	if r >= twoPi {
		return 0
	}
	return r
}

// AngleDifference is the unsigned shortest-path distance between two
// angles, in [0, pi].
func AngleDifference(a, b float64) float64 {
	diff := math.Abs(WrapAngle(a) - WrapAngle(b))
	if diff > math.Pi {
		return 2*math.Pi - diff
	}
	return diff
}

// StepTowardsCircular moves current towards target by at most step,
// turning the shorter way around. The result is wrapped into [0, 2pi).
func StepTowardsCircular(current, target, step float64) float64 {
	current, target = WrapAngle(current), WrapAngle(target)
	diff := target - current
	if diff > math.Pi {
		diff -= 2 * math.Pi
	} else if diff < -math.Pi {
		diff += 2 * math.Pi
	}
	if math.Abs(diff) <= step {
		return target
	}
	return WrapAngle(current + math.Copysign(step, diff))
}
