package shaper

import (
	"math"
	"time"
)

const (
	// below this magnitude the translation is considered stopped.
	stoppedMagnitude = 1e-4
	// direction rate used while stopped, effectively instantaneous.
	stoppedDirectionRate = 500.0

	sameDirectionBand = 0.45 * math.Pi
	reversalBand      = 0.85 * math.Pi
)

// Output is a shaped operator command, all components in [-1, 1].
type Output struct {
	X, Y, Rot float64
}

// PolarLimiter smooths operator input by rate limiting the translation
// in polar form and the rotation independently.
type PolarLimiter struct {
	conf      Config
	direction float64
	magnitude *SlewRateLimiter
	rotation  *SlewRateLimiter
	prevTime  time.Time
}

// NewPolarLimiter creates a PolarLimiter at rest.
func NewPolarLimiter(conf Config) *PolarLimiter {
	return &PolarLimiter{
		conf:      conf,
		magnitude: NewSlewRateLimiter(conf.MagnitudeSlewRate, 0),
		rotation:  NewSlewRateLimiter(conf.RotationSlewRate, 0),
	}
}

// Shape processes the sample taken at now, the elapsed time is measured
// from the previous call.
func (p *PolarLimiter) Shape(x, y, rot float64, now time.Time) Output {
	dt := p.conf.Period
	if !p.prevTime.IsZero() {
		if dt = now.Sub(p.prevTime); dt < 0 {
			dt = 0
		}
	}
	p.prevTime = now
	return p.Step(x, y, rot, dt)
}

// Step processes a sample with an explicit elapsed time.
func (p *PolarLimiter) Step(x, y, rot float64, dt time.Duration) Output {
	inputMag := math.Hypot(x, y)
	inputDir := p.direction
	// a zero input has no direction of its own.
	if inputMag > 0 {
		inputDir = math.Atan2(y, x)
	}

	currentMag := p.magnitude.Value()
	dirRate := stoppedDirectionRate
	if currentMag > stoppedMagnitude {
		dirRate = math.Abs(p.conf.DirectionSlewRate / currentMag)
	}
	dirStep := dirRate * dt.Seconds()

	switch diff := AngleDifference(inputDir, p.direction); {
	case diff < sameDirectionBand:
		p.direction = StepTowardsCircular(p.direction, inputDir, dirStep)
		p.magnitude.Step(inputMag, dt)
	case diff > reversalBand:
		if currentMag > stoppedMagnitude {
			p.magnitude.Step(0, dt)
		} else {
			p.direction = WrapAngle(p.direction + math.Pi)
			p.magnitude.Step(inputMag, dt)
		}
	default:
		p.direction = StepTowardsCircular(p.direction, inputDir, dirStep)
		p.magnitude.Step(0, dt)
	}

	mag := p.magnitude.Value()
	return Output{
		X:   mag * math.Cos(p.direction),
		Y:   mag * math.Sin(p.direction),
		Rot: p.rotation.Step(rot, dt),
	}
}

// Magnitude returns the current translation magnitude.
func (p *PolarLimiter) Magnitude() float64 {
	return p.magnitude.Value()
}

// Direction returns the current translation direction in [0, 2pi).
func (p *PolarLimiter) Direction() float64 {
	return p.direction
}

// Rotation returns the current rotation command.
func (p *PolarLimiter) Rotation() float64 {
	return p.rotation.Value()
}

// Reset brings the limiter to rest and forgets the previous sample time.
func (p *PolarLimiter) Reset() {
	p.direction = 0
	p.magnitude.Reset(0)
	p.rotation.Reset(0)
	p.prevTime = time.Time{}
}
