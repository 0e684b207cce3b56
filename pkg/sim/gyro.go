package sim

import (
	"sync"

	"github.com/sonic-howl/frc2025/pkg/geometry"
)

// Gyro is a simulated heading sensor following the simulated chassis.
type Gyro struct {
	lock   sync.Mutex
	actual geometry.Rotation2D
	zero   geometry.Rotation2D
	rate   float64
	fault  error
}

// Heading implements drive.HeadingSensor.
func (g *Gyro) Heading() (geometry.Rotation2D, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.fault != nil {
		return 0, g.fault
	}
	return g.actual.Sub(g.zero), nil
}

// Rate implements drive.HeadingSensor.
func (g *Gyro) Rate() float64 {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.rate
}

// Reset implements drive.HeadingSensor.
func (g *Gyro) Reset() {
	g.lock.Lock()
	g.zero = g.actual
	g.lock.Unlock()
}

// SetFault makes Heading fail with err until cleared with nil.
func (g *Gyro) SetFault(err error) {
	g.lock.Lock()
	g.fault = err
	g.lock.Unlock()
}

// Set updates the true chassis heading and turn rate.
func (g *Gyro) Set(heading geometry.Rotation2D, rate float64) {
	g.lock.Lock()
	g.actual, g.rate = heading, rate
	g.lock.Unlock()
}
