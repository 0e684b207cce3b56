package kinematics

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/sonic-howl/frc2025/pkg/geometry"
)

var (
	// ErrModuleCount is returned when the number of modules or states
	// doesn't match the geometry.
	ErrModuleCount = errors.New("module count mismatch")
	// ErrDegenerateGeometry is returned when the module layout cannot
	// be inverted.
	ErrDegenerateGeometry = errors.New("degenerate module geometry")
	// ErrNotRobotRelative is returned when a field-relative velocity
	// reaches the module transform.
	ErrNotRobotRelative = errors.New("velocity must be robot relative")
)

const (
	minModules       = 2
	minModuleSpacing = 1e-3
	maxCondition     = 1e6
	stoppedSpeed     = 1e-9
)

// Kinematics maps chassis velocities to module states and back.
// Besides the fixed geometry it remembers the last commanded wheel
// angles so a stopped robot keeps its wheels where they were.
type Kinematics struct {
	modules []ModuleGeometry
	center  geometry.Translation2D
	qr      mat.QR
	held    []geometry.Rotation2D
}

// New validates the module layout and prepares the inverse transform.
func New(modules []ModuleGeometry) (*Kinematics, error) {
	if len(modules) < minModules {
		return nil, errors.Wrapf(ErrModuleCount, "at least %d modules required, got %d", minModules, len(modules))
	}
	for i, m := range modules {
		if math.IsNaN(m.Offset.X) || math.IsNaN(m.Offset.Y) ||
			math.IsInf(m.Offset.X, 0) || math.IsInf(m.Offset.Y, 0) {
			return nil, errors.Wrapf(ErrDegenerateGeometry, "module %d (%s) offset is not finite", i, m.Name)
		}
		for j := 0; j < i; j++ {
			if m.Offset.DistanceTo(modules[j].Offset) < minModuleSpacing {
				return nil, errors.Wrapf(ErrDegenerateGeometry, "modules %s and %s share a location", modules[j].Name, m.Name)
			}
		}
	}
	a := moduleMatrix(modules)
	if cond := mat.Cond(a, 2); math.IsInf(cond, 0) || math.IsNaN(cond) || cond > maxCondition {
		return nil, errors.Wrapf(ErrDegenerateGeometry, "condition number %g", cond)
	}
	k := &Kinematics{
		modules: append([]ModuleGeometry(nil), modules...),
		held:    make([]geometry.Rotation2D, len(modules)),
	}
	k.qr.Factorize(a)
	return k, nil
}

// moduleMatrix builds the 2N x 3 matrix mapping (vx, vy, omega) to the
// stacked wheel velocity components, rotating about the robot center.
func moduleMatrix(modules []ModuleGeometry) *mat.Dense {
	a := mat.NewDense(len(modules)*2, 3, nil)
	for i, m := range modules {
		a.SetRow(i*2, []float64{1, 0, -m.Offset.Y})
		a.SetRow(i*2+1, []float64{0, 1, m.Offset.X})
	}
	return a
}

// Modules returns the geometry.
func (k *Kinematics) Modules() []ModuleGeometry {
	return k.modules
}

// NumModules returns the number of modules.
func (k *Kinematics) NumModules() int {
	return len(k.modules)
}

// SetCenterOfRotation changes the default pivot used by ToModuleStates.
func (k *Kinematics) SetCenterOfRotation(c geometry.Translation2D) {
	k.center = c
}

// CenterOfRotation returns the default pivot.
func (k *Kinematics) CenterOfRotation() geometry.Translation2D {
	return k.center
}

// ResetHeadings overrides the held wheel angles.
func (k *Kinematics) ResetHeadings(angles ...geometry.Rotation2D) error {
	if len(angles) != len(k.held) {
		return errors.Wrapf(ErrModuleCount, "%d angles for %d modules", len(angles), len(k.held))
	}
	copy(k.held, angles)
	return nil
}

// ToModuleStates computes the wheel targets for a robot-relative velocity
// rotating about the configured center of rotation.
func (k *Kinematics) ToModuleStates(v ChassisVelocity) ([]ModuleState, error) {
	return k.ToModuleStatesAround(v, k.center)
}

// ToModuleStatesAround is ToModuleStates with an explicit pivot.
func (k *Kinematics) ToModuleStatesAround(v ChassisVelocity, center geometry.Translation2D) ([]ModuleState, error) {
	if v.Frame != RobotRelative {
		return nil, ErrNotRobotRelative
	}
	states := make([]ModuleState, len(k.modules))
	if v.IsZero() {
		for i := range states {
			states[i].Angle = k.held[i]
		}
		return states, nil
	}
	for i, m := range k.modules {
		r := m.Offset.Sub(center)
		wheel := geometry.Translation2D{X: v.VX - v.Omega*r.Y, Y: v.VY + v.Omega*r.X}
		states[i].Speed = wheel.Norm()
		if states[i].Speed > stoppedSpeed {
			states[i].Angle = wheel.Angle()
		} else {
			states[i].Speed = 0
			states[i].Angle = k.held[i]
		}
		k.held[i] = states[i].Angle
	}
	return states, nil
}

// ToChassisVelocity is the least-squares inverse of ToModuleStates about
// the robot center, the result is robot relative.
func (k *Kinematics) ToChassisVelocity(states []ModuleState) (ChassisVelocity, error) {
	if len(states) != len(k.modules) {
		return ChassisVelocity{}, errors.Wrapf(ErrModuleCount, "%d states for %d modules", len(states), len(k.modules))
	}
	b := mat.NewVecDense(len(states)*2, nil)
	for i, s := range states {
		v := s.Velocity()
		b.SetVec(i*2, v.X)
		b.SetVec(i*2+1, v.Y)
	}
	var x mat.VecDense
	if err := k.qr.SolveVecTo(&x, false, b); err != nil {
		return ChassisVelocity{}, errors.Wrap(err, "solve chassis velocity")
	}
	return Robot(x.AtVec(0), x.AtVec(1), x.AtVec(2)), nil
}

// ToTwist converts the wheel travel between two samples into the robot
// motion over that interval, expressed in the starting robot frame.
func (k *Kinematics) ToTwist(start, end []ModulePosition) (geometry.Twist2D, error) {
	if len(start) != len(k.modules) || len(end) != len(k.modules) {
		return geometry.Twist2D{}, errors.Wrapf(ErrModuleCount, "%d/%d positions for %d modules", len(start), len(end), len(k.modules))
	}
	deltas := make([]ModuleState, len(end))
	for i := range end {
		deltas[i] = ModuleState{Speed: end[i].Distance - start[i].Distance, Angle: end[i].Angle}
	}
	v, err := k.ToChassisVelocity(deltas)
	if err != nil {
		return geometry.Twist2D{}, err
	}
	return geometry.Twist2D{DX: v.VX, DY: v.VY, DTheta: v.Omega}, nil
}
