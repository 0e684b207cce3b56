package geometry

import "math"

// Rotation2D is a planar angle in radians, always normalized to (-pi, pi].
type Rotation2D float64

// RotationFromDegrees creates Rotation2D from degrees.
func RotationFromDegrees(d float64) Rotation2D {
	return Rotation2D(NormalizeRadians(d * math.Pi / 180.0))
}

// RotationFromRadians creates Rotation2D from radians.
func RotationFromRadians(r float64) Rotation2D {
	return Rotation2D(NormalizeRadians(r))
}

// RotationFromVector creates Rotation2D pointing along (x, y).
func RotationFromVector(x, y float64) Rotation2D {
	return Rotation2D(NormalizeRadians(math.Atan2(y, x)))
}

// Add adds a Rotation2D.
func (a Rotation2D) Add(a1 Rotation2D) Rotation2D {
	return Rotation2D(NormalizeRadians(float64(a) + float64(a1)))
}

// Sub subtracts a Rotation2D, the result is the shortest signed difference.
func (a Rotation2D) Sub(a1 Rotation2D) Rotation2D {
	return Rotation2D(NormalizeRadians(float64(a) - float64(a1)))
}

// AddRadians adds radians to current angle.
func (a Rotation2D) AddRadians(r float64) Rotation2D {
	return Rotation2D(NormalizeRadians(float64(a) + r))
}

// Neg returns the inverse rotation.
func (a Rotation2D) Neg() Rotation2D {
	return Rotation2D(NormalizeRadians(-float64(a)))
}

// Radians gets angle in radians.
func (a Rotation2D) Radians() float64 {
	return float64(a)
}

// Positive returns the angle in radians within [0, 2pi).
func (a Rotation2D) Positive() float64 {
	if a < 0 {
		return float64(a) + 2*math.Pi
	}
	return float64(a)
}

// Degrees gets angle in degrees.
func (a Rotation2D) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

// Cos wraps math.Cos.
func (a Rotation2D) Cos() float64 {
	return math.Cos(float64(a))
}

// Sin wraps math.Sin.
func (a Rotation2D) Sin() float64 {
	return math.Sin(float64(a))
}

// Project projects distance into X and Y.
func (a Rotation2D) Project(dist float64) Translation2D {
	return Translation2D{X: dist * a.Cos(), Y: dist * a.Sin()}
}

// DistanceTo returns the unsigned shortest-path distance in radians, in [0, pi].
func (a Rotation2D) DistanceTo(a1 Rotation2D) float64 {
	return math.Abs(float64(a1.Sub(a)))
}

// NormalizeRadians wraps r into (-pi, pi].
func NormalizeRadians(r float64) float64 {
	if r >= 2*math.Pi || r <= -2*math.Pi {
		r = math.Remainder(r, 2*math.Pi)
	}
	if r > math.Pi {
		r -= 2 * math.Pi
	} else if r <= -math.Pi {
		r += 2 * math.Pi
	}
	return r
}
