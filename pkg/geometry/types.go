package geometry

import "math"

// Translation2D is a position or displacement in meters.
type Translation2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pose2D is a position with a heading on the field.
type Pose2D struct {
	Translation2D
	Heading Rotation2D `json:"heading"`
}

// Twist2D is a displacement along an arc, expressed in the frame
// of the starting pose.
type Twist2D struct {
	DX, DY, DTheta float64
}

// Add is a helper to add Translation2D.
func (p Translation2D) Add(p1 Translation2D) Translation2D {
	return Translation2D{X: p.X + p1.X, Y: p.Y + p1.Y}
}

// Sub subtracts p1 from p.
func (p Translation2D) Sub(p1 Translation2D) Translation2D {
	return Translation2D{X: p.X - p1.X, Y: p.Y - p1.Y}
}

// Scale multiplies both components.
func (p Translation2D) Scale(s float64) Translation2D {
	return Translation2D{X: p.X * s, Y: p.Y * s}
}

// RotateBy rotates the vector counter-clockwise around the origin.
func (p Translation2D) RotateBy(a Rotation2D) Translation2D {
	c, s := a.Cos(), a.Sin()
	return Translation2D{X: p.X*c - p.Y*s, Y: p.X*s + p.Y*c}
}

// Norm is the euclidean length.
func (p Translation2D) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Angle is the direction of the vector.
func (p Translation2D) Angle() Rotation2D {
	return RotationFromVector(p.X, p.Y)
}

// DistanceTo is the euclidean distance between two points.
func (p Translation2D) DistanceTo(p1 Translation2D) float64 {
	return p1.Sub(p).Norm()
}

// NewPose2D creates a pose.
func NewPose2D(x, y float64, heading Rotation2D) Pose2D {
	return Pose2D{Translation2D: Translation2D{X: x, Y: y}, Heading: heading}
}

// Plus applies a displacement expressed in this pose's frame.
func (p Pose2D) Plus(d Pose2D) Pose2D {
	return Pose2D{
		Translation2D: p.Translation2D.Add(d.Translation2D.RotateBy(p.Heading)),
		Heading:       p.Heading.Add(d.Heading),
	}
}

// RelativeTo expresses p in the frame of origin.
func (p Pose2D) RelativeTo(origin Pose2D) Pose2D {
	return Pose2D{
		Translation2D: p.Translation2D.Sub(origin.Translation2D).RotateBy(origin.Heading.Neg()),
		Heading:       p.Heading.Sub(origin.Heading),
	}
}

// Exp integrates a twist starting at p, assuming constant curvature.
func (p Pose2D) Exp(t Twist2D) Pose2D {
	s, c := math.Sin(t.DTheta), math.Cos(t.DTheta)
	var sinTerm, cosTerm float64
	if math.Abs(t.DTheta) < 1e-9 {
		sinTerm = 1 - t.DTheta*t.DTheta/6
		cosTerm = t.DTheta / 2
	} else {
		sinTerm = s / t.DTheta
		cosTerm = (1 - c) / t.DTheta
	}
	return p.Plus(Pose2D{
		Translation2D: Translation2D{
			X: t.DX*sinTerm - t.DY*cosTerm,
			Y: t.DX*cosTerm + t.DY*sinTerm,
		},
		Heading: RotationFromRadians(t.DTheta),
	})
}

// Log is the inverse of Exp: the twist that moves p onto end.
func (p Pose2D) Log(end Pose2D) Twist2D {
	rel := end.RelativeTo(p)
	dtheta := rel.Heading.Radians()
	half := dtheta / 2
	cosMinusOne := math.Cos(dtheta) - 1
	var h float64
	if math.Abs(cosMinusOne) < 1e-9 {
		h = 1 - dtheta*dtheta/12
	} else {
		h = -(half * math.Sin(dtheta)) / cosMinusOne
	}
	return Twist2D{
		DX:     rel.X*h + rel.Y*half,
		DY:     -rel.X*half + rel.Y*h,
		DTheta: dtheta,
	}
}

// Interpolate moves from p towards end by fraction f in [0, 1].
func (p Pose2D) Interpolate(end Pose2D, f float64) Pose2D {
	if f <= 0 {
		return p
	}
	if f >= 1 {
		return end
	}
	t := p.Log(end)
	return p.Exp(Twist2D{DX: t.DX * f, DY: t.DY * f, DTheta: t.DTheta * f})
}

// Scale multiplies every component of the twist.
func (t Twist2D) Scale(s float64) Twist2D {
	return Twist2D{DX: t.DX * s, DY: t.DY * s, DTheta: t.DTheta * s}
}
