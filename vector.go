package inview

import "math"

// Vector is a cartesian 3-vector, in km or km/s depending on use.
type Vector struct {
	X, Y, Z float64
}

func (v Vector) Add(w Vector) Vector { return Vector{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

func (v Vector) Sub(w Vector) Vector { return Vector{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

func (v Vector) Scale(k float64) Vector { return Vector{v.X * k, v.Y * k, v.Z * k} }

func (v Vector) Dot(w Vector) float64 { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }

// Norm returns the euclidean length of v.
func (v Vector) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Angle returns the angle between v and w in radians. The cosine is clamped
// to [-1, 1] so rounding never yields NaN.
func (v Vector) Angle(w Vector) float64 {
	return math.Acos(clamp(v.Dot(w)/(v.Norm()*w.Norm()), -1, 1))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
