package model

import "math"

// Vec3 is a position in world space. Y is the vertical axis.
// Value type, passed by value.
type Vec3 struct {
	X float32
	Y float32
	Z float32
}

// NewVec3 creates Vec3 with the given coordinates.
func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Length returns the full 3D magnitude.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// LengthXZ returns the horizontal magnitude, ignoring altitude.
func (v Vec3) LengthXZ() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Z*v.Z)))
}

// Distance returns the 3D distance to other.
func (v Vec3) Distance(other Vec3) float32 {
	return other.Sub(v).Length()
}

// DistanceXZ returns the horizontal distance to other.
func (v Vec3) DistanceXZ(other Vec3) float32 {
	return other.Sub(v).LengthXZ()
}

// MoveTowards returns the point reached by moving from v to target by at most maxStep.
// Never overshoots target.
func (v Vec3) MoveTowards(target Vec3, maxStep float32) Vec3 {
	delta := target.Sub(v)
	dist := delta.Length()
	if dist <= maxStep || dist == 0 {
		return target
	}
	return v.Add(delta.Scale(maxStep / dist))
}
