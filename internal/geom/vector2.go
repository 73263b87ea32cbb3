// Package geom provides the 2D vector and axis-aligned box types that the
// scene graph uses for layout, hit testing and spatial queries.
//
// Both types are mutable values. Methods with pointer receivers update the
// receiver in place and return it so calls can be chained:
//
//	c := geom.Vec2(0, 0)
//	c.AddVectors(b.Min, b.Max).MultiplyScalar(0.5)
//
// Assigning a Vector2 or Box2 copies it; nothing is shared between holders.
package geom

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// Vector2 is an ordered pair of float64 values used for points, sizes and
// directions. Infinities are valid values (Box2 uses them as sentinels).
type Vector2 struct {
	X float64
	Y float64
}

// Vec2 returns a new Vector2 with the given components.
func Vec2(x, y float64) Vector2 {
	return Vector2{X: x, Y: y}
}

// Vector2Scalar returns a new Vector2 with both components set to s.
func Vector2Scalar(s float64) Vector2 {
	return Vector2{X: s, Y: s}
}

// Vector2FromFixed returns a Vector2 from a 26.6 fixed-point point.
func Vector2FromFixed(p fixed.Point26_6) Vector2 {
	return Vector2{X: fixedToFloat(p.X), Y: fixedToFloat(p.Y)}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// Set sets both components.
func (v *Vector2) Set(x, y float64) *Vector2 {
	v.X = x
	v.Y = y
	return v
}

// SetScalar sets both components to s.
func (v *Vector2) SetScalar(s float64) *Vector2 {
	v.X = s
	v.Y = s
	return v
}

// Copy sets v to the value of o.
func (v *Vector2) Copy(o Vector2) *Vector2 {
	v.X = o.X
	v.Y = o.Y
	return v
}

// Clone returns a new, independent copy of v.
func (v *Vector2) Clone() *Vector2 {
	return &Vector2{X: v.X, Y: v.Y}
}

// Add adds o to v.
func (v *Vector2) Add(o Vector2) *Vector2 {
	v.X += o.X
	v.Y += o.Y
	return v
}

// AddScalar adds s to both components.
func (v *Vector2) AddScalar(s float64) *Vector2 {
	v.X += s
	v.Y += s
	return v
}

// AddVectors sets v to a + b. The previous value of v is not read.
func (v *Vector2) AddVectors(a, b Vector2) *Vector2 {
	v.X = a.X + b.X
	v.Y = a.Y + b.Y
	return v
}

// AddScaledVector adds o scaled by s to v.
func (v *Vector2) AddScaledVector(o Vector2, s float64) *Vector2 {
	v.X += o.X * s
	v.Y += o.Y * s
	return v
}

// Sub subtracts o from v.
func (v *Vector2) Sub(o Vector2) *Vector2 {
	v.X -= o.X
	v.Y -= o.Y
	return v
}

// SubScalar subtracts s from both components.
func (v *Vector2) SubScalar(s float64) *Vector2 {
	v.X -= s
	v.Y -= s
	return v
}

// SubVectors sets v to a - b. The previous value of v is not read.
func (v *Vector2) SubVectors(a, b Vector2) *Vector2 {
	v.X = a.X - b.X
	v.Y = a.Y - b.Y
	return v
}

// Multiply multiplies v by o componentwise.
func (v *Vector2) Multiply(o Vector2) *Vector2 {
	v.X *= o.X
	v.Y *= o.Y
	return v
}

// MultiplyScalar scales v by s.
func (v *Vector2) MultiplyScalar(s float64) *Vector2 {
	v.X *= s
	v.Y *= s
	return v
}

// Divide divides v by o componentwise.
func (v *Vector2) Divide(o Vector2) *Vector2 {
	v.X /= o.X
	v.Y /= o.Y
	return v
}

// DivideScalar scales v by 1/s. A zero s yields infinite or NaN components.
func (v *Vector2) DivideScalar(s float64) *Vector2 {
	return v.MultiplyScalar(1 / s)
}

// Min sets each component of v to the smaller of v and o.
func (v *Vector2) Min(o Vector2) *Vector2 {
	v.X = minf(v.X, o.X)
	v.Y = minf(v.Y, o.Y)
	return v
}

// Max sets each component of v to the larger of v and o.
func (v *Vector2) Max(o Vector2) *Vector2 {
	v.X = maxf(v.X, o.X)
	v.Y = maxf(v.Y, o.Y)
	return v
}

// Clamp limits each component of v to the range [lo, hi].
// lo must not exceed hi on either axis; this is not checked and the
// result is unspecified when it does.
func (v *Vector2) Clamp(lo, hi Vector2) *Vector2 {
	assertOrdered("Vector2.Clamp", lo, hi)
	v.X = maxf(lo.X, minf(hi.X, v.X))
	v.Y = maxf(lo.Y, minf(hi.Y, v.Y))
	return v
}

// ClampScalar limits both components to the range [lo, hi].
func (v *Vector2) ClampScalar(lo, hi float64) *Vector2 {
	v.X = maxf(lo, minf(hi, v.X))
	v.Y = maxf(lo, minf(hi, v.Y))
	return v
}

// ClampLength rescales v so its length lies in [lo, hi], keeping its
// direction. A zero vector stays zero.
func (v *Vector2) ClampLength(lo, hi float64) *Vector2 {
	length := v.Length()
	return v.DivideScalar(orOne(length)).MultiplyScalar(maxf(lo, minf(hi, length)))
}

// Floor rounds both components down.
func (v *Vector2) Floor() *Vector2 {
	v.X = math.Floor(v.X)
	v.Y = math.Floor(v.Y)
	return v
}

// Ceil rounds both components up.
func (v *Vector2) Ceil() *Vector2 {
	v.X = math.Ceil(v.X)
	v.Y = math.Ceil(v.Y)
	return v
}

// Round rounds both components to the nearest integer, halves toward +Inf.
func (v *Vector2) Round() *Vector2 {
	v.X = math.Floor(v.X + 0.5)
	v.Y = math.Floor(v.Y + 0.5)
	return v
}

// RoundToZero truncates both components toward zero.
func (v *Vector2) RoundToZero() *Vector2 {
	v.X = math.Trunc(v.X)
	v.Y = math.Trunc(v.Y)
	return v
}

// Negate flips the sign of both components.
func (v *Vector2) Negate() *Vector2 {
	v.X = -v.X
	v.Y = -v.Y
	return v
}

// Dot returns the dot product of v and o.
func (v Vector2) Dot(o Vector2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the z component of the 3D cross product of v and o.
func (v Vector2) Cross(o Vector2) float64 {
	return v.X*o.Y - v.Y*o.X
}

// LengthSq returns the squared length of v.
func (v Vector2) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Length returns the length of v.
func (v Vector2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// ManhattanLength returns |x| + |y|.
func (v Vector2) ManhattanLength() float64 {
	return math.Abs(v.X) + math.Abs(v.Y)
}

// Normalize scales v to unit length. A zero vector stays zero.
func (v *Vector2) Normalize() *Vector2 {
	return v.DivideScalar(orOne(v.Length()))
}

// Angle returns the angle of v relative to the positive x axis, in
// radians in [0, 2π).
func (v Vector2) Angle() float64 {
	angle := math.Atan2(v.Y, v.X)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return angle
}

// DistanceTo returns the distance between v and o.
func (v Vector2) DistanceTo(o Vector2) float64 {
	return math.Sqrt(v.DistanceToSquared(o))
}

// DistanceToSquared returns the squared distance between v and o.
func (v Vector2) DistanceToSquared(o Vector2) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	return dx*dx + dy*dy
}

// ManhattanDistanceTo returns the Manhattan distance between v and o.
func (v Vector2) ManhattanDistanceTo(o Vector2) float64 {
	return math.Abs(v.X-o.X) + math.Abs(v.Y-o.Y)
}

// SetLength scales v to the given length.
func (v *Vector2) SetLength(length float64) *Vector2 {
	return v.Normalize().MultiplyScalar(length)
}

// Lerp moves v toward o by alpha (0 keeps v, 1 yields o).
func (v *Vector2) Lerp(o Vector2, alpha float64) *Vector2 {
	v.X += (o.X - v.X) * alpha
	v.Y += (o.Y - v.Y) * alpha
	return v
}

// LerpVectors sets v to the interpolation between a and b by alpha.
// The previous value of v is not read.
func (v *Vector2) LerpVectors(a, b Vector2, alpha float64) *Vector2 {
	return v.SubVectors(b, a).MultiplyScalar(alpha).Add(a)
}

// Equals reports whether v and o are exactly equal.
func (v Vector2) Equals(o Vector2) bool {
	return v.X == o.X && v.Y == o.Y
}

// FromArray sets v from arr[offset] and arr[offset+1].
func (v *Vector2) FromArray(arr []float64, offset int) *Vector2 {
	v.X = arr[offset]
	v.Y = arr[offset+1]
	return v
}

// ToArray writes v into arr at offset and returns the slice. A nil or
// short arr is grown to fit.
func (v Vector2) ToArray(arr []float64, offset int) []float64 {
	arr = grow(arr, offset+2)
	arr[offset] = v.X
	arr[offset+1] = v.Y
	return arr
}

// RotateAround rotates v about center by angle radians.
func (v *Vector2) RotateAround(center Vector2, angle float64) *Vector2 {
	s, c := math.Sincos(angle)

	x := v.X - center.X
	y := v.Y - center.Y

	v.X = x*c - y*s + center.X
	v.Y = x*s + y*c + center.Y
	return v
}

// ToFixed returns v as a 26.6 fixed-point point.
func (v Vector2) ToFixed() fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(math.Round(v.X * 64)), Y: fixed.Int26_6(math.Round(v.Y * 64))}
}

// orOne returns x, or 1 when x is zero or NaN.
// minf and maxf return NaN whenever either operand is NaN. math.Min and
// math.Max return an infinite operand first.
func minf(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	return math.Min(a, b)
}

func maxf(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	return math.Max(a, b)
}

func orOne(x float64) float64 {
	if x == 0 || math.IsNaN(x) {
		return 1
	}
	return x
}

func grow(arr []float64, n int) []float64 {
	if len(arr) >= n {
		return arr
	}
	if cap(arr) >= n {
		return arr[:n]
	}
	out := make([]float64, n)
	copy(out, arr)
	return out
}
