package geom

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// Box2 is an axis-aligned rectangle described by its minimum and maximum
// corners. The corners are values owned by the box.
//
// A box is empty when Max is less than Min on either axis. A box with zero
// width or height is not empty. The canonical empty box is
// (+Inf,+Inf)-(-Inf,-Inf), which composes with ExpandByPoint and Union
// through ordinary min/max arithmetic.
type Box2 struct {
	Min Vector2
	Max Vector2
}

// B2 returns a new Box2 with the given corners.
func B2(min, max Vector2) Box2 {
	return Box2{Min: min, Max: max}
}

// B2Empty returns the canonical empty box.
func B2Empty() Box2 {
	b := Box2{}
	b.MakeEmpty()
	return b
}

// B2FromFixed returns a new Box2 from a 26.6 fixed-point rectangle.
func B2FromFixed(rect fixed.Rectangle26_6) Box2 {
	return Box2{Min: Vector2FromFixed(rect.Min), Max: Vector2FromFixed(rect.Max)}
}

// Set copies min and max into the box.
func (b *Box2) Set(min, max Vector2) *Box2 {
	b.Min.Copy(min)
	b.Max.Copy(max)
	return b
}

// MakeEmpty resets the box to the empty sentinel.
func (b *Box2) MakeEmpty() *Box2 {
	b.Min.SetScalar(math.Inf(1))
	b.Max.SetScalar(math.Inf(-1))
	return b
}

// SetFromPoints sets the box to the smallest box enclosing points.
// With no points the box is left as the empty sentinel.
func (b *Box2) SetFromPoints(points []Vector2) *Box2 {
	b.MakeEmpty()
	for _, p := range points {
		b.ExpandByPoint(p)
	}
	return b
}

// SetFromCenterAndSize sets the box so it is centered on center with the
// given size.
func (b *Box2) SetFromCenterAndSize(center, size Vector2) *Box2 {
	half := size
	half.MultiplyScalar(0.5)
	b.Min.Copy(center).Sub(half)
	b.Max.Copy(center).Add(half)
	return b
}

// Clone returns a new, independent copy of b.
func (b *Box2) Clone() *Box2 {
	nb := &Box2{}
	return nb.Copy(*b)
}

// Copy sets b to the corners of o.
func (b *Box2) Copy(o Box2) *Box2 {
	b.Min.Copy(o.Min)
	b.Max.Copy(o.Max)
	return b
}

// IsEmpty reports whether the box is inverted on either axis.
func (b Box2) IsEmpty() bool {
	// Per axis rather than by area: two inverted axes give a positive area.
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y
}

// Center writes the center of the box into target and returns it.
// An empty box has center (0, 0).
func (b Box2) Center(target *Vector2) *Vector2 {
	if b.IsEmpty() {
		return target.Set(0, 0)
	}
	return target.AddVectors(b.Min, b.Max).MultiplyScalar(0.5)
}

// Size writes the extent of the box into target and returns it.
// An empty box has size (0, 0).
func (b Box2) Size(target *Vector2) *Vector2 {
	if b.IsEmpty() {
		return target.Set(0, 0)
	}
	return target.SubVectors(b.Max, b.Min)
}

// ExpandByPoint grows the box to include point.
func (b *Box2) ExpandByPoint(point Vector2) *Box2 {
	b.Min.Min(point)
	b.Max.Max(point)
	return b
}

// ExpandByVector pads the box by vector on each side.
func (b *Box2) ExpandByVector(vector Vector2) *Box2 {
	b.Min.Sub(vector)
	b.Max.Add(vector)
	return b
}

// ExpandByScalar pads the box by scalar on all four sides.
func (b *Box2) ExpandByScalar(scalar float64) *Box2 {
	b.Min.AddScalar(-scalar)
	b.Max.AddScalar(scalar)
	return b
}

// ContainsPoint reports whether point lies inside the box, boundary
// included.
func (b Box2) ContainsPoint(point Vector2) bool {
	if point.X < b.Min.X || point.X > b.Max.X ||
		point.Y < b.Min.Y || point.Y > b.Max.Y {
		return false
	}
	return true
}

// ContainsBox reports whether o lies entirely inside the box.
func (b Box2) ContainsBox(o Box2) bool {
	return b.Min.X <= o.Min.X && o.Max.X <= b.Max.X &&
		b.Min.Y <= o.Min.Y && o.Max.Y <= b.Max.Y
}

// Parameter writes the position of point relative to the box into target,
// 0 at Min and 1 at Max on each axis. The box must have a non-zero extent
// on both axes; a zero extent divides by zero.
func (b Box2) Parameter(point Vector2, target *Vector2) *Vector2 {
	assertExtent("Box2.Parameter", b)
	return target.Set(
		(point.X-b.Min.X)/(b.Max.X-b.Min.X),
		(point.Y-b.Min.Y)/(b.Max.Y-b.Min.Y),
	)
}

// IntersectsBox reports whether o overlaps the box. Touching edges count
// as overlap.
func (b Box2) IntersectsBox(o Box2) bool {
	// Four separating lines rule the overlap out.
	if o.Max.X < b.Min.X || o.Min.X > b.Max.X ||
		o.Max.Y < b.Min.Y || o.Min.Y > b.Max.Y {
		return false
	}
	return true
}

// ClampPoint writes point clamped into the box into target and returns it.
func (b Box2) ClampPoint(point Vector2, target *Vector2) *Vector2 {
	return target.Copy(point).Clamp(b.Min, b.Max)
}

// DistanceToPoint returns the distance from point to the nearest point of
// the box, 0 when point is inside.
func (b Box2) DistanceToPoint(point Vector2) float64 {
	var clamped Vector2
	b.ClampPoint(point, &clamped)
	return clamped.Sub(point).Length()
}

// Intersect shrinks the box to its overlap with o. Boxes that do not
// overlap leave an empty box; check IsEmpty afterwards.
func (b *Box2) Intersect(o Box2) *Box2 {
	b.Min.Max(o.Min)
	b.Max.Min(o.Max)
	return b
}

// Union grows the box to enclose o.
func (b *Box2) Union(o Box2) *Box2 {
	b.Min.Min(o.Min)
	b.Max.Max(o.Max)
	return b
}

// Translate moves the box by offset.
func (b *Box2) Translate(offset Vector2) *Box2 {
	b.Min.Add(offset)
	b.Max.Add(offset)
	return b
}

// Equals reports whether both corners are exactly equal.
func (b Box2) Equals(o Box2) bool {
	return o.Min.Equals(b.Min) && o.Max.Equals(b.Max)
}

// FromArray sets the box from [min.x, min.y, max.x, max.y] at offset.
func (b *Box2) FromArray(arr []float64, offset int) *Box2 {
	b.Min.FromArray(arr, offset)
	b.Max.FromArray(arr, offset+2)
	return b
}

// ToArray writes [min.x, min.y, max.x, max.y] into arr at offset and
// returns the slice. A nil or short arr is grown to fit.
func (b Box2) ToArray(arr []float64, offset int) []float64 {
	arr = b.Min.ToArray(arr, offset)
	return b.Max.ToArray(arr, offset+2)
}

// IsFinite reports whether all four coordinates are finite numbers.
func (b Box2) IsFinite() bool {
	return isFinite(b.Min.X) && isFinite(b.Min.Y) && isFinite(b.Max.X) && isFinite(b.Max.Y)
}

// ToFixed returns the box as a 26.6 fixed-point rectangle.
func (b Box2) ToFixed() fixed.Rectangle26_6 {
	return fixed.Rectangle26_6{Min: b.Min.ToFixed(), Max: b.Max.ToFixed()}
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
