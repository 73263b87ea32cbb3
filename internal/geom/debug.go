//go:build geomdebug

package geom

import "log/slog"

// assertOrdered reports a Clamp call whose lower bound exceeds the upper
// bound. The result of the call is unchanged.
func assertOrdered(op string, lo, hi Vector2) {
	if lo.X > hi.X || lo.Y > hi.Y {
		slog.Warn("geom: bounds out of order", "op", op, "lo", lo, "hi", hi)
	}
}

// assertExtent reports a box with zero extent on an axis it divides by.
func assertExtent(op string, b Box2) {
	if b.Max.X == b.Min.X || b.Max.Y == b.Min.Y {
		slog.Warn("geom: zero extent box", "op", op, "min", b.Min, "max", b.Max)
	}
}
