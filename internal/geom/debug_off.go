//go:build !geomdebug

package geom

func assertOrdered(string, Vector2, Vector2) {}

func assertExtent(string, Box2) {}
