//go:build geomdebug

package geom

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// captureWarnings routes the default slog logger into a buffer for the
// duration of the test.
func captureWarnings(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestClampWarnsOnInvertedBounds(t *testing.T) {
	buf := captureWarnings(t)

	v := Vec2(5, 5)
	v.Clamp(Vec2(10, 10), Vec2(0, 0))

	assert.Equal(t, Vec2(10, 10), v)
	assert.Contains(t, buf.String(), "bounds out of order")
	assert.Contains(t, buf.String(), "Vector2.Clamp")
}

func TestClampOrderedIsQuiet(t *testing.T) {
	buf := captureWarnings(t)

	v := Vec2(5, 5)
	v.Clamp(Vec2(0, 0), Vec2(1, 10))

	assert.Equal(t, Vec2(1, 5), v)
	assert.Empty(t, buf.String())
}

func TestParameterWarnsOnZeroExtent(t *testing.T) {
	buf := captureWarnings(t)

	var p Vector2
	B2(Vec2(0, 0), Vec2(0, 10)).Parameter(Vec2(0, 5), &p)

	assert.True(t, math.IsNaN(p.X))
	assert.Equal(t, 0.5, p.Y)
	assert.Contains(t, buf.String(), "zero extent box")
	assert.Contains(t, buf.String(), "Box2.Parameter")
}

func TestParameterWithExtentIsQuiet(t *testing.T) {
	buf := captureWarnings(t)

	var p Vector2
	B2(Vec2(0, 0), Vec2(10, 10)).Parameter(Vec2(5, 5), &p)

	assert.Equal(t, Vec2(0.5, 0.5), p)
	assert.Empty(t, buf.String())
}
