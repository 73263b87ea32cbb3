package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixTransformPoint(t *testing.T) {
	p := Vec2(1, 2)
	Translate(10, 20).Multiply(Scale(2, 3)).TransformPoint(&p)
	assert.Equal(t, Vector2{12, 26}, p)
}

func TestMatrixInvert(t *testing.T) {
	m := FromTransform(10, 20, 2, 2, 30, 5, 5)
	inv, ok := m.Invert()
	require.True(t, ok)
	assert.True(t, m.Multiply(inv).IsIdentity())

	_, ok = Scale(0, 1).Invert()
	assert.False(t, ok)
}

func TestMatrixTransformBox(t *testing.T) {
	box := B2(Vec2(-1, -1), Vec2(1, 1))

	var out Box2
	Translate(5, 5).TransformBox(box, &out)
	assert.Equal(t, B2(Vec2(4, 4), Vec2(6, 6)), out)

	Rotate(math.Pi/4).TransformBox(box, &out)
	assert.InDelta(t, -math.Sqrt2, out.Min.X, 1e-12)
	assert.InDelta(t, math.Sqrt2, out.Max.Y, 1e-12)

	Translate(5, 5).TransformBox(B2Empty(), &out)
	assert.True(t, out.IsEmpty())
}

func TestFromTransformAnchor(t *testing.T) {
	// Rotating about the anchor leaves the anchor where the translation puts it.
	m := FromTransform(100, 50, 1, 1, 90, 10, 10)
	p := Vec2(10, 10)
	m.TransformPoint(&p)
	assert.InDelta(t, 110, p.X, 1e-9)
	assert.InDelta(t, 60, p.Y, 1e-9)
}
