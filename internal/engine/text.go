package engine

import (
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/inamate/canvas2d/internal/geom"
)

const defaultFontSize = 16.0

// MeasureText returns the local extent of text drawn centered on the
// origin with its baseline at y = 0. Glyph metrics come from the 7x13
// basic face scaled to the pixel size named in fontSpec ("16px Arial").
// Empty text has no extent.
func MeasureText(text, fontSpec string) geom.Box2 {
	if text == "" {
		return geom.B2Empty()
	}

	face := basicfont.Face7x13
	bounds, advance := font.BoundString(face, text)

	extent := geom.B2FromFixed(bounds)
	extent.Translate(geom.Vec2(-float64(advance)/128, 0))

	scale := fontSize(fontSpec) / float64(face.Height)
	extent.Min.MultiplyScalar(scale)
	extent.Max.MultiplyScalar(scale)
	return extent
}

// fontSize extracts the pixel size from a CSS-like font string.
func fontSize(css string) float64 {
	for _, field := range strings.Fields(css) {
		px, ok := strings.CutSuffix(field, "px")
		if !ok {
			continue
		}
		if size, err := strconv.ParseFloat(px, 64); err == nil && size > 0 {
			return size
		}
	}
	return defaultFontSize
}
