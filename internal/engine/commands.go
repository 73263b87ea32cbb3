package engine

import (
	"encoding/json"

	"github.com/inamate/canvas2d/internal/geom"
)

// BoundsResult is the JSON form of a box. Box, Center and Size are left
// zero when the box is empty, since JSON has no infinities.
type BoundsResult struct {
	Box    []float64  `json:"box,omitempty"` // [minX, minY, maxX, maxY]
	Center [2]float64 `json:"center"`
	Size   [2]float64 `json:"size"`
	Empty  bool       `json:"empty"`
}

// NewBoundsResult converts b, treating empty or non-finite boxes as empty.
func NewBoundsResult(b geom.Box2) BoundsResult {
	if b.IsEmpty() || !b.IsFinite() {
		return BoundsResult{Empty: true}
	}

	var center, size geom.Vector2
	b.Center(&center)
	b.Size(&size)
	return BoundsResult{
		Box:    b.ToArray(nil, 0),
		Center: [2]float64{center.X, center.Y},
		Size:   [2]float64{size.X, size.Y},
	}
}

// NearestResult is the answer to a nearest-object query.
type NearestResult struct {
	ObjectID string  `json:"objectId"`
	Distance float64 `json:"distance"`
}

// HoverChange describes the hovered object after a pointer move. Entered
// and Left are set only when the hovered object changed.
type HoverChange struct {
	Hovered string `json:"hovered"`
	Entered string `json:"entered,omitempty"`
	Left    string `json:"left,omitempty"`
}

// Changed reports whether the pointer entered or left an object.
func (h HoverChange) Changed() bool {
	return h.Entered != "" || h.Left != ""
}

// ToJSON serializes v, falling back to "null".
func ToJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}
