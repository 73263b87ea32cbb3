package engine

import (
	"math"

	"github.com/inamate/canvas2d/internal/geom"
)

// SceneGraph is the retained, query-ready form of a document.
type SceneGraph struct {
	Root      *SceneNode
	NodesById map[string]*SceneNode
}

// SceneNode is a resolved node. Transforms are composed and drawable
// payloads are decoded.
type SceneNode struct {
	ID   string
	Type string // "group", "box", "text"

	WorldTransform geom.Matrix2D // parent * local
	LocalTransform geom.Matrix2D

	// inverse maps world points into this node's local space.
	inverse    geom.Matrix2D
	invertible bool

	Parent   *SceneNode
	Children []*SceneNode

	// Extent is the drawable area in local space. Groups keep the empty
	// sentinel.
	Extent geom.Box2

	// Bounds is the world-space box enclosing the node and its children.
	// It is the empty sentinel when nothing below the node has an extent.
	Bounds geom.Box2

	// Box style; nil means not drawn.
	Fill      *string
	Stroke    *string
	LineWidth float64

	// Text payload.
	Text  string
	Font  string
	Color string
}

// NewSceneGraph creates an empty scene graph.
func NewSceneGraph() *SceneGraph {
	return &SceneGraph{
		NodesById: make(map[string]*SceneNode),
	}
}

// Drawable reports whether the node has an extent of its own.
func (n *SceneNode) Drawable() bool {
	return !n.Extent.IsEmpty() && n.Extent.IsFinite()
}

// IsInside reports whether the world point lies inside the node's own
// extent. The test runs in local space so rotated nodes are exact.
func (n *SceneNode) IsInside(point geom.Vector2) bool {
	if !n.Drawable() || !n.invertible {
		return false
	}
	local := point
	n.inverse.TransformPoint(&local)
	return n.Extent.ContainsPoint(local)
}

// HitTest returns the ID of the front-most drawable node containing the
// point, or empty string.
func HitTest(sg *SceneGraph, point geom.Vector2) string {
	if sg == nil || sg.Root == nil {
		return ""
	}
	if n := hitTestNode(sg.Root, point); n != nil {
		return n.ID
	}
	return ""
}

// hitTestNode tests children first, last child first, since they paint
// over their parent and earlier siblings.
func hitTestNode(node *SceneNode, point geom.Vector2) *SceneNode {
	if !node.Bounds.ContainsPoint(point) {
		return nil
	}

	for i := len(node.Children) - 1; i >= 0; i-- {
		if hit := hitTestNode(node.Children[i], point); hit != nil {
			return hit
		}
	}

	if node.IsInside(point) {
		return node
	}
	return nil
}

// SelectionBounds returns the box enclosing the bounds of the given
// objects. Unknown IDs and objects without bounds are skipped; the result
// is the empty sentinel when nothing remains.
func SelectionBounds(sg *SceneGraph, objectIDs []string) geom.Box2 {
	result := geom.B2Empty()
	if sg == nil {
		return result
	}

	for _, id := range objectIDs {
		node, ok := sg.NodesById[id]
		if !ok || !hasBounds(node) {
			continue
		}
		result.Union(node.Bounds)
	}
	return result
}

// Query returns the IDs of drawable nodes whose world extent overlaps
// region, in paint order (back to front).
func Query(sg *SceneGraph, region geom.Box2) []string {
	if sg == nil || sg.Root == nil || region.IsEmpty() {
		return nil
	}

	var ids []string
	walk(sg.Root, func(n *SceneNode) bool {
		if !n.Bounds.IntersectsBox(region) {
			return false
		}
		if n.Drawable() {
			var world geom.Box2
			n.WorldTransform.TransformBox(n.Extent, &world)
			if world.IntersectsBox(region) {
				ids = append(ids, n.ID)
			}
		}
		return true
	})
	return ids
}

// Nearest returns the drawable node whose world extent is closest to
// point. Distances are measured to the axis-aligned world box, so a point
// inside a node's box has distance 0. Ties go to the front-most node.
func Nearest(sg *SceneGraph, point geom.Vector2) (string, float64, bool) {
	if sg == nil || sg.Root == nil {
		return "", 0, false
	}

	bestID := ""
	best := math.Inf(1)
	walk(sg.Root, func(n *SceneNode) bool {
		if !n.Drawable() {
			return true
		}
		var world geom.Box2
		n.WorldTransform.TransformBox(n.Extent, &world)
		if d := world.DistanceToPoint(point); d <= best {
			best = d
			bestID = n.ID
		}
		return true
	})

	if bestID == "" {
		return "", 0, false
	}
	return bestID, best, true
}

// walk visits nodes depth first in paint order. Returning false from fn
// skips the node's children.
func walk(node *SceneNode, fn func(*SceneNode) bool) {
	if !fn(node) {
		return
	}
	for _, child := range node.Children {
		walk(child, fn)
	}
}

func hasBounds(n *SceneNode) bool {
	return !n.Bounds.IsEmpty() && n.Bounds.IsFinite()
}
