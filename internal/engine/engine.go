package engine

import (
	"encoding/json"
	"fmt"

	"github.com/inamate/canvas2d/internal/document"
	"github.com/inamate/canvas2d/internal/geom"
)

// Engine owns a document, its scene graph and the selection, and answers
// spatial queries over them. It is not safe for concurrent use.
type Engine struct {
	doc        *document.InDocument
	sceneGraph *SceneGraph

	// Selection state (backend owns this)
	selection []string

	// Object under the pointer after the last PointerMove.
	hovered string
}

// NewEngine creates a new engine instance with an empty scene.
func NewEngine() *Engine {
	return &Engine{
		sceneGraph: NewSceneGraph(),
	}
}

// LoadDocument loads a document from JSON.
func (e *Engine) LoadDocument(jsonData []byte) error {
	var doc document.InDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return e.SetDocument(&doc)
}

// SetDocument validates doc and rebuilds the scene graph from it. On error
// the previous document stays loaded.
func (e *Engine) SetDocument(doc *document.InDocument) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("validate document: %w", err)
	}
	sg, err := BuildSceneGraph(doc)
	if err != nil {
		return fmt.Errorf("build scene graph: %w", err)
	}

	e.doc = doc
	e.sceneGraph = sg
	e.selection = nil
	e.hovered = ""
	return nil
}

// LoadSampleDocument loads the built-in sample document.
func (e *Engine) LoadSampleDocument(sceneID string) error {
	return e.SetDocument(document.NewSampleDocument(sceneID))
}

// Document returns the loaded document, or nil.
func (e *Engine) Document() *document.InDocument {
	return e.doc
}

// SceneGraph returns the current scene graph.
func (e *Engine) SceneGraph() *SceneGraph {
	return e.sceneGraph
}

// SetSelection sets the selected object IDs.
func (e *Engine) SetSelection(ids []string) {
	e.selection = ids
}

// Selection returns the selected object IDs.
func (e *Engine) Selection() []string {
	return e.selection
}

// HitTest returns the ID of the topmost object at (x, y), or empty string.
func (e *Engine) HitTest(x, y float64) string {
	return HitTest(e.sceneGraph, geom.Vec2(x, y))
}

// SelectionBounds returns the bounds of the current selection.
func (e *Engine) SelectionBounds() BoundsResult {
	return NewBoundsResult(SelectionBounds(e.sceneGraph, e.selection))
}

// Bounds returns the bounds of the given objects.
func (e *Engine) Bounds(ids []string) BoundsResult {
	return NewBoundsResult(SelectionBounds(e.sceneGraph, ids))
}

// Query returns the IDs of objects overlapping region, back to front.
func (e *Engine) Query(region geom.Box2) []string {
	return Query(e.sceneGraph, region)
}

// Nearest returns the object closest to (x, y).
func (e *Engine) Nearest(x, y float64) (NearestResult, bool) {
	id, dist, ok := Nearest(e.sceneGraph, geom.Vec2(x, y))
	if !ok {
		return NearestResult{}, false
	}
	return NearestResult{ObjectID: id, Distance: dist}, true
}

// PointerMove updates the hovered object for a pointer at (x, y) and
// reports the transition, if any.
func (e *Engine) PointerMove(x, y float64) HoverChange {
	hit := e.HitTest(x, y)
	change := HoverChange{Hovered: hit}
	if hit != e.hovered {
		change.Left = e.hovered
		change.Entered = hit
		e.hovered = hit
	}
	return change
}

// Hovered returns the object under the pointer after the last PointerMove.
func (e *Engine) Hovered() string {
	return e.hovered
}
