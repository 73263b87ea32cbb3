package engine

import (
	"fmt"

	"github.com/inamate/canvas2d/internal/document"
	"github.com/inamate/canvas2d/internal/geom"
)

// BuildSceneGraph builds a query-ready scene graph from the document.
func BuildSceneGraph(doc *document.InDocument) (*SceneGraph, error) {
	sg := NewSceneGraph()

	rootObj, ok := doc.Objects[doc.Scene.Root]
	if !ok {
		return sg, nil
	}

	b := builder{doc: doc, sg: sg, visiting: make(map[string]bool)}
	root, err := b.buildNode(&rootObj, nil, geom.Identity())
	if err != nil {
		return nil, err
	}
	sg.Root = root
	return sg, nil
}

type builder struct {
	doc      *document.InDocument
	sg       *SceneGraph
	visiting map[string]bool
}

// buildNode recursively builds a SceneNode from a document ObjectNode.
// Invisible objects and their subtrees are left out.
func (b *builder) buildNode(obj *document.ObjectNode, parent *SceneNode, parentWorld geom.Matrix2D) (*SceneNode, error) {
	if !obj.Visible {
		return nil, nil
	}
	if b.visiting[obj.ID] {
		return nil, fmt.Errorf("object %s is its own ancestor", obj.ID)
	}
	b.visiting[obj.ID] = true
	defer delete(b.visiting, obj.ID)

	t := obj.Transform
	local := geom.FromTransform(t.X, t.Y, t.SX, t.SY, t.R, t.AX, t.AY)
	world := parentWorld.Multiply(local)
	inverse, invertible := world.Invert()

	node := &SceneNode{
		ID:             obj.ID,
		Type:           mapObjectType(obj.Type),
		LocalTransform: local,
		WorldTransform: world,
		inverse:        inverse,
		invertible:     invertible,
		Parent:         parent,
		Extent:         geom.B2Empty(),
		Bounds:         geom.B2Empty(),
	}

	switch obj.Type {
	case document.ObjectTypeBox:
		data, err := obj.DecodeBox()
		if err != nil {
			return nil, err
		}
		node.Extent = data.Extent()
		node.Fill = data.FillStyle
		node.Stroke = data.StrokeStyle
		node.LineWidth = data.LineWidth

	case document.ObjectTypeText:
		data, err := obj.DecodeText()
		if err != nil {
			return nil, err
		}
		node.Text = data.Text
		node.Font = data.Font
		node.Color = data.Color
		node.Extent = MeasureText(data.Text, data.Font)
	}

	if node.Drawable() {
		world.TransformBox(node.Extent, &node.Bounds)
	}

	b.sg.NodesById[obj.ID] = node

	for _, childID := range obj.Children {
		childObj, ok := b.doc.Objects[childID]
		if !ok {
			continue
		}

		child, err := b.buildNode(&childObj, node, world)
		if err != nil {
			return nil, err
		}
		if child == nil {
			continue
		}
		node.Children = append(node.Children, child)

		// Non-finite bounds carry no spatial answer.
		if hasBounds(child) {
			node.Bounds.Union(child.Bounds)
		}
	}

	return node, nil
}

// mapObjectType converts document ObjectType to scene graph type string.
func mapObjectType(objType document.ObjectType) string {
	switch objType {
	case document.ObjectTypeGroup:
		return "group"
	case document.ObjectTypeBox:
		return "box"
	case document.ObjectTypeText:
		return "text"
	default:
		return "unknown"
	}
}
