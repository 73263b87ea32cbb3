package document

import (
	"encoding/json"
	"fmt"

	"github.com/inamate/canvas2d/internal/geom"
)

type InDocument struct {
	Scene   Scene                 `json:"scene"`
	Objects map[string]ObjectNode `json:"objects"`
}

type Scene struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background"`
	Root       string `json:"root"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

type ObjectType string

const (
	ObjectTypeGroup ObjectType = "Group"
	ObjectTypeBox   ObjectType = "Box"
	ObjectTypeText  ObjectType = "Text"
)

type Transform struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	SX float64 `json:"sx"`
	SY float64 `json:"sy"`
	R  float64 `json:"r"`
	AX float64 `json:"ax"`
	AY float64 `json:"ay"`
}

// IdentityTransform is a transform with unit scale and no offset.
func IdentityTransform() Transform {
	return Transform{SX: 1, SY: 1}
}

type ObjectNode struct {
	ID        string          `json:"id"`
	Type      ObjectType      `json:"type"`
	Parent    *string         `json:"parent"`
	Children  []string        `json:"children"`
	Transform Transform       `json:"transform"`
	Visible   bool            `json:"visible"`
	Data      json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes an object, treating an absent "visible" as true
// and absent scale factors as 1.
func (o *ObjectNode) UnmarshalJSON(data []byte) error {
	type plain ObjectNode
	p := plain{Visible: true, Transform: IdentityTransform()}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = ObjectNode(p)
	return nil
}

// BoxData is the payload of a Box object. The extent is stored as
// [min.x, min.y, max.x, max.y]. A nil style is not drawn.
type BoxData struct {
	Box         []float64 `json:"box"`
	StrokeStyle *string   `json:"strokeStyle"`
	LineWidth   float64   `json:"lineWidth"`
	FillStyle   *string   `json:"fillStyle"`
}

// TextData is the payload of a Text object.
type TextData struct {
	Text  string `json:"text"`
	Font  string `json:"font"`
	Color string `json:"color"`
}

const (
	DefaultStrokeStyle = "#000000"
	DefaultFillStyle   = "#FFFFFF"
	DefaultLineWidth   = 1.0
	DefaultFont        = "16px Arial"
	DefaultTextColor   = "#000000"
)

// DefaultBox is the extent given to a Box object that does not set one.
func DefaultBox() geom.Box2 {
	return geom.B2(geom.Vec2(-50, -50), geom.Vec2(50, 50))
}

// NewBoxData returns box data for extent with the default styles.
func NewBoxData(extent geom.Box2) BoxData {
	stroke, fill := DefaultStrokeStyle, DefaultFillStyle
	return BoxData{
		Box:         extent.ToArray(nil, 0),
		StrokeStyle: &stroke,
		LineWidth:   DefaultLineWidth,
		FillStyle:   &fill,
	}
}

// Extent returns the box extent, or DefaultBox when none is stored.
func (d BoxData) Extent() geom.Box2 {
	if len(d.Box) < 4 {
		return DefaultBox()
	}
	var b geom.Box2
	b.FromArray(d.Box, 0)
	return b
}

// DecodeBox parses the data of a Box object, filling in defaults for
// fields that are absent.
func (o ObjectNode) DecodeBox() (BoxData, error) {
	d := NewBoxData(DefaultBox())
	d.Box = nil
	if len(o.Data) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(o.Data, &d); err != nil {
		return BoxData{}, fmt.Errorf("decode box %s: %w", o.ID, err)
	}
	if d.Box != nil && len(d.Box) != 4 {
		return BoxData{}, fmt.Errorf("decode box %s: want 4 coordinates, got %d", o.ID, len(d.Box))
	}
	return d, nil
}

// DecodeText parses the data of a Text object, filling in defaults for
// fields that are absent.
func (o ObjectNode) DecodeText() (TextData, error) {
	d := TextData{Font: DefaultFont, Color: DefaultTextColor}
	if len(o.Data) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(o.Data, &d); err != nil {
		return TextData{}, fmt.Errorf("decode text %s: %w", o.ID, err)
	}
	return d, nil
}

// NewEmptyDocument creates a document holding only a root group.
func NewEmptyDocument(sceneID, sceneName, rootID string) *InDocument {
	return &InDocument{
		Scene: Scene{
			ID:         sceneID,
			Name:       sceneName,
			Width:      1280,
			Height:     720,
			Background: "#1a1a2e",
			Root:       rootID,
		},
		Objects: map[string]ObjectNode{
			rootID: {
				ID:        rootID,
				Type:      ObjectTypeGroup,
				Parent:    nil,
				Children:  []string{},
				Transform: IdentityTransform(),
				Visible:   true,
				Data:      json.RawMessage(`{}`),
			},
		},
	}
}

// Validate checks that the root exists and that every child reference
// resolves to an object whose parent points back.
func (d *InDocument) Validate() error {
	if _, ok := d.Objects[d.Scene.Root]; !ok {
		return fmt.Errorf("root object not found: %s", d.Scene.Root)
	}
	for id, obj := range d.Objects {
		if obj.ID != id {
			return fmt.Errorf("object key %s does not match id %s", id, obj.ID)
		}
		for _, childID := range obj.Children {
			child, ok := d.Objects[childID]
			if !ok {
				return fmt.Errorf("object %s: child not found: %s", id, childID)
			}
			if child.Parent == nil || *child.Parent != id {
				return fmt.Errorf("object %s: child %s has a different parent", id, childID)
			}
		}
	}
	return nil
}
