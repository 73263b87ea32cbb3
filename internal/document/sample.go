package document

import (
	"encoding/json"
	"time"

	"github.com/inamate/canvas2d/internal/geom"
	"github.com/inamate/canvas2d/internal/typeid"
)

// NewSampleDocument builds a small scene: a default box, a wide box inside a
// rotated group, and a caption.
func NewSampleDocument(sceneID string) *InDocument {
	now := time.Now().UTC().Format(time.RFC3339)

	rootID := typeid.NewObjectID()
	boxID := typeid.NewObjectID()
	groupID := typeid.NewObjectID()
	wideID := typeid.NewObjectID()
	captionID := typeid.NewObjectID()

	doc := NewEmptyDocument(sceneID, "Sample", rootID)
	doc.Scene.CreatedAt = now
	doc.Scene.UpdatedAt = now

	root := doc.Objects[rootID]
	root.Children = []string{boxID, groupID, captionID}
	doc.Objects[rootID] = root

	doc.Objects[boxID] = ObjectNode{
		ID:        boxID,
		Type:      ObjectTypeBox,
		Parent:    &rootID,
		Children:  []string{},
		Transform: Transform{X: 200, Y: 200, SX: 1, SY: 1},
		Visible:   true,
		Data:      mustJSON(NewBoxData(DefaultBox())),
	}
	doc.Objects[groupID] = ObjectNode{
		ID:        groupID,
		Type:      ObjectTypeGroup,
		Parent:    &rootID,
		Children:  []string{wideID},
		Transform: Transform{X: 640, Y: 360, SX: 1, SY: 1, R: 30},
		Visible:   true,
		Data:      json.RawMessage(`{}`),
	}
	doc.Objects[wideID] = ObjectNode{
		ID:        wideID,
		Type:      ObjectTypeBox,
		Parent:    &groupID,
		Children:  []string{},
		Transform: IdentityTransform(),
		Visible:   true,
		Data:      mustJSON(NewBoxData(geom.B2(geom.Vec2(-150, -40), geom.Vec2(150, 40)))),
	}
	doc.Objects[captionID] = ObjectNode{
		ID:        captionID,
		Type:      ObjectTypeText,
		Parent:    &rootID,
		Children:  []string{},
		Transform: Transform{X: 640, Y: 80, SX: 1, SY: 1},
		Visible:   true,
		Data:      mustJSON(TextData{Text: "canvas2d", Font: DefaultFont, Color: DefaultTextColor}),
	}

	return doc
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
