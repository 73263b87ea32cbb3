package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/canvas2d/internal/geom"
)

func TestDecodeBoxDefaults(t *testing.T) {
	obj := ObjectNode{ID: "obj_a", Type: ObjectTypeBox, Data: json.RawMessage(`{}`)}
	d, err := obj.DecodeBox()
	require.NoError(t, err)

	assert.True(t, d.Extent().Equals(DefaultBox()))
	require.NotNil(t, d.FillStyle)
	assert.Equal(t, DefaultFillStyle, *d.FillStyle)
	require.NotNil(t, d.StrokeStyle)
	assert.Equal(t, DefaultStrokeStyle, *d.StrokeStyle)
	assert.Equal(t, DefaultLineWidth, d.LineWidth)
}

func TestDecodeBoxPayload(t *testing.T) {
	obj := ObjectNode{
		ID:   "obj_a",
		Type: ObjectTypeBox,
		Data: json.RawMessage(`{"box":[0,0,10,20],"strokeStyle":null,"lineWidth":3,"fillStyle":"#ff0000"}`),
	}
	d, err := obj.DecodeBox()
	require.NoError(t, err)

	assert.Equal(t, geom.B2(geom.Vec2(0, 0), geom.Vec2(10, 20)), d.Extent())
	assert.Nil(t, d.StrokeStyle)
	assert.Equal(t, 3.0, d.LineWidth)
	assert.Equal(t, "#ff0000", *d.FillStyle)
}

func TestDecodeBoxRejectsShortArray(t *testing.T) {
	obj := ObjectNode{ID: "obj_a", Type: ObjectTypeBox, Data: json.RawMessage(`{"box":[1,2,3]}`)}
	_, err := obj.DecodeBox()
	assert.Error(t, err)
}

func TestBoxDataRoundTrip(t *testing.T) {
	extent := geom.B2(geom.Vec2(-1, -2), geom.Vec2(3, 4))
	data, err := json.Marshal(NewBoxData(extent))
	require.NoError(t, err)
	assert.JSONEq(t, `{"box":[-1,-2,3,4],"strokeStyle":"#000000","lineWidth":1,"fillStyle":"#FFFFFF"}`, string(data))

	d, err := ObjectNode{ID: "obj_b", Data: data}.DecodeBox()
	require.NoError(t, err)
	assert.True(t, d.Extent().Equals(extent))
}

func TestDecodeTextDefaults(t *testing.T) {
	d, err := ObjectNode{ID: "obj_t", Data: json.RawMessage(`{"text":"hi"}`)}.DecodeText()
	require.NoError(t, err)
	assert.Equal(t, TextData{Text: "hi", Font: DefaultFont, Color: DefaultTextColor}, d)
}

func TestSampleDocumentIsValid(t *testing.T) {
	doc := NewSampleDocument("scene_test")
	require.NoError(t, doc.Validate())
	assert.Len(t, doc.Objects, 5)
	assert.Equal(t, "scene_test", doc.Scene.ID)
}

func TestValidateDetectsDanglingChild(t *testing.T) {
	doc := NewEmptyDocument("scene_x", "x", "obj_root")
	root := doc.Objects["obj_root"]
	root.Children = []string{"obj_missing"}
	doc.Objects["obj_root"] = root

	assert.Error(t, doc.Validate())
}

func TestObjectNodeDecodeDefaults(t *testing.T) {
	var obj ObjectNode
	require.NoError(t, json.Unmarshal([]byte(`{"id":"obj_a","type":"Box","transform":{"x":5}}`), &obj))
	assert.True(t, obj.Visible)
	assert.Equal(t, Transform{X: 5, SX: 1, SY: 1}, obj.Transform)

	var bare ObjectNode
	require.NoError(t, json.Unmarshal([]byte(`{"id":"obj_b","type":"Group"}`), &bare))
	assert.True(t, bare.Visible)
	assert.Equal(t, IdentityTransform(), bare.Transform)

	var hidden ObjectNode
	require.NoError(t, json.Unmarshal([]byte(`{"id":"obj_c","visible":false,"transform":{"sx":0,"sy":2}}`), &hidden))
	assert.False(t, hidden.Visible)
	assert.Equal(t, Transform{SX: 0, SY: 2}, hidden.Transform)
}

func TestDocumentWithoutVisibleFlags(t *testing.T) {
	raw := `{
		"scene": {"id": "scene_x", "root": "root"},
		"objects": {
			"root": {"id": "root", "type": "Group", "children": ["box"]},
			"box":  {"id": "box", "type": "Box", "parent": "root", "data": {"box": [0, 0, 10, 10]}}
		}
	}`
	var doc InDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	require.NoError(t, doc.Validate())
	assert.True(t, doc.Objects["root"].Visible)
	assert.True(t, doc.Objects["box"].Visible)
}
