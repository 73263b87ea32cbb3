package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/inamate/canvas2d/internal/document"
	"github.com/inamate/canvas2d/internal/engine"
	"github.com/inamate/canvas2d/internal/geom"
)

// DocumentState holds the authoritative document of a room and the engine
// built from it. Every applied operation rebuilds the scene graph, so hit
// tests always see the latest geometry.
type DocumentState struct {
	mu        sync.RWMutex
	doc       *document.InDocument
	eng       *engine.Engine
	serverSeq int64
	dirty     bool
}

// NewDocumentState loads doc into an engine.
func NewDocumentState(doc *document.InDocument) (*DocumentState, error) {
	eng := engine.NewEngine()
	if err := eng.SetDocument(doc); err != nil {
		return nil, err
	}
	return &DocumentState{doc: doc, eng: eng}, nil
}

// DocumentJSON encodes the current document together with the sequence
// number it reflects. The document never leaves the lock unencoded.
func (ds *DocumentState) DocumentJSON() ([]byte, int64, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	data, err := json.Marshal(ds.doc)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal document: %w", err)
	}
	return data, ds.serverSeq, nil
}

func (ds *DocumentState) ServerSeq() int64 {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.serverSeq
}

func (ds *DocumentState) Dirty() bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.dirty
}

// HitTest returns the front-most object at (x, y), or "".
func (ds *DocumentState) HitTest(x, y float64) string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.eng.HitTest(x, y)
}

// Bounds returns the union of the world bounds of ids.
func (ds *DocumentState) Bounds(ids []string) engine.BoundsResult {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.eng.Bounds(ids)
}

// ApplyOperation applies an operation to the document and returns the
// server sequence. A failed operation leaves the document unchanged.
func (ds *DocumentState) ApplyOperation(op Operation) (int64, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	prev, ok := ds.doc.Objects[op.ObjectID]
	if !ok {
		return 0, fmt.Errorf("object not found: %s", op.ObjectID)
	}
	if op.ObjectID == ds.doc.Scene.Root {
		return 0, errors.New("root object is read-only")
	}

	next, err := applyOperation(prev, op)
	if err != nil {
		return 0, err
	}

	ds.doc.Objects[op.ObjectID] = next
	if err := ds.eng.SetDocument(ds.doc); err != nil {
		ds.doc.Objects[op.ObjectID] = prev
		return 0, fmt.Errorf("rebuild scene: %w", err)
	}

	ds.serverSeq++
	ds.dirty = true
	return ds.serverSeq, nil
}

// Save hands a copy of the document to save if it has unsaved changes.
// The save runs without the lock held, so operations keep flowing; the
// document stays dirty if an operation lands meanwhile.
func (ds *DocumentState) Save(save func(*document.InDocument) error) error {
	ds.mu.Lock()
	if !ds.dirty {
		ds.mu.Unlock()
		return nil
	}
	ds.doc.Scene.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(ds.doc)
	seq := ds.serverSeq
	ds.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	var doc document.InDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("copy document: %w", err)
	}
	if err := save(&doc); err != nil {
		return err
	}

	ds.mu.Lock()
	if ds.serverSeq == seq {
		ds.dirty = false
	}
	ds.mu.Unlock()
	return nil
}

func applyOperation(obj document.ObjectNode, op Operation) (document.ObjectNode, error) {
	switch op.Type {
	case OpObjectTransform:
		return applyTransform(obj, op)
	case OpObjectVisibility:
		return applyVisibility(obj, op)
	case OpObjectBox:
		return applyBox(obj, op)
	default:
		return obj, fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

func applyTransform(obj document.ObjectNode, op Operation) (document.ObjectNode, error) {
	// Parse transform changes
	var changes map[string]float64
	if err := json.Unmarshal(op.Transform, &changes); err != nil {
		return obj, fmt.Errorf("invalid transform: %w", err)
	}

	fields := map[string]*float64{
		"x":  &obj.Transform.X,
		"y":  &obj.Transform.Y,
		"sx": &obj.Transform.SX,
		"sy": &obj.Transform.SY,
		"r":  &obj.Transform.R,
		"ax": &obj.Transform.AX,
		"ay": &obj.Transform.AY,
	}
	for key, v := range changes {
		field, ok := fields[key]
		if !ok {
			return obj, fmt.Errorf("unknown transform field: %s", key)
		}
		*field = v
	}
	return obj, nil
}

func applyVisibility(obj document.ObjectNode, op Operation) (document.ObjectNode, error) {
	if op.Visible == nil {
		return obj, errors.New("visible is required")
	}
	obj.Visible = *op.Visible
	return obj, nil
}

// applyBox replaces a box's extent, keeping its styles.
func applyBox(obj document.ObjectNode, op Operation) (document.ObjectNode, error) {
	if obj.Type != document.ObjectTypeBox {
		return obj, fmt.Errorf("object %s is not a box", obj.ID)
	}
	if len(op.Box) != 4 {
		return obj, fmt.Errorf("box must have 4 values, got %d", len(op.Box))
	}

	var extent geom.Box2
	extent.FromArray(op.Box, 0)
	if !extent.IsFinite() {
		return obj, errors.New("box values must be finite")
	}
	if extent.IsEmpty() {
		return obj, errors.New("box min must not exceed max")
	}

	data, err := obj.DecodeBox()
	if err != nil {
		return obj, err
	}
	data.Box = extent.ToArray(nil, 0)

	raw, err := json.Marshal(data)
	if err != nil {
		return obj, fmt.Errorf("encode box: %w", err)
	}
	obj.Data = raw
	return obj, nil
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
