//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/inamate/canvas2d/internal/engine"
	"github.com/inamate/canvas2d/internal/geom"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	// Create the engine API object
	canvasEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	canvasEngine.Set("loadDocument", js.FuncOf(loadDocument))
	canvasEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	canvasEngine.Set("setSelection", js.FuncOf(setSelection))
	canvasEngine.Set("pointerMove", js.FuncOf(pointerMove))

	// --- Queries (frontend ← backend) ---
	canvasEngine.Set("hitTest", js.FuncOf(hitTest))
	canvasEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	canvasEngine.Set("getBounds", js.FuncOf(getBounds))
	canvasEngine.Set("query", js.FuncOf(query))
	canvasEngine.Set("nearest", js.FuncOf(nearest))
	canvasEngine.Set("getDocument", js.FuncOf(getDocument))
	canvasEngine.Set("getSelection", js.FuncOf(getSelection))

	// Register on global scope
	js.Global().Set("canvasEngine", canvasEngine)

	// Signal that WASM is ready
	js.Global().Set("canvasWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	if err := eng.LoadDocument([]byte(args[0].String())); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	sceneID := "scene_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		sceneID = args[0].String()
	}

	if err := eng.LoadSampleDocument(sceneID); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func setSelection(this js.Value, args []js.Value) interface{} {
	eng.SetSelection(stringArray(args))
	return nil
}

// pointerMove returns the hover transition as JSON; the canvas uses it to
// restyle the entered and left objects.
func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("null")
	}
	return js.ValueOf(engine.ToJSON(eng.PointerMove(args[0].Float(), args[1].Float())))
}

// --- Query Handlers ---

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	x := args[0].Float()
	y := args[1].Float()
	return js.ValueOf(eng.HitTest(x, y))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(engine.ToJSON(eng.SelectionBounds()))
}

func getBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(engine.ToJSON(eng.Bounds(stringArray(args))))
}

// query takes minX, minY, maxX, maxY and returns matching IDs as JSON.
func query(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return js.ValueOf("[]")
	}
	region := geom.B2(
		geom.Vec2(args[0].Float(), args[1].Float()),
		geom.Vec2(args[2].Float(), args[3].Float()),
	)
	ids := eng.Query(region)
	if ids == nil {
		ids = []string{}
	}
	return js.ValueOf(engine.ToJSON(ids))
}

func nearest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("null")
	}
	res, ok := eng.Nearest(args[0].Float(), args[1].Float())
	if !ok {
		return js.ValueOf("null")
	}
	return js.ValueOf(engine.ToJSON(res))
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(engine.ToJSON(eng.Document()))
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(engine.ToJSON(eng.Selection()))
}

// stringArray reads a JS array of strings from the first argument.
func stringArray(args []js.Value) []string {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return nil
	}

	arr := args[0]
	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	return ids
}
