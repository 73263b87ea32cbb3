package collab

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/canvas2d/internal/document"
)

// twoBoxes places default boxes at (100,100) and (300,100), giving world
// bounds (50,50)-(150,150) and (250,50)-(350,150).
func twoBoxes(sceneID string) *document.InDocument {
	doc := document.NewEmptyDocument(sceneID, "two boxes", "root")
	root := doc.Objects["root"]
	for _, b := range []struct {
		id string
		x  float64
	}{{"left", 100}, {"right", 300}} {
		data, _ := json.Marshal(document.NewBoxData(document.DefaultBox()))
		parent := "root"
		doc.Objects[b.id] = document.ObjectNode{
			ID:        b.id,
			Type:      document.ObjectTypeBox,
			Parent:    &parent,
			Children:  []string{},
			Transform: document.Transform{X: b.x, Y: 100, SX: 1, SY: 1},
			Visible:   true,
			Data:      data,
		}
		root.Children = append(root.Children, b.id)
	}
	doc.Objects["root"] = root
	return doc
}

type savedDocs struct {
	mu   sync.Mutex
	docs []*document.InDocument
}

func (s *savedDocs) save(_ context.Context, doc *document.InDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
	return nil
}

func (s *savedDocs) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func newTestHub(t *testing.T) (*Hub, *savedDocs) {
	t.Helper()
	saved := &savedDocs{}
	load := func(_ context.Context, sceneID string) (*document.InDocument, error) {
		if sceneID == "scene_missing" {
			return nil, errors.New("not found")
		}
		return twoBoxes(sceneID), nil
	}
	return NewHub(load, saved.save), saved
}

func join(h *Hub, userID, sceneID string) *Client {
	return joinAs(h, userID, userID+"-client", sceneID)
}

func joinAs(h *Hub, userID, clientID, sceneID string) *Client {
	c := NewClient(h, nil, userID, userID+" name", sceneID, clientID)
	h.addClient(c)
	return c
}

func currentDoc(t *testing.T, room *Room) *document.InDocument {
	t.Helper()
	data, _, err := room.doc.DocumentJSON()
	require.NoError(t, err)
	var doc document.InDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	return &doc
}

func sendPresence(h *Hub, c *Client, p PresencePayload) {
	payload, _ := json.Marshal(p)
	h.handleMessage(c, &Message{Type: TypePresenceUpdate, Payload: payload})
}

// drain returns every message queued for c.
func drain(t *testing.T, c *Client) []Message {
	t.Helper()
	var msgs []Message
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return msgs
			}
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func only(t *testing.T, c *Client, typ string) Message {
	t.Helper()
	msgs := drain(t, c)
	require.Len(t, msgs, 1)
	require.Equal(t, typ, msgs[0].Type)
	return msgs[0]
}

func submit(h *Hub, c *Client, op Operation) {
	payload, _ := json.Marshal(OperationSubmitPayload{Operation: op})
	h.handleMessage(c, &Message{Type: TypeOpSubmit, Payload: payload})
}

func TestJoin(t *testing.T) {
	h, _ := newTestHub(t)

	alice := join(h, "alice", "scene_a")
	msgs := drain(t, alice)
	require.Len(t, msgs, 3)
	assert.Equal(t, TypeWelcome, msgs[0].Type)
	assert.Equal(t, TypeDocSync, msgs[1].Type)
	assert.Equal(t, TypePresenceState, msgs[2].Type)

	var doc document.InDocument
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &doc))
	assert.Equal(t, "scene_a", doc.Scene.ID)
	assert.Len(t, doc.Objects, 3)

	bob := join(h, "bob", "scene_a")
	drain(t, bob)
	joinMsg := only(t, alice, TypePresenceJoin)
	assert.Equal(t, "bob", joinMsg.UserID)
}

func TestJoinUnknownScene(t *testing.T) {
	h, _ := newTestHub(t)

	c := join(h, "alice", "scene_missing")
	msgs := drain(t, c)
	require.Len(t, msgs, 1)
	assert.Equal(t, TypeError, msgs[0].Type)

	_, ok := <-c.send
	assert.False(t, ok, "send channel should be closed")
	assert.Nil(t, h.room("scene_missing"))

	// Unregistering the rejected client is a no-op.
	h.removeClient(c)
}

func TestPresenceResolvesHover(t *testing.T) {
	h, _ := newTestHub(t)
	alice := join(h, "alice", "scene_a")
	bob := join(h, "bob", "scene_a")
	drain(t, alice)
	drain(t, bob)

	payload, _ := json.Marshal(PresencePayload{
		Cursor:    &CursorPos{X: 100, Y: 100},
		Selection: []string{"left", "right"},
		HoverID:   "spoofed",
	})
	h.handleMessage(alice, &Message{Type: TypePresenceUpdate, Payload: payload})

	assert.Empty(t, drain(t, alice))
	msg := only(t, bob, TypePresenceUpdate)
	var got PresencePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &got))
	assert.Equal(t, "left", got.HoverID)
	assert.Equal(t, "alice name", got.DisplayName)
	require.NotNil(t, got.SelectionBounds)
	assert.Equal(t, []float64{50, 50, 350, 150}, got.SelectionBounds.Box)

	stored, ok := h.room("scene_a").presence.Get("alice-client")
	require.True(t, ok)
	assert.Equal(t, "left", stored.HoverID)

	t.Run("cursor over empty space", func(t *testing.T) {
		payload, _ := json.Marshal(PresencePayload{Cursor: &CursorPos{X: 200, Y: 100}})
		h.handleMessage(alice, &Message{Type: TypePresenceUpdate, Payload: payload})
		msg := only(t, bob, TypePresenceUpdate)
		var got PresencePayload
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Empty(t, got.HoverID)
		assert.Nil(t, got.SelectionBounds)
	})
}

func TestOpSubmit(t *testing.T) {
	h, _ := newTestHub(t)
	alice := join(h, "alice", "scene_a")
	bob := join(h, "bob", "scene_a")
	drain(t, alice)
	drain(t, bob)

	submit(h, alice, Operation{
		ID:        "op1",
		Type:      OpObjectTransform,
		ObjectID:  "left",
		Transform: json.RawMessage(`{"x": 500}`),
	})

	ack := only(t, alice, TypeOpAck)
	var ackPayload OperationAckPayload
	require.NoError(t, json.Unmarshal(ack.Payload, &ackPayload))
	assert.Equal(t, "op1", ackPayload.OperationID)
	assert.Equal(t, int64(1), ackPayload.ServerSeq)

	bcast := only(t, bob, TypeOpBroadcast)
	assert.Equal(t, int64(1), bcast.Seq)

	room := h.room("scene_a")
	assert.True(t, room.doc.Dirty())
	assert.Empty(t, room.doc.HitTest(100, 100))
	assert.Equal(t, "left", room.doc.HitTest(500, 100))
}

func TestOpSubmitRejected(t *testing.T) {
	h, _ := newTestHub(t)
	alice := join(h, "alice", "scene_a")
	drain(t, alice)

	hidden := false
	tests := []struct {
		name string
		op   Operation
	}{
		{"unknown object", Operation{Type: OpObjectTransform, ObjectID: "nope", Transform: json.RawMessage(`{"x":1}`)}},
		{"root", Operation{Type: OpObjectVisibility, ObjectID: "root", Visible: &hidden}},
		{"unknown type", Operation{Type: "object.explode", ObjectID: "left"}},
		{"unknown field", Operation{Type: OpObjectTransform, ObjectID: "left", Transform: json.RawMessage(`{"z":1}`)}},
		{"visibility without value", Operation{Type: OpObjectVisibility, ObjectID: "left"}},
		{"short box", Operation{Type: OpObjectBox, ObjectID: "left", Box: []float64{0, 0, 1}}},
		{"inverted box", Operation{Type: OpObjectBox, ObjectID: "left", Box: []float64{10, 0, 0, 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.op.ID = tt.name
			submit(h, alice, tt.op)
			msg := only(t, alice, TypeOpNack)
			var nack OperationNackPayload
			require.NoError(t, json.Unmarshal(msg.Payload, &nack))
			assert.Equal(t, tt.name, nack.OperationID)
			assert.NotEmpty(t, nack.Reason)
		})
	}

	room := h.room("scene_a")
	assert.False(t, room.doc.Dirty())
	assert.Equal(t, "left", room.doc.HitTest(100, 100))
}

func TestOpBoxAndVisibility(t *testing.T) {
	h, _ := newTestHub(t)
	alice := join(h, "alice", "scene_a")
	drain(t, alice)
	room := h.room("scene_a")

	submit(h, alice, Operation{ID: "grow", Type: OpObjectBox, ObjectID: "right", Box: []float64{-150, -50, 50, 50}})
	only(t, alice, TypeOpAck)
	assert.Equal(t, "right", room.doc.HitTest(200, 100))

	data, err := currentDoc(t, room).Objects["right"].DecodeBox()
	require.NoError(t, err)
	assert.Equal(t, []float64{-150, -50, 50, 50}, data.Box)
	require.NotNil(t, data.FillStyle)
	assert.Equal(t, document.DefaultFillStyle, *data.FillStyle)

	hidden := false
	submit(h, alice, Operation{ID: "hide", Type: OpObjectVisibility, ObjectID: "right", Visible: &hidden})
	only(t, alice, TypeOpAck)
	assert.Empty(t, room.doc.HitTest(200, 100))
	assert.Equal(t, int64(2), room.doc.ServerSeq())
}

func TestSaving(t *testing.T) {
	h, saved := newTestHub(t)
	alice := join(h, "alice", "scene_a")
	bob := join(h, "bob", "scene_a")
	drain(t, alice)
	drain(t, bob)

	h.handleMessage(alice, &Message{Type: TypeSceneSave})
	only(t, alice, TypeSceneSaved)
	assert.Equal(t, 0, saved.count(), "clean document is not saved")

	submit(h, alice, Operation{ID: "op1", Type: OpObjectTransform, ObjectID: "left", Transform: json.RawMessage(`{"r": 45}`)})
	drain(t, alice)
	drain(t, bob)

	h.handleMessage(alice, &Message{Type: TypeSceneSave})
	only(t, alice, TypeSceneSaved)
	assert.Equal(t, 1, saved.count())

	submit(h, alice, Operation{ID: "op2", Type: OpObjectTransform, ObjectID: "left", Transform: json.RawMessage(`{"r": 90}`)})
	h.removeClient(alice)
	assert.Equal(t, 1, saved.count(), "room still has a client")
	h.removeClient(bob)
	assert.Equal(t, 2, saved.count())
	assert.Nil(t, h.room("scene_a"))
	assert.Equal(t, 90.0, saved.docs[1].Objects["left"].Transform.R)
}

func TestStopSavesDirtyRooms(t *testing.T) {
	h, saved := newTestHub(t)
	alice := join(h, "alice", "scene_a")
	join(h, "bob", "scene_b")

	submit(h, alice, Operation{ID: "op1", Type: OpObjectTransform, ObjectID: "left", Transform: json.RawMessage(`{"y": 0}`)})

	h.Stop()
	h.Stop()
	require.Equal(t, 1, saved.count())
	assert.Equal(t, "scene_a", saved.docs[0].Scene.ID)
}

func TestReadOnlyClient(t *testing.T) {
	h, saved := newTestHub(t)
	viewer := NewClient(h, nil, "anon", "Anonymous", "scene_a", "anon-client")
	viewer.ReadOnly = true
	h.addClient(viewer)
	drain(t, viewer)

	submit(h, viewer, Operation{ID: "op1", Type: OpObjectTransform, ObjectID: "left", Transform: json.RawMessage(`{"x": 0}`)})
	only(t, viewer, TypeOpNack)
	assert.False(t, h.room("scene_a").doc.Dirty())

	h.handleMessage(viewer, &Message{Type: TypeSceneSave})
	only(t, viewer, TypeError)
	assert.Equal(t, 0, saved.count())
}

func TestSameUserTwoConnections(t *testing.T) {
	h, _ := newTestHub(t)
	tab1 := joinAs(h, "alice", "alice-tab1", "scene_a")
	tab2 := joinAs(h, "alice", "alice-tab2", "scene_a")
	bob := join(h, "bob", "scene_a")
	drain(t, tab1)
	drain(t, tab2)
	drain(t, bob)

	sendPresence(h, tab1, PresencePayload{Cursor: &CursorPos{X: 100, Y: 100}})
	sendPresence(h, tab2, PresencePayload{Cursor: &CursorPos{X: 300, Y: 100}})
	drain(t, tab1)
	drain(t, tab2)
	updates := drain(t, bob)
	require.Len(t, updates, 2)
	assert.Equal(t, "alice-tab1", updates[0].ClientID)
	assert.Equal(t, "alice-tab2", updates[1].ClientID)

	room := h.room("scene_a")
	state := room.presence.Snapshot()
	require.Len(t, state.Presences, 2)
	assert.Equal(t, "left", state.Presences["alice-tab1"].HoverID)
	assert.Equal(t, "right", state.Presences["alice-tab2"].HoverID)
	assert.Equal(t, "alice", state.Presences["alice-tab2"].UserID)

	h.removeClient(tab1)
	leave := only(t, bob, TypePresenceLeave)
	var payload PresenceLeavePayload
	require.NoError(t, json.Unmarshal(leave.Payload, &payload))
	assert.Equal(t, "alice", payload.UserID)
	assert.Equal(t, "alice-tab1", payload.ClientID)

	_, ok := room.presence.Get("alice-tab1")
	assert.False(t, ok)
	stored, ok := room.presence.Get("alice-tab2")
	require.True(t, ok)
	assert.Equal(t, "right", stored.HoverID)
	assert.Len(t, room.clients, 2)
}

func TestRejectedClientIgnoresMessages(t *testing.T) {
	h, saved := newTestHub(t)
	c := NewClient(h, nil, "anon", "Anonymous", "scene_missing", "anon-client")
	c.ReadOnly = true
	h.addClient(c)
	drain(t, c)
	require.True(t, c.Closed())

	assert.NotPanics(t, func() {
		submit(h, c, Operation{ID: "op1", Type: OpObjectTransform, ObjectID: "left"})
		h.handleMessage(c, &Message{Type: TypeSceneSave})
		sendPresence(h, c, PresencePayload{Cursor: &CursorPos{X: 1, Y: 1}})
		c.Send(errorMessage("late"))
		h.removeClient(c)
		h.removeClient(c)
	})
	assert.Equal(t, 0, saved.count())
}

func TestRegisterAfterStop(t *testing.T) {
	h, _ := newTestHub(t)
	h.Stop()

	c := NewClient(h, nil, "alice", "Alice", "scene_a", "alice-client")
	assert.NotPanics(t, func() {
		h.Register(c)
		h.Unregister(c)
	})
	msgs := drain(t, c)
	require.Len(t, msgs, 1)
	assert.Equal(t, TypeError, msgs[0].Type)
	assert.True(t, c.Closed())
	assert.Nil(t, h.room("scene_a"))
}

func TestConcurrentJoinsAndOperations(t *testing.T) {
	h, _ := newTestHub(t)
	editor := join(h, "editor", "scene_a")
	room := h.room("scene_a")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			c := joinAs(h, "viewer", "viewer-client", "scene_a")
			h.removeClient(c)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			submit(h, editor, Operation{ID: "op", Type: OpObjectTransform, ObjectID: "left", Transform: json.RawMessage(`{"r": 1}`)})
			drain(t, editor)
		}
	}()
	wg.Wait()

	assert.Equal(t, int64(50), room.doc.ServerSeq())
	assert.Equal(t, 1.0, currentDoc(t, room).Objects["left"].Transform.R)
}

func TestSlowLoadDoesNotBlockOtherRooms(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(_ context.Context, sceneID string) (*document.InDocument, error) {
		if sceneID == "scene_slow" {
			close(started)
			<-release
		}
		return twoBoxes(sceneID), nil
	}
	h := NewHub(load, (&savedDocs{}).save)

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		join(h, "alice", "scene_slow")
	}()
	<-started

	fastDone := make(chan struct{})
	go func() {
		defer close(fastDone)
		bob := join(h, "bob", "scene_a")
		h.room("scene_a")
		h.removeClient(bob)
	}()

	select {
	case <-fastDone:
	case <-time.After(2 * time.Second):
		t.Fatal("join to another scene blocked behind a scene load")
	}

	close(release)
	<-slowDone
	assert.NotNil(t, h.room("scene_slow"))
}

func TestConcurrentLoadsShareOneRoom(t *testing.T) {
	var (
		loads   sync.WaitGroup
		release = make(chan struct{})
	)
	loads.Add(2)
	load := func(_ context.Context, sceneID string) (*document.InDocument, error) {
		loads.Done()
		<-release
		return twoBoxes(sceneID), nil
	}
	h := NewHub(load, (&savedDocs{}).save)

	clients := make([]*Client, 2)
	var joined sync.WaitGroup
	for i, user := range []string{"alice", "bob"} {
		joined.Add(1)
		go func() {
			defer joined.Done()
			clients[i] = join(h, user, "scene_a")
		}()
	}
	loads.Wait()
	close(release)
	joined.Wait()

	room := h.room("scene_a")
	require.NotNil(t, room)
	assert.Len(t, room.clients, 2)
	for _, c := range clients {
		assert.False(t, c.Closed())
	}
}
