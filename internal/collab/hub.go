package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/canvas2d/internal/document"
)

const storeTimeout = 10 * time.Second

// DocLoader fetches the latest document of a scene when its room opens.
type DocLoader func(ctx context.Context, sceneID string) (*document.InDocument, error)

// DocSaver persists a room's document.
type DocSaver func(ctx context.Context, doc *document.InDocument) error

type Room struct {
	sceneID  string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	doc      *DocumentState
}

func NewRoom(sceneID string, doc *DocumentState) *Room {
	return &Room{
		sceneID:  sceneID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		doc:      doc,
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // sceneID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	loadDoc DocLoader
	saveDoc DocSaver
}

func NewHub(loadDoc DocLoader, saveDoc DocSaver) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		loadDoc:    loadDoc,
		saveDoc:    saveDoc,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// Stop saves every room with unsaved changes and stops Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.RLock()
		rooms := make([]*Room, 0, len(h.rooms))
		for _, room := range h.rooms {
			rooms = append(rooms, room)
		}
		h.mu.RUnlock()

		for _, room := range rooms {
			h.saveRoom(room)
		}
	})
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Send(errorMessage("server shutting down"))
		client.closeSend("server shutting down")
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	room, err := h.joinRoom(client)
	if err != nil {
		slog.Warn("open scene failed", "scene", client.SceneID, "error", err)
		client.Send(errorMessage("scene unavailable"))
		client.closeSend("scene unavailable")
		return
	}

	welcome, _ := json.Marshal(WelcomePayload{
		ClientID:  client.ClientID,
		SceneID:   client.SceneID,
		ServerSeq: room.doc.ServerSeq(),
	})
	client.Send(&Message{Type: TypeWelcome, Payload: welcome})

	docPayload, seq, err := room.doc.DocumentJSON()
	if err != nil {
		slog.Error("sync document", "error", err, "scene", client.SceneID)
	} else {
		client.Send(&Message{Type: TypeDocSync, Seq: seq, Payload: docPayload})
	}

	// Send current presence state to new client
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		ClientID:    client.ClientID,
		DisplayName: client.DisplayName,
	})
	h.broadcastToRoom(client.SceneID, &Message{
		Type:     TypePresenceJoin,
		UserID:   client.UserID,
		ClientID: client.ClientID,
		Payload:  joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "client", client.ClientID, "scene", client.SceneID)
}

// joinRoom adds client to its scene's room, loading the scene first if no
// room is open. The load runs without the hub lock; when two loads for
// the same scene race, the first room inserted wins.
func (h *Hub) joinRoom(client *Client) (*Room, error) {
	h.mu.Lock()
	room, ok := h.rooms[client.SceneID]
	if ok {
		room.clients[client.ClientID] = client
	}
	h.mu.Unlock()
	if ok {
		return room, nil
	}

	doc, err := h.openDocument(client.SceneID)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok = h.rooms[client.SceneID]
	if !ok {
		room = NewRoom(client.SceneID, doc)
		h.rooms[client.SceneID] = room
	}
	room.clients[client.ClientID] = client
	return room, nil
}

func (h *Hub) openDocument(sceneID string) (*DocumentState, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	doc, err := h.loadDoc(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	return NewDocumentState(doc)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SceneID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		client.closeSend("")
		return
	}

	delete(room.clients, client.ClientID)
	client.closeSend("")
	room.presence.Remove(client.ClientID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.SceneID)
	}
	h.mu.Unlock()

	if empty {
		h.saveRoom(room)
	}

	// Broadcast leave to remaining clients
	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID:   client.UserID,
		ClientID: client.ClientID,
	})
	h.broadcastToRoom(client.SceneID, &Message{
		Type:     TypePresenceLeave,
		UserID:   client.UserID,
		ClientID: client.ClientID,
		Payload:  leavePayload,
	}, "")

	slog.Info("client left", "user", client.UserID, "client", client.ClientID, "scene", client.SceneID)
}

func (h *Hub) saveRoom(room *Room) error {
	err := room.doc.Save(func(doc *document.InDocument) error {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return h.saveDoc(ctx, doc)
	})
	if err != nil {
		slog.Error("save scene failed", "scene", room.sceneID, "error", err)
	}
	return err
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	if sender.Closed() {
		return
	}

	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	case TypeSceneSave:
		h.handleSceneSave(sender)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) room(sceneID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[sceneID]
}

// handlePresenceUpdate resolves the sender's cursor to the object under it
// and its selection to a bounding box before fanning the presence out.
func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	room := h.room(sender.SceneID)
	if room == nil {
		return
	}

	presence.UserID = sender.UserID
	presence.DisplayName = sender.DisplayName
	presence.HoverID = ""
	presence.SelectionBounds = nil
	if presence.Cursor != nil {
		presence.HoverID = room.doc.HitTest(presence.Cursor.X, presence.Cursor.Y)
	}
	if len(presence.Selection) > 0 {
		bounds := room.doc.Bounds(presence.Selection)
		presence.SelectionBounds = &bounds
	}

	room.presence.Update(sender.ClientID, presence)

	// Broadcast to other clients in room
	outPayload, _ := json.Marshal(presence)
	h.broadcastToRoom(sender.SceneID, &Message{
		Type:     TypePresenceUpdate,
		UserID:   sender.UserID,
		ClientID: sender.ClientID,
		Payload:  outPayload,
	}, sender.ClientID)
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid op payload", "error", err)
		return
	}
	op := submit.Operation

	if sender.ReadOnly {
		nack, _ := json.Marshal(OperationNackPayload{OperationID: op.ID, Reason: "read-only connection"})
		sender.Send(&Message{Type: TypeOpNack, Payload: nack})
		return
	}

	room := h.room(sender.SceneID)
	if room == nil {
		return
	}

	seq, err := room.doc.ApplyOperation(op)
	if err != nil {
		nack, _ := json.Marshal(OperationNackPayload{OperationID: op.ID, Reason: err.Error()})
		sender.Send(&Message{Type: TypeOpNack, Payload: nack})
		return
	}

	ack, _ := json.Marshal(OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       seq,
		ServerTimestamp: GetServerTimestamp(),
	})
	sender.Send(&Message{Type: TypeOpAck, Seq: seq, Payload: ack})

	broadcast, _ := json.Marshal(OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: seq,
	})
	h.broadcastToRoom(sender.SceneID, &Message{
		Type:    TypeOpBroadcast,
		UserID:  sender.UserID,
		Seq:     seq,
		Payload: broadcast,
	}, sender.ClientID)
}

func (h *Hub) handleSceneSave(sender *Client) {
	if sender.ReadOnly {
		sender.Send(errorMessage("read-only connection"))
		return
	}

	room := h.room(sender.SceneID)
	if room == nil {
		return
	}

	if err := h.saveRoom(room); err != nil {
		sender.Send(errorMessage("save failed"))
		return
	}

	payload, _ := json.Marshal(SceneSavedPayload{ServerSeq: room.doc.ServerSeq()})
	sender.Send(&Message{Type: TypeSceneSaved, Payload: payload})
}

// broadcastToRoom encodes msg once and queues it for every client in the
// room except excludeClientID.
func (h *Hub) broadcastToRoom(sceneID string, msg *Message, excludeClientID string) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[sceneID]
	if !ok {
		return
	}
	for id, c := range room.clients {
		if id != excludeClientID {
			c.sendBytes(data)
		}
	}
}

func errorMessage(text string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Message: text})
	return &Message{Type: TypeError, Payload: payload}
}
