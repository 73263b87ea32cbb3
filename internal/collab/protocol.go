package collab

import (
	"encoding/json"

	"github.com/inamate/canvas2d/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	SceneID  string          `json:"sceneId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// PresencePayload is a connection's pointer and selection. UserID,
// DisplayName, HoverID and SelectionBounds are filled in by the server.
type PresencePayload struct {
	UserID          string               `json:"userId,omitempty"`
	Cursor          *CursorPos           `json:"cursor,omitempty"`
	Selection       []string             `json:"selection,omitempty"`
	DisplayName     string               `json:"displayName,omitempty"`
	HoverID         string               `json:"hoverId,omitempty"`
	SelectionBounds *engine.BoundsResult `json:"selectionBounds,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PresenceStatePayload maps client IDs to their presence.
type PresenceStatePayload struct {
	Presences map[string]PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	ClientID    string `json:"clientId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID   string `json:"userId"`
	ClientID string `json:"clientId"`
}

type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	SceneID   string `json:"sceneId"`
	ServerSeq int64  `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync    = "doc.sync"
	TypeSceneSave  = "scene.save"
	TypeSceneSaved = "scene.saved"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// Operation types
const (
	OpObjectTransform  = "object.transform"
	OpObjectVisibility = "object.visibility"
	OpObjectBox        = "object.box"
)

// Operation represents a document mutation
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	ClientSeq int64  `json:"clientSeq"`
	ObjectID  string `json:"objectId"`

	// For object.transform: a partial transform, e.g. {"x": 10, "r": 45}
	Transform json.RawMessage `json:"transform,omitempty"`

	// For object.visibility
	Visible *bool `json:"visible,omitempty"`

	// For object.box: [minX, minY, maxX, maxY]
	Box []float64 `json:"box,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}

// SceneSavedPayload is the payload for scene.saved messages
type SceneSavedPayload struct {
	ServerSeq int64 `json:"serverSeq"`
}
