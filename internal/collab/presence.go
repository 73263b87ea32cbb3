package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// PresenceManager holds the latest presence of every connection in a room,
// keyed by client ID so one user may be present from several tabs.
type PresenceManager struct {
	mu       sync.RWMutex
	byClient map[string]PresencePayload
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{byClient: make(map[string]PresencePayload)}
}

// Update replaces the presence of clientID.
func (pm *PresenceManager) Update(clientID string, p PresencePayload) {
	pm.mu.Lock()
	pm.byClient[clientID] = p
	pm.mu.Unlock()
}

// Remove forgets clientID and reports whether it had a presence.
func (pm *PresenceManager) Remove(clientID string) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	_, ok := pm.byClient[clientID]
	delete(pm.byClient, clientID)
	return ok
}

func (pm *PresenceManager) Get(clientID string) (PresencePayload, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	p, ok := pm.byClient[clientID]
	return p, ok
}

// Snapshot copies the current presences.
func (pm *PresenceManager) Snapshot() PresenceStatePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	state := PresenceStatePayload{Presences: make(map[string]PresencePayload, len(pm.byClient))}
	for id, p := range pm.byClient {
		state.Presences[id] = p
	}
	return state
}

func (pm *PresenceManager) StateMessage() *Message {
	payload, err := json.Marshal(pm.Snapshot())
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{Type: TypePresenceState, Payload: payload}
}
