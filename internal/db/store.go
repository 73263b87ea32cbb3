package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/canvas2d/internal/document"
	"github.com/inamate/canvas2d/internal/typeid"
)

var ErrNotFound = errors.New("scene not found")

// Snapshot is one stored version of a scene document.
type Snapshot struct {
	ID        string
	SceneID   string
	Version   int32
	Document  *document.InDocument
	CreatedAt time.Time
}

// Store persists scene documents as versioned JSON snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const getLatestSnapshot = `
SELECT id, scene_id, version, document, created_at
FROM scene_snapshots
WHERE scene_id = $1
ORDER BY version DESC
LIMIT 1`

// GetLatestSnapshot returns the newest snapshot of a scene, or ErrNotFound.
func (s *Store) GetLatestSnapshot(ctx context.Context, sceneID string) (*Snapshot, error) {
	var (
		snap Snapshot
		raw  []byte
	)
	err := s.pool.QueryRow(ctx, getLatestSnapshot, sceneID).
		Scan(&snap.ID, &snap.SceneID, &snap.Version, &raw, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var doc document.InDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	snap.Document = &doc
	return &snap, nil
}

const createSnapshot = `
INSERT INTO scene_snapshots (id, scene_id, version, document)
VALUES ($1, $2, COALESCE((SELECT MAX(version) FROM scene_snapshots WHERE scene_id = $2), 0) + 1, $3)
RETURNING version, created_at`

// SaveSnapshot stores doc as the next version of its scene.
func (s *Store) SaveSnapshot(ctx context.Context, doc *document.InDocument) (*Snapshot, error) {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	snap := Snapshot{
		ID:       typeid.NewSnapshotID(),
		SceneID:  doc.Scene.ID,
		Document: doc,
	}
	err = s.pool.QueryRow(ctx, createSnapshot, snap.ID, snap.SceneID, docJSON).
		Scan(&snap.Version, &snap.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return &snap, nil
}
