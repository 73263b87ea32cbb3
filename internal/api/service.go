package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inamate/canvas2d/internal/db"
	"github.com/inamate/canvas2d/internal/document"
	"github.com/inamate/canvas2d/internal/engine"
	"github.com/inamate/canvas2d/internal/typeid"
)

var (
	ErrNotFound        = errors.New("scene not found")
	ErrSceneMismatch   = errors.New("document belongs to another scene")
	ErrInvalidDocument = errors.New("invalid document")
)

// SceneStore is the snapshot storage the service reads and writes.
// *db.Store implements it.
type SceneStore interface {
	GetLatestSnapshot(ctx context.Context, sceneID string) (*db.Snapshot, error)
	SaveSnapshot(ctx context.Context, doc *document.InDocument) (*db.Snapshot, error)
}

type Service struct {
	store SceneStore
	now   func() time.Time
}

func NewService(store SceneStore) *Service {
	return &Service{store: store, now: time.Now}
}

type Snapshot struct {
	ID        string               `json:"id"`
	SceneID   string               `json:"sceneId"`
	Version   int32                `json:"version"`
	Document  *document.InDocument `json:"document"`
	CreatedAt string               `json:"createdAt"`
}

func (s *Service) Create(ctx context.Context, name string, sample bool) (*Snapshot, error) {
	sceneID := typeid.NewSceneID()

	var doc *document.InDocument
	if sample {
		doc = document.NewSampleDocument(sceneID)
		doc.Scene.Name = name
	} else {
		now := s.timestamp()
		doc = document.NewEmptyDocument(sceneID, name, typeid.NewObjectID())
		doc.Scene.CreatedAt = now
		doc.Scene.UpdatedAt = now
	}

	snap, err := s.store.SaveSnapshot(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("create scene: %w", err)
	}
	return toSnapshot(snap), nil
}

func (s *Service) Get(ctx context.Context, sceneID string) (*Snapshot, error) {
	snap, err := s.latest(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	return toSnapshot(snap), nil
}

// Put stores doc as the next version of the scene. The document must load
// into an engine, so broken hierarchies are rejected before they persist.
func (s *Service) Put(ctx context.Context, sceneID string, doc *document.InDocument) (*Snapshot, error) {
	if doc.Scene.ID == "" {
		doc.Scene.ID = sceneID
	}
	if doc.Scene.ID != sceneID {
		return nil, ErrSceneMismatch
	}
	if doc.Objects == nil {
		return nil, fmt.Errorf("%w: no objects", ErrInvalidDocument)
	}
	if err := engine.NewEngine().SetDocument(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	doc.Scene.UpdatedAt = s.timestamp()
	if doc.Scene.CreatedAt == "" {
		doc.Scene.CreatedAt = doc.Scene.UpdatedAt
	}

	snap, err := s.store.SaveSnapshot(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("save scene: %w", err)
	}
	return toSnapshot(snap), nil
}

// Engine loads the latest version of a scene into a fresh engine.
func (s *Service) Engine(ctx context.Context, sceneID string) (*engine.Engine, error) {
	snap, err := s.latest(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	eng := engine.NewEngine()
	if err := eng.SetDocument(snap.Document); err != nil {
		return nil, fmt.Errorf("load scene %s: %w", sceneID, err)
	}
	return eng, nil
}

func (s *Service) latest(ctx context.Context, sceneID string) (*db.Snapshot, error) {
	snap, err := s.store.GetLatestSnapshot(ctx, sceneID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get scene: %w", err)
	}
	return snap, nil
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func toSnapshot(snap *db.Snapshot) *Snapshot {
	return &Snapshot{
		ID:        snap.ID,
		SceneID:   snap.SceneID,
		Version:   snap.Version,
		Document:  snap.Document,
		CreatedAt: snap.CreatedAt.UTC().Format(time.RFC3339),
	}
}
