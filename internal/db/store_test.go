package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/canvas2d/internal/document"
	"github.com/inamate/canvas2d/internal/typeid"
)

// Runs against a real database when CANVAS2D_TEST_DATABASE_URL is set.
func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("CANVAS2D_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CANVAS2D_TEST_DATABASE_URL not set")
	}
	pool, err := NewPool(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewStore(pool)
}

func TestSnapshotVersions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sceneID := typeid.NewSceneID()
	_, err := s.GetLatestSnapshot(ctx, sceneID)
	assert.ErrorIs(t, err, ErrNotFound)

	doc := document.NewSampleDocument(sceneID)
	first, err := s.SaveSnapshot(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, int32(1), first.Version)

	doc.Scene.Name = "renamed"
	second, err := s.SaveSnapshot(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, int32(2), second.Version)

	latest, err := s.GetLatestSnapshot(ctx, sceneID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, "renamed", latest.Document.Scene.Name)
	assert.Len(t, latest.Document.Objects, len(doc.Objects))
}
