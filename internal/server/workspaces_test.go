package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"highrise/internal/editor"
	"highrise/internal/store"
)

func TestWorkspacesExpireWhenIdle(t *testing.T) {
	clock := &testClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	ws := newWorkspaces(time.Hour, 5, clock.now)
	ed := editor.New(store.NewMemory(0))

	key := workspaceKey("s1", "")
	ws.put(key, ed)

	clock.advance(50 * time.Minute)
	got, ok := ws.get(key)
	require.True(t, ok)
	assert.Same(t, ed, got)

	// the get above refreshed it
	clock.advance(50 * time.Minute)
	_, ok = ws.get(key)
	assert.True(t, ok)

	clock.advance(time.Hour)
	_, ok = ws.get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, ws.len())
}

func TestWorkspacesPutPrunesIdleEditors(t *testing.T) {
	clock := &testClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	ws := newWorkspaces(time.Hour, 5, clock.now)
	ws.put(workspaceKey("s1", ""), editor.New(store.NewMemory(0)))
	ws.put(workspaceKey("s2", "3"), editor.New(store.NewMemory(0)))

	clock.advance(2 * time.Hour)
	ws.put(workspaceKey("s3", ""), editor.New(store.NewMemory(0)))
	assert.Equal(t, 1, ws.len())
}

func TestWorkspacesCapPerSession(t *testing.T) {
	clock := &testClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	ws := newWorkspaces(time.Hour, 2, clock.now)
	mem := store.NewMemory(0)

	ws.put(workspaceKey("s1", "1"), editor.New(mem))
	clock.advance(time.Minute)
	ws.put(workspaceKey("s1", "2"), editor.New(mem))
	clock.advance(time.Minute)
	ws.put(workspaceKey("s2", "1"), editor.New(mem))
	clock.advance(time.Minute)
	_, ok := ws.get(workspaceKey("s1", "1"))
	require.True(t, ok)

	clock.advance(time.Minute)
	ws.put(workspaceKey("s1", "3"), editor.New(mem))

	_, ok = ws.get(workspaceKey("s1", "2"))
	assert.False(t, ok, "least recently used editor of the session is dropped")
	_, ok = ws.get(workspaceKey("s1", "1"))
	assert.True(t, ok)
	_, ok = ws.get(workspaceKey("s1", "3"))
	assert.True(t, ok)
	_, ok = ws.get(workspaceKey("s2", "1"))
	assert.True(t, ok, "other sessions are untouched")
	assert.Equal(t, 3, ws.len())
}

func TestWorkspaceUploads(t *testing.T) {
	ws := newWorkspaces(time.Hour, 5, nil)
	key := workspaceKey("s1", "")
	ws.remember(key, "/uploads/a.png", "a.png")
	ws.put(key, editor.New(store.NewMemory(0)))

	_, ok := ws.release(key, "/uploads/a.png")
	assert.False(t, ok, "nothing is recorded before the workspace exists")

	ws.remember(key, "/uploads/a.png", "a.png")
	id, ok := ws.release(key, "/uploads/a.png")
	require.True(t, ok)
	assert.Equal(t, "a.png", id)
	_, ok = ws.release(key, "/uploads/a.png")
	assert.False(t, ok)

	ws.remember(key, "/uploads/b.png", "b.png")
	ws.dropSession("s1")
	_, ok = ws.release(key, "/uploads/b.png")
	assert.False(t, ok)
}
