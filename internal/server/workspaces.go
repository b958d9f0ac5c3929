package server

import (
	"strings"
	"sync"
	"time"

	"highrise/internal/editor"
)

// workspaces holds the open editors of every session, one per post being
// written. An editor left alone for longer than idle is discarded, and a
// session keeps at most perSession editors, dropping the least recently
// used first.
type workspaces struct {
	mu         sync.Mutex
	idle       time.Duration
	perSession int
	now        func() time.Time
	m          map[string]*workspace
}

type workspace struct {
	ed   *editor.Editor
	used time.Time
	// uploads maps the URL of every cover image uploaded in this workspace
	// to its public id.
	uploads map[string]string
}

func newWorkspaces(idle time.Duration, perSession int, now func() time.Time) *workspaces {
	if now == nil {
		now = time.Now
	}
	return &workspaces{idle: idle, perSession: perSession, now: now, m: map[string]*workspace{}}
}

func workspaceKey(sid, postID string) string {
	if postID == "" {
		postID = "new"
	}
	return sid + "|" + postID
}

func sessionOf(key string) string {
	sid, _, _ := strings.Cut(key, "|")
	return sid
}

func (ws *workspaces) stale(w *workspace, now time.Time) bool {
	return ws.idle > 0 && now.Sub(w.used) >= ws.idle
}

func (ws *workspaces) get(key string) (*editor.Editor, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, ok := ws.m[key]
	if !ok {
		return nil, false
	}
	now := ws.now()
	if ws.stale(w, now) {
		delete(ws.m, key)
		return nil, false
	}
	w.used = now
	return w.ed, true
}

func (ws *workspaces) put(key string, e *editor.Editor) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	now := ws.now()

	sid := sessionOf(key)
	var mine []string
	for k, w := range ws.m {
		switch {
		case ws.stale(w, now):
			delete(ws.m, k)
		case k != key && sessionOf(k) == sid:
			mine = append(mine, k)
		}
	}
	for ws.perSession > 0 && len(mine) >= ws.perSession {
		oldest := 0
		for i, k := range mine {
			if ws.m[k].used.Before(ws.m[mine[oldest]].used) {
				oldest = i
			}
		}
		delete(ws.m, mine[oldest])
		mine = append(mine[:oldest], mine[oldest+1:]...)
	}
	ws.m[key] = &workspace{ed: e, used: now, uploads: map[string]string{}}
}

// remember records a cover image uploaded in the workspace at key.
func (ws *workspaces) remember(key, url, publicID string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if w, ok := ws.m[key]; ok {
		w.uploads[url] = publicID
	}
}

// release forgets url and returns its public id if it was uploaded in the
// workspace at key.
func (ws *workspaces) release(key, url string) (string, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, ok := ws.m[key]
	if !ok {
		return "", false
	}
	id, ok := w.uploads[url]
	delete(w.uploads, url)
	return id, ok
}

func (ws *workspaces) drop(key string) {
	ws.mu.Lock()
	delete(ws.m, key)
	ws.mu.Unlock()
}

func (ws *workspaces) dropSession(sid string) {
	prefix := sid + "|"
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for key := range ws.m {
		if strings.HasPrefix(key, prefix) {
			delete(ws.m, key)
		}
	}
}

func (ws *workspaces) len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.m)
}
