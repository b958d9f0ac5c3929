package editor

import "time"

// History is a linear list of body snapshots with a cursor. Adding a
// snapshot after an undo discards everything ahead of the cursor.
//
// Snapshots added within the debounce window of the previous one replace it
// instead of growing the list, so a burst of keystrokes is one undo step.
// Coalescing never crosses an undo, redo or reset.
type History struct {
	snapshots []string
	index     int
	debounce  time.Duration
	lastAt    time.Time
	mergeable bool
}

func NewHistory(debounce time.Duration) *History {
	return &History{index: -1, debounce: debounce}
}

// Reset replaces the history with a single snapshot at index 0.
func (h *History) Reset(initial string) {
	h.snapshots = []string{initial}
	h.index = 0
	h.mergeable = false
}

// Add records content taken at the given time. It reports false when content
// equals the current snapshot.
func (h *History) Add(content string, at time.Time) bool {
	if h.index >= 0 && h.snapshots[h.index] == content {
		return false
	}
	h.snapshots = h.snapshots[:h.index+1]
	if h.mergeable && h.index > 0 && at.Sub(h.lastAt) < h.debounce {
		h.snapshots[h.index] = content
	} else {
		h.snapshots = append(h.snapshots, content)
		h.index++
	}
	h.lastAt = at
	h.mergeable = true
	return true
}

func (h *History) Undo() (string, bool) {
	if !h.CanUndo() {
		return h.Current(), false
	}
	h.index--
	h.mergeable = false
	return h.snapshots[h.index], true
}

func (h *History) Redo() (string, bool) {
	if !h.CanRedo() {
		return h.Current(), false
	}
	h.index++
	h.mergeable = false
	return h.snapshots[h.index], true
}

func (h *History) CanUndo() bool { return h.index > 0 }
func (h *History) CanRedo() bool { return h.index < len(h.snapshots)-1 }

func (h *History) Current() string {
	if h.index < 0 {
		return ""
	}
	return h.snapshots[h.index]
}

func (h *History) Len() int   { return len(h.snapshots) }
func (h *History) Index() int { return h.index }
