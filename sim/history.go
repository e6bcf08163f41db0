package sim

// DefaultHistorySize is the number of rule snapshots kept for undo.
const DefaultHistorySize = 50

// History is a linear undo/redo log of rule snapshots held in a ring buffer.
// The oldest entry is dropped once the buffer is full.
type History struct {
	buf    []RuleSnapshot
	start  int // ring index of the oldest entry
	length int
	cursor int // logical index of the current entry, -1 when empty
}

// NewHistory creates a history holding at most size snapshots.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		buf:    make([]RuleSnapshot, size),
		cursor: -1,
	}
}

func (h *History) at(i int) RuleSnapshot {
	return h.buf[(h.start+i)%len(h.buf)]
}

// Push records a new current state, discarding anything that could have
// been redone.
func (h *History) Push(s RuleSnapshot) {
	h.length = h.cursor + 1
	if h.length == len(h.buf) {
		h.start = (h.start + 1) % len(h.buf)
		h.length--
	}
	h.buf[(h.start+h.length)%len(h.buf)] = s
	h.length++
	h.cursor = h.length - 1
}

// Undo steps back one entry and returns it.
func (h *History) Undo() (RuleSnapshot, bool) {
	if !h.CanUndo() {
		return RuleSnapshot{}, false
	}
	h.cursor--
	return h.at(h.cursor), true
}

// Redo steps forward one entry and returns it.
func (h *History) Redo() (RuleSnapshot, bool) {
	if !h.CanRedo() {
		return RuleSnapshot{}, false
	}
	h.cursor++
	return h.at(h.cursor), true
}

// CanUndo reports whether there is an older entry to return to.
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether an undone entry can be reapplied.
func (h *History) CanRedo() bool {
	return h.cursor < h.length-1
}

// Len returns the number of entries held.
func (h *History) Len() int {
	return h.length
}

// Cursor returns the index of the current entry, oldest first.
func (h *History) Cursor() int {
	return h.cursor
}
