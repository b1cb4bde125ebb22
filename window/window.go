// Package window implements progressive disclosure over a filtered view.
package window

const (
	DefaultInitial = 20
	DefaultBatch   = 20
)

// State is the serializable form of a window, owned by whoever renders it.
type State struct {
	Visible int    `json:"visible"`
	Key     string `json:"key"`
}

// Window is a growing prefix of a result set. It is per-viewer state and is
// not safe for concurrent use.
type Window struct {
	initial int
	batch   int
	visible int
	key     string
}

func New(initial, batch int) *Window {
	if initial <= 0 {
		initial = DefaultInitial
	}
	if batch <= 0 {
		batch = DefaultBatch
	}
	return &Window{
		initial: initial,
		batch:   batch,
		visible: initial,
	}
}

// Restore resumes a window from a previous state. An empty or invalid state
// starts from the initial batch.
func Restore(initial, batch int, state State) *Window {
	w := New(initial, batch)
	w.key = state.Key
	if state.Visible > 0 {
		w.visible = state.Visible
	}
	return w
}

func (w *Window) Initial() int {
	return w.initial
}

func (w *Window) Batch() int {
	return w.batch
}

// Sync resets the window when the filter key changed. Returns true if reset.
func (w *Window) Sync(key string) bool {
	if key == w.key {
		return false
	}
	w.key = key
	w.Reset()
	return true
}

func (w *Window) Reset() {
	w.visible = w.initial
}

// Advance grows the window by one batch, saturating at total.
func (w *Window) Advance(total int) int {
	next := w.visible + w.batch
	if next > total {
		next = total
	}
	if next > w.visible {
		w.visible = next
	} else if w.visible > total {
		w.visible = total
	}
	return w.Visible(total)
}

// Visible is the number of records to render out of total.
func (w *Window) Visible(total int) int {
	if w.visible < total {
		return w.visible
	}
	return total
}

func (w *Window) HasMore(total int) bool {
	return w.Visible(total) < total
}

func (w *Window) State() State {
	return State{
		Visible: w.visible,
		Key:     w.key,
	}
}

// Slice returns the first n items.
func Slice[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
