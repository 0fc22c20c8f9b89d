package render

import "JuliaRenderer/task"

// History is an undo log of committed settings. Adding settings discards anything that was undone.
// It is not safe for concurrent use.
type History struct {
	future []task.Settings
	now    *task.Settings
	past   []task.Settings
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Add(settings task.Settings) {
	if h.now != nil {
		h.past = append(h.past, *h.now)
	}
	h.now = &settings
	h.future = nil
}

// Rewind steps n entries back. It does nothing and returns false if there are fewer than n entries behind.
func (h *History) Rewind(n int) bool {
	if n < 1 || len(h.past) < n {
		return false
	}
	for i := 0; i < n; i++ {
		h.future = append([]task.Settings{*h.now}, h.future...)
		last := len(h.past) - 1
		previous := h.past[last]
		h.past = h.past[:last]
		h.now = &previous
	}
	return true
}

// Advance steps n entries forward. It does nothing and returns false if there are fewer than n entries ahead.
func (h *History) Advance(n int) bool {
	if n < 1 || len(h.future) < n {
		return false
	}
	for i := 0; i < n; i++ {
		h.past = append(h.past, *h.now)
		next := h.future[0]
		h.future = h.future[1:]
		h.now = &next
	}
	return true
}

func (h *History) Current() (task.Settings, bool) {
	if h.now == nil {
		return task.Settings{}, false
	}
	return *h.now, true
}

func (h *History) PastLength() int {
	return len(h.past)
}

func (h *History) FutureLength() int {
	return len(h.future)
}
