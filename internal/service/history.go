package service

import (
	"sync"
)

// History keeps the most recent analyses, newest first. A review is held
// once: analysing the same text again replaces its entry and moves it to
// the front.
type History struct {
	mu       sync.RWMutex
	entries  []AnalysisResult
	capacity int
}

// NewHistory creates a history holding at most capacity results
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		entries:  make([]AnalysisResult, 0, capacity),
		capacity: capacity,
	}
}

// Add records a result, evicting the oldest once full
func (h *History) Add(r AnalysisResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.add(r)
}

// AddAll records results in order under one lock
func (h *History) AddAll(rs []AnalysisResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range rs {
		h.add(r)
	}
}

func (h *History) add(r AnalysisResult) {
	for i, e := range h.entries {
		if e.Text == r.Text {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			break
		}
	}

	if len(h.entries) == h.capacity {
		h.entries = h.entries[:h.capacity-1]
	}
	h.entries = append(h.entries, AnalysisResult{})
	copy(h.entries[1:], h.entries)
	h.entries[0] = r
}

// Recent returns up to limit results, newest first. A limit <= 0 returns all.
func (h *History) Recent(limit int) []AnalysisResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.entries) {
		limit = len(h.entries)
	}

	out := make([]AnalysisResult, limit)
	copy(out, h.entries)
	return out
}

// Len returns the number of stored results
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Capacity returns the maximum number of stored results
func (h *History) Capacity() int {
	return h.capacity
}
