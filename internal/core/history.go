package core

import "sync"

// DefaultHistorySize is the number of run reports kept in memory.
const DefaultHistorySize = 50

// RunHistory keeps the most recent run reports, oldest evicted first.
type RunHistory struct {
	mu      sync.RWMutex
	reports []RunReport
	next    int
	full    bool
}

// NewRunHistory creates a history holding up to size reports.
func NewRunHistory(size int) *RunHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &RunHistory{reports: make([]RunReport, size)}
}

// Add records a report.
func (h *RunHistory) Add(r RunReport) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.reports[h.next] = r
	h.next = (h.next + 1) % len(h.reports)
	if h.next == 0 {
		h.full = true
	}
}

// Len returns the number of stored reports.
func (h *RunHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.full {
		return len(h.reports)
	}
	return h.next
}

// Recent returns up to limit reports, newest first. limit <= 0 returns all.
func (h *RunHistory) Recent(limit int) []RunReport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := h.next
	if h.full {
		n = len(h.reports)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]RunReport, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (h.next - i + len(h.reports)) % len(h.reports)
		out = append(out, h.reports[idx])
	}
	return out
}

// Find returns the report with the given run id.
func (h *RunHistory) Find(runID string) (RunReport, bool) {
	for _, r := range h.Recent(0) {
		if r.RunID == runID {
			return r, true
		}
	}
	return RunReport{}, false
}
