package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunHistory(t *testing.T) {
	h := NewRunHistory(3)
	assert.Zero(t, h.Len())
	assert.Empty(t, h.Recent(0))

	for i := 1; i <= 5; i++ {
		h.Add(RunReport{RunID: fmt.Sprintf("run-%d", i)})
	}

	assert.Equal(t, 3, h.Len())
	got := h.Recent(0)
	assert.Equal(t, []string{"run-5", "run-4", "run-3"}, ids(got))
	assert.Equal(t, []string{"run-5", "run-4"}, ids(h.Recent(2)))

	r, ok := h.Find("run-4")
	assert.True(t, ok)
	assert.Equal(t, "run-4", r.RunID)
	_, ok = h.Find("run-1")
	assert.False(t, ok, "evicted")
}

func TestRunHistory_DefaultSize(t *testing.T) {
	h := NewRunHistory(0)
	for i := 0; i < DefaultHistorySize+5; i++ {
		h.Add(RunReport{})
	}
	assert.Equal(t, DefaultHistorySize, h.Len())
}

func ids(reports []RunReport) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.RunID
	}
	return out
}
