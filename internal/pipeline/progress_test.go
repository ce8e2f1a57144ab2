package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentOf(t *testing.T) {
	tests := []struct {
		done, total, want int
	}{
		{0, 4, 0},
		{1, 4, 25},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{3, 3, 100},
		{0, 0, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, percentOf(tt.done, tt.total), "%d/%d", tt.done, tt.total)
	}
}

func TestProgressTracker_NewerGenerationWins(t *testing.T) {
	tr := NewProgressTracker()

	tr.start(2, 1, "first")
	assert.True(t, tr.update(2, 1, 50))

	tr.start(2, 2, "second")
	assert.False(t, tr.update(2, 1, 100), "stale load must not advance shared progress")

	snap, ok := tr.Get(2)
	require.True(t, ok)
	assert.Equal(t, ProgressSnapshot{Years: 2, Percent: 0, Invocation: "second"}, snap)

	assert.True(t, tr.update(2, 2, 100))
	snap, _ = tr.Get(2)
	assert.Equal(t, 100, snap.Percent)
}

func TestProgressTracker_OlderStartIgnored(t *testing.T) {
	tr := NewProgressTracker()
	tr.start(1, 3, "newest")
	tr.start(1, 2, "older")

	snap, ok := tr.Get(1)
	require.True(t, ok)
	assert.Equal(t, "newest", snap.Invocation)
}

func TestProgressTracker_NeverDecreases(t *testing.T) {
	tr := NewProgressTracker()
	tr.start(1, 1, "x")
	tr.update(1, 1, 60)
	tr.update(1, 1, 40)

	snap, _ := tr.Get(1)
	assert.Equal(t, 60, snap.Percent)
}

func TestProgressTracker_UnknownDepth(t *testing.T) {
	_, ok := NewProgressTracker().Get(5)
	assert.False(t, ok)
}
