package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinLimit(t *testing.T) {
	l := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("legacy:1.2.3.4", 3, time.Minute), "call %d should pass", i+1)
	}
	assert.False(t, l.Allow("legacy:1.2.3.4", 3, time.Minute))

	// Other keys are unaffected
	assert.True(t, l.Allow("legacy:5.6.7.8", 3, time.Minute))
}

func TestRejectedCallDoesNotConsumeSlot(t *testing.T) {
	l := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	assert.True(t, l.Allow("k", 1, time.Minute))
	for i := 0; i < 10; i++ {
		assert.False(t, l.Allow("k", 1, time.Minute))
	}

	// Once the single allowed call ages out, one call passes again.
	// Had the rejections been recorded, the window would still be full.
	base = base.Add(61 * time.Second)
	assert.True(t, l.Allow("k", 1, time.Minute))
}

func TestWindowSlides(t *testing.T) {
	l := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	assert.True(t, l.Allow("k", 2, time.Minute))
	base = base.Add(30 * time.Second)
	assert.True(t, l.Allow("k", 2, time.Minute))
	assert.False(t, l.Allow("k", 2, time.Minute))

	// First call leaves the window, second is still inside
	base = base.Add(31 * time.Second)
	assert.True(t, l.Allow("k", 2, time.Minute))
	assert.False(t, l.Allow("k", 2, time.Minute))
}

func TestNonPositiveLimitDisables(t *testing.T) {
	l := New()
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("k", 0, time.Minute))
	}
	assert.Equal(t, 0, l.Keys(), "disabled keys are not tracked")
}

func TestPrune(t *testing.T) {
	l := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	l.Allow("old", 5, time.Minute)
	base = base.Add(2 * time.Minute)
	l.Allow("fresh", 5, time.Minute)

	removed := l.Prune(time.Minute)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, l.Keys())

	// Pruned key starts from a clean window
	assert.True(t, l.Allow("old", 1, time.Minute))
}
