package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmm29/conversational-emotion-ai/domain/entities"
)

func result(name string, score float64) entities.EmotionResult {
	return entities.EmotionResult{
		Dominant: entities.EmotionScore{Name: name, Score: score},
		Scores:   []entities.EmotionScore{{Name: name, Score: score}},
	}
}

func TestGetMiss(t *testing.T) {
	c := New(10, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestSetAndGet(t *testing.T) {
	c := New(10, time.Minute)
	key := Fingerprint("I am happy", "rev1")

	c.Set(key, result("joy", 0.8))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "joy", got.Dominant.Name)
	assert.Equal(t, 1, c.Len())
}

func TestTTLExpiry(t *testing.T) {
	c := New(10, 10*time.Millisecond)
	c.Set("key", result("joy", 0.8))

	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestLRUEviction(t *testing.T) {
	c := New(2, time.Minute)

	c.Set("a", result("joy", 0.8))
	time.Sleep(time.Millisecond)
	c.Set("b", result("sadness", 0.4))
	time.Sleep(time.Millisecond)

	// Touch a so b becomes the least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)
	time.Sleep(time.Millisecond)

	c.Set("c", result("anger", 0.6))

	_, ok = c.Get("a")
	assert.True(t, ok, "recently used entry should survive")
	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	c := New(10, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("key-%d", i), result("joy", 0.5))
	}
	require.Equal(t, 3, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestStatsCountsHitsAndMisses(t *testing.T) {
	c := New(10, time.Minute)
	key := Fingerprint("I am happy", "rev1")

	_, ok := c.Get(key)
	require.False(t, ok)

	c.Set(key, result("joy", 0.8))
	_, ok = c.Get(key)
	require.True(t, ok)
	_, ok = c.Get(key)
	require.True(t, ok)
	_, ok = c.Get("missing")
	require.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestStatsCountsExpiredAsMiss(t *testing.T) {
	c := New(10, 10*time.Millisecond)
	c.Set("key", result("joy", 0.8))

	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("key")
	require.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 0, stats.Size)
}

func TestFingerprintNormalization(t *testing.T) {
	base := Fingerprint("I am happy", "rev1")

	assert.Equal(t, base, Fingerprint("i AM   happy", "rev1"))
	assert.Equal(t, base, Fingerprint("  I am\thappy  ", "rev1"))

	assert.NotEqual(t, base, Fingerprint("I am sad", "rev1"))
	assert.NotEqual(t, base, Fingerprint("I am happy", "rev2"))
}
