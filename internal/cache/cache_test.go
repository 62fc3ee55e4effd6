package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTL_SetGet(t *testing.T) {
	c := NewTTL[string]()

	c.Set("k", "v", time.Minute)

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestTTL_MissOnUnknownKey(t *testing.T) {
	c := NewTTL[int]()

	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestTTL_Expiry(t *testing.T) {
	c := NewTTL[string]()
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", "v", 30*time.Second)

	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(31 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry must expire after its TTL")
}

func TestTTL_Overwrite(t *testing.T) {
	c := NewTTL[int]()

	c.Set("k", 1, time.Minute)
	c.Set("k", 2, time.Minute)

	got, _ := c.Get("k")
	assert.Equal(t, 2, got)
	assert.Equal(t, 1, c.Len())
}

func TestTTL_Delete(t *testing.T) {
	c := NewTTL[int]()

	c.Set("k", 1, time.Minute)
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
