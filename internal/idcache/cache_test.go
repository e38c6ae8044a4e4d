package idcache

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushKeepsOrder(t *testing.T) {
	c := New()
	c.Push("facility", int64(1), int64(2))
	c.Push("facility", int64(3))

	assert.Equal(t, 3, c.Len("facility"))
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, c.IDs("facility"))
	assert.Equal(t, int64(2), c.At("facility", 1))
	assert.Equal(t, 0, c.Len("employee"))
	assert.Nil(t, c.IDs("employee"))
}

func TestSampleAndSubset(t *testing.T) {
	c := New()
	rng := rand.New(rand.NewSource(1))

	_, ok := c.Sample("material", rng)
	assert.False(t, ok)

	for i := int64(1); i <= 100; i++ {
		c.Push("material", i)
	}
	for i := 0; i < 50; i++ {
		id, ok := c.Sample("material", rng)
		require.True(t, ok)
		assert.True(t, c.Contains("material", id))
	}

	subset := c.Subset("material", 10, rng)
	assert.Len(t, subset, 10)
	seen := map[any]bool{}
	for _, id := range subset {
		assert.False(t, seen[id], "subset must not repeat ids")
		seen[id] = true
	}

	assert.Len(t, c.Subset("material", 500, rng), 100)
}

func TestContainsTracksLaterPushes(t *testing.T) {
	c := New()
	c.Push("shipment", "TRK-1")
	assert.True(t, c.Contains("shipment", "TRK-1"))
	c.Push("shipment", "TRK-2")
	assert.True(t, c.Contains("shipment", "TRK-2"))
	assert.False(t, c.Contains("shipment", "TRK-3"))
}

func TestCaptureAndReplace(t *testing.T) {
	c := New()
	c.Push("department", int64(7))
	c.Capture("department", int64(7), []any{int64(2), int64(5)})

	assert.Equal(t, int64(2), c.Attr("department", int64(7), 0))
	assert.Equal(t, int64(5), c.Attr("department", int64(7), 1))
	assert.Nil(t, c.Attr("department", int64(7), 2))
	assert.Nil(t, c.Attr("department", int64(8), 0))

	c.Replace("department", []any{int64(9)})
	assert.Equal(t, []any{int64(9)}, c.IDs("department"))

	c.Reset("department")
	assert.Equal(t, 0, c.Len("department"))
	_, ok := c.Attrs("department", int64(7))
	assert.False(t, ok)
}

func TestSubsetIsDeterministicUnderSeed(t *testing.T) {
	c := New()
	for i := int64(1); i <= 30; i++ {
		c.Push("employee", i)
	}
	a := c.Subset("employee", 5, rand.New(rand.NewSource(42)))
	b := c.Subset("employee", 5, rand.New(rand.NewSource(42)))
	assert.Equal(t, a, b)
}
