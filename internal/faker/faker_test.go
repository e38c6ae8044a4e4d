package faker

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeededSourceReplays(t *testing.T) {
	a := New(rand.New(rand.NewSource(42)))
	b := New(rand.New(rand.NewSource(42)))

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.UUID(), b.UUID())
		assert.Equal(t, a.ObjectID(), b.ObjectID())
		assert.Equal(t, a.Company(), b.Company())
	}
}

func TestNearStaysInRange(t *testing.T) {
	f := New(rand.New(rand.NewSource(1)))
	for i := 0; i < 500; i++ {
		lat, lon := f.Near(89.99, 179.99, 500)
		assert.LessOrEqual(t, lat, 90.0)
		assert.GreaterOrEqual(t, lat, -90.0)
		assert.LessOrEqual(t, lon, 180.0)
		assert.GreaterOrEqual(t, lon, -180.0)
	}
}

func TestDateHelpersKeepOrder(t *testing.T) {
	f := New(rand.New(rand.NewSource(7)))
	ref := time.Date(2025, 1, 1, 12, 30, 0, 0, time.UTC)

	for i := 0; i < 200; i++ {
		start := f.DaysBefore(ref, 3650)
		assert.False(t, start.After(ref))
		assert.Zero(t, start.Hour())

		end := f.DayAfter(start, ref)
		assert.False(t, end.Before(start))
		assert.False(t, end.After(Day(ref)))

		m := f.MomentBefore(ref, 48*time.Hour)
		assert.False(t, f.After(m, time.Hour).Before(m))
	}

	assert.Equal(t, Day(ref), f.DayAfter(ref, ref.AddDate(0, 0, -3)))
}

func TestBetweenAndAmount(t *testing.T) {
	f := New(rand.New(rand.NewSource(3)))
	for i := 0; i < 200; i++ {
		n := f.Between(2, 4)
		assert.True(t, n >= 2 && n <= 4)
		a := f.Amount(10, 20)
		assert.Equal(t, Round(a, 2), a)
	}
	assert.Equal(t, 5, f.Between(5, 1))
}

func TestEmailIsDistinctPerIndex(t *testing.T) {
	f := New(rand.New(rand.NewSource(3)))
	assert.NotEqual(t, f.Email("Anna", "Berg", 1), f.Email("Anna", "Berg", 2))
	assert.Equal(t, "anna.berg.1@mfg.example", f.Email("Anna", "Berg", 1))
}
