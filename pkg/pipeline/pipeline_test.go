package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickIsMonotonic(t *testing.T) {
	prev := Tick()
	for i := 0; i < 100; i++ {
		next := Tick()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestMemoRecomputesOnlyWhenStale(t *testing.T) {
	var src Modified
	src.Modify()

	var memo Memo[int]
	calls := 0
	compute := func() int { calls++; return calls * 10 }

	v, s1 := memo.Get(src.MTime(), compute)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, calls)

	v, s2 := memo.Get(src.MTime(), compute)
	assert.Equal(t, 10, v, "cached value reused")
	assert.Equal(t, s1, s2)
	assert.Equal(t, 1, calls)

	src.Modify()
	v, s3 := memo.Get(src.MTime(), compute)
	assert.Equal(t, 20, v)
	assert.Greater(t, s3, s2)
	assert.Equal(t, 2, calls)
}

func TestMemoInvalidate(t *testing.T) {
	var memo Memo[string]
	calls := 0
	compute := func() string { calls++; return "out" }

	memo.Get(0, compute)
	assert.NotZero(t, memo.Stamp())
	memo.Invalidate()
	assert.Zero(t, memo.Stamp())
	memo.Get(0, compute)
	assert.Equal(t, 2, calls)
}

func TestNewest(t *testing.T) {
	assert.Equal(t, Stamp(7), Newest(3, 7, 5))
	assert.Equal(t, Stamp(0), Newest())
}
