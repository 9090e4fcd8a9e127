package pager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func nums(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, New(nums(0), 45).TotalPages())
	assert.Equal(t, 1, New(nums(45), 45).TotalPages())
	assert.Equal(t, 2, New(nums(46), 45).TotalPages())
	assert.Equal(t, 3, New(nums(101), 45).TotalPages())
}

func TestPageSizeCoercion(t *testing.T) {
	p := New(nums(10), 0)
	assert.Equal(t, 1, p.PerPage())
	assert.Equal(t, 10, p.TotalPages())
}

func TestNavigation(t *testing.T) {
	p := New(nums(101), 45)

	assert.False(t, p.HasPrevious())
	assert.False(t, p.Previous())
	assert.True(t, p.HasNext())

	assert.True(t, p.Next())
	assert.Equal(t, 1, p.CurrentPage())
	assert.True(t, p.Next())
	assert.Equal(t, 2, p.CurrentPage())
	assert.False(t, p.Next())

	assert.Len(t, p.CurrentPageItems(), 11)

	assert.False(t, p.GoTo(3))
	assert.False(t, p.GoTo(-1))
	assert.True(t, p.GoTo(0))
	assert.Len(t, p.CurrentPageItems(), 45)

	p.GoToLast()
	assert.Equal(t, 2, p.CurrentPage())
	p.GoToFirst()
	assert.Equal(t, 0, p.CurrentPage())
}

func TestSelfHealOnShrink(t *testing.T) {
	p := New(nums(101), 45)
	assert.True(t, p.GoTo(2))

	// The underlying enumeration shrank to 40 items; the cursor must
	// snap to the new last valid page and return everything.
	p.Reset(nums(40))

	items := p.CurrentPageItems()
	assert.Equal(t, 0, p.CurrentPage())
	assert.Len(t, items, 40)
}

func TestEmptySnapshot(t *testing.T) {
	p := New(nums(0), 45)
	assert.Equal(t, 1, p.TotalPages())
	assert.Empty(t, p.CurrentPageItems())
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrevious())
}
