package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassForPicksSmallestFit(t *testing.T) {
	cases := []struct {
		cells int
		want  int
	}{
		{0, ClassNonVector},
		{1, 1},
		{2, 2},
		{3, 3}, // next class up, holds 4
		{4, 3},
		{16, 6},
		{17, ClassLarge},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, classFor(c.cells), "cells=%d", c.cells)
	}
}

func TestSizeInCellsRoundsUp(t *testing.T) {
	assert.Equal(t, 1, sizeInCells(TagIntVector, 1))
	assert.Equal(t, 1, sizeInCells(TagIntVector, 4))
	assert.Equal(t, 2, sizeInCells(TagIntVector, 5))
	assert.Equal(t, 0, sizeInCells(TagSymbol, 0))
}

func TestSizeInCellsCharStringReservesTerminator(t *testing.T) {
	// 15 bytes + NUL fits exactly one 16-byte cell; 16 bytes + NUL needs two.
	assert.Equal(t, 1, sizeInCells(TagCharString, 15))
	assert.Equal(t, 2, sizeInCells(TagCharString, 16))
}
