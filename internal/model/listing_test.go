package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingDerivedPrices(t *testing.T) {
	l := Listing{PriceTotal: 1000, QuantityInitial: 3, QuantityRemaining: 2}

	// Integer division: 1000 / 3 units.
	assert.Equal(t, int64(333), l.PricePerUnit())
	assert.Equal(t, int64(666), l.PriceForRemaining())

	assert.False(t, l.SoldOut())
	l.QuantityRemaining = 0
	assert.True(t, l.SoldOut())
	assert.Zero(t, l.PriceForRemaining())
}
