package session

import (
	"testing"

	"auctionhouse-api/internal/model"
	"auctionhouse-api/pkg/pager"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()

	s := m.Start("viewer-1")
	require.NotNil(t, s)
	assert.Equal(t, "viewer-1", s.ViewerID)

	// Starting again returns the same live session.
	again := m.Start("viewer-1")
	assert.Same(t, s, again)
	assert.Equal(t, 1, m.Len())

	assert.Same(t, s, m.Get("viewer-1"))
	assert.Nil(t, m.Get("viewer-2"))

	m.End("viewer-1")
	assert.Nil(t, m.Get("viewer-1"))
	assert.Zero(t, m.Len())
}

func TestSessionScreenAndPending(t *testing.T) {
	m := NewManager()
	s := m.Start("viewer-1")

	s.Screen = Screen{Kind: ScreenPurchaseConfirm, ListingID: 42}
	s.Pending = &PendingPurchase{ListingID: 42, MaxQuantity: 10}
	s.AwaitingInput = true

	s.ClearPending()
	assert.Nil(t, s.Pending)
	assert.False(t, s.AwaitingInput)
	assert.Equal(t, ScreenPurchaseConfirm, s.Screen.Kind)
}

func TestSessionPagerSurvivesScreenChange(t *testing.T) {
	m := NewManager()
	s := m.Start("viewer-1")

	listings := make([]model.Listing, 5)
	s.ListingPager = pager.New(listings, 2)
	require.True(t, s.ListingPager.Next())

	s.Screen = Screen{Kind: ScreenSellerListings, SellerID: "s1"}
	assert.Equal(t, 1, s.ListingPager.CurrentPage())

	// Ending the session discards all transient state.
	m.End("viewer-1")
	fresh := m.Start("viewer-1")
	assert.Nil(t, fresh.ListingPager)
	assert.Equal(t, ScreenMainBrowse, fresh.Screen.Kind)
}
