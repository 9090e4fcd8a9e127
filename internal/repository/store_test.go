package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"auctionhouse-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testListing(sellerID, sellerName, searchKey string, qty int, price int64, at time.Time) model.Listing {
	item := model.Item{Type: "iron_ingot", DisplayName: searchKey, Amount: qty}
	payload, _ := item.Encode()
	return model.Listing{
		SellerID:          sellerID,
		SellerName:        sellerName,
		ItemPayload:       payload,
		ItemNameLowercase: searchKey,
		PriceTotal:        price,
		QuantityInitial:   qty,
		QuantityRemaining: qty,
		ListedAt:          at,
	}
}

func TestCreateAndGetListing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	id, err := store.CreateListing(ctx, testListing("s1", "Alice", "iron ingot", 10, 500, now))
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := store.GetListing(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.SellerID)
	assert.Equal(t, "Alice", got.SellerName)
	assert.Equal(t, int64(500), got.PriceTotal)
	assert.Equal(t, 10, got.QuantityInitial)
	assert.Equal(t, 10, got.QuantityRemaining)

	missing, err := store.GetListing(ctx, id+1000)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestActiveListingsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	older, err := store.CreateListing(ctx, testListing("s1", "Alice", "iron ingot", 1, 100, base.Add(-time.Hour)))
	require.NoError(t, err)
	newer, err := store.CreateListing(ctx, testListing("s2", "Bob", "gold ingot", 1, 100, base))
	require.NoError(t, err)
	// Same timestamp as newer; higher id wins the tiebreak.
	tied, err := store.CreateListing(ctx, testListing("s3", "Cara", "diamond", 1, 100, base))
	require.NoError(t, err)

	listings, err := store.ActiveListings(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 3)
	assert.Equal(t, tied, listings[0].ID)
	assert.Equal(t, newer, listings[1].ID)
	assert.Equal(t, older, listings[2].ID)
}

func TestListingsMatching(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := store.CreateListing(ctx, testListing("s1", "Alice", "iron ingot", 1, 100, now))
	require.NoError(t, err)
	_, err = store.CreateListing(ctx, testListing("s1", "Alice", "gold ingot", 1, 100, now))
	require.NoError(t, err)
	_, err = store.CreateListing(ctx, testListing("s2", "Bob", "diamond", 1, 100, now))
	require.NoError(t, err)

	matches, err := store.ListingsMatching(ctx, "INGOT")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = store.ListingsMatching(ctx, "emerald")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSellersWithListings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := store.CreateListing(ctx, testListing("s2", "Bob", "iron ingot", 1, 100, now))
	require.NoError(t, err)
	_, err = store.CreateListing(ctx, testListing("s1", "Alice", "gold ingot", 1, 100, now))
	require.NoError(t, err)
	_, err = store.CreateListing(ctx, testListing("s1", "Alice", "diamond", 1, 100, now))
	require.NoError(t, err)

	sellers, err := store.SellersWithListings(ctx)
	require.NoError(t, err)
	require.Len(t, sellers, 2)
	assert.Equal(t, "Alice", sellers[0].Name)
	assert.Equal(t, "Bob", sellers[1].Name)

	matching, err := store.SellersMatching(ctx, "diamond")
	require.NoError(t, err)
	require.Len(t, matching, 1)
	assert.Equal(t, "s1", matching[0].ID)
}

func TestCountListingsBySellerIncludesExhausted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := store.CreateListing(ctx, testListing("s1", "Alice", "iron ingot", 5, 100, now))
	require.NoError(t, err)

	exhausted := testListing("s1", "Alice", "gold ingot", 5, 100, now)
	exhausted.QuantityRemaining = 0
	_, err = store.CreateListing(ctx, exhausted)
	require.NoError(t, err)

	count, err := store.CountListingsBySeller(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// The exhausted row still counts against the cap but never shows in
	// the browse enumeration.
	active, err := store.ActiveListings(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestGuardedDecrement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateListing(ctx, testListing("s1", "Alice", "iron ingot", 10, 1000, time.Now().UTC()))
	require.NoError(t, err)

	err = store.InTx(ctx, func(tx TxOps) error {
		ok, err := tx.DecrementListing(ctx, id, 4)
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	got, err := store.GetListing(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 6, got.QuantityRemaining)

	// Asking for more than remains must refuse without touching the row.
	err = store.InTx(ctx, func(tx TxOps) error {
		ok, err := tx.DecrementListing(ctx, id, 7)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)

	got, err = store.GetListing(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 6, got.QuantityRemaining)
}

func TestDecrementToZeroDeletesListing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateListing(ctx, testListing("s1", "Alice", "iron ingot", 3, 300, time.Now().UTC()))
	require.NoError(t, err)

	err = store.InTx(ctx, func(tx TxOps) error {
		ok, err := tx.DecrementListing(ctx, id, 3)
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	got, err := store.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInTxRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateListing(ctx, testListing("s1", "Alice", "iron ingot", 5, 500, time.Now().UTC()))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.InTx(ctx, func(tx TxOps) error {
		ok, err := tx.DecrementListing(ctx, id, 2)
		require.NoError(t, err)
		require.True(t, ok)

		_, err = tx.AppendMailbox(ctx, model.MailboxEntry{
			OwnerID: "s1", Kind: model.MailboxMoney, MoneyAmount: 200,
		})
		require.NoError(t, err)

		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.GetListing(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.QuantityRemaining)

	entries, err := store.MailboxFor(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMailboxAppendAndClaim(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var moneyID, itemID int64
	err := store.InTx(ctx, func(tx TxOps) error {
		var err error
		moneyID, err = tx.AppendMailbox(ctx, model.MailboxEntry{
			OwnerID: "p1", Kind: model.MailboxMoney, MoneyAmount: 750,
			SourceInfo: "Sold: Iron Ingot x3",
		})
		if err != nil {
			return err
		}

		item := model.Item{Type: "iron_ingot", Amount: 3}
		payload, _ := item.Encode()
		itemID, err = tx.AppendMailbox(ctx, model.MailboxEntry{
			OwnerID: "p1", Kind: model.MailboxItem, ItemPayload: payload,
			SourceInfo: "Purchased from Alice",
		})
		return err
	})
	require.NoError(t, err)

	entries, err := store.MailboxFor(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	money, err := store.GetMailboxEntry(ctx, moneyID)
	require.NoError(t, err)
	require.NotNil(t, money)
	assert.True(t, money.IsMoney())
	assert.Equal(t, int64(750), money.MoneyAmount)
	assert.Empty(t, money.ItemPayload)

	item, err := store.GetMailboxEntry(ctx, itemID)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.True(t, item.IsItem())
	assert.NotEmpty(t, item.ItemPayload)

	removed, err := store.RemoveMailboxEntry(ctx, moneyID)
	require.NoError(t, err)
	assert.True(t, removed)

	// A second removal of the same entry reports nothing removed.
	removed, err = store.RemoveMailboxEntry(ctx, moneyID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSweepExhausted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := store.CreateListing(ctx, testListing("s1", "Alice", "iron ingot", 5, 100, now))
	require.NoError(t, err)

	dead := testListing("s1", "Alice", "gold ingot", 5, 100, now)
	dead.QuantityRemaining = 0
	_, err = store.CreateListing(ctx, dead)
	require.NoError(t, err)

	removed, err := store.SweepExhausted(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// Idempotent: a second sweep finds nothing.
	removed, err = store.SweepExhausted(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	active, err := store.ActiveListings(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
