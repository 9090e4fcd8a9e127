package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"auctionhouse-api/internal/model"
	"auctionhouse-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweeperRunNow(t *testing.T) {
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "sweep.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	item := model.Item{Type: "iron_ingot", Amount: 1}
	payload, _ := item.Encode()

	_, err = store.CreateListing(ctx, model.Listing{
		SellerID: "s1", SellerName: "Alice", ItemPayload: payload,
		ItemNameLowercase: "iron ingot", PriceTotal: 100,
		QuantityInitial: 1, QuantityRemaining: 1, ListedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	dead := model.Listing{
		SellerID: "s1", SellerName: "Alice", ItemPayload: payload,
		ItemNameLowercase: "gold ingot", PriceTotal: 100,
		QuantityInitial: 1, QuantityRemaining: 0, ListedAt: time.Now().UTC(),
	}
	_, err = store.CreateListing(ctx, dead)
	require.NoError(t, err)

	sweeper := NewSweeper(store, time.Hour, zap.NewNop())

	removed, err := sweeper.RunNow()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	active, err := store.ActiveListings(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestSweeperStartStop(t *testing.T) {
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "sweep.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sweeper := NewSweeper(store, time.Hour, zap.NewNop())
	sweeper.Start()
	sweeper.Start() // second start is a no-op
	sweeper.Stop()
	sweeper.Stop() // stop is idempotent
}
