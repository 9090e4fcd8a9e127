package collab

import (
	"context"
	"errors"
	"sync"

	"auctionhouse-api/internal/model"
)

// ErrInsufficientBalance is returned by MemoryCurrency on an overdraft.
var ErrInsufficientBalance = errors.New("insufficient balance")

// MemoryCurrency is an in-process ledger for deployments without an
// external economy, and the fixture used by tests.
type MemoryCurrency struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewMemoryCurrency creates an empty in-memory ledger.
func NewMemoryCurrency() *MemoryCurrency {
	return &MemoryCurrency{balances: make(map[string]int64)}
}

// SetBalance sets a holder's balance directly.
func (c *MemoryCurrency) SetBalance(id string, amount int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[id] = amount
}

// Balance returns a holder's current balance.
func (c *MemoryCurrency) Balance(id string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[id]
}

// Has reports whether the holder can cover amount.
func (c *MemoryCurrency) Has(ctx context.Context, id string, amount int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[id] >= amount, nil
}

// Withdraw debits the holder, failing on overdraft.
func (c *MemoryCurrency) Withdraw(ctx context.Context, id string, amount int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balances[id] < amount {
		return ErrInsufficientBalance
	}
	c.balances[id] -= amount
	return nil
}

// Deposit credits the holder.
func (c *MemoryCurrency) Deposit(ctx context.Context, id string, amount int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[id] += amount
	return nil
}

// MemoryInventory is an in-process item-holdings implementation with a
// fixed slot capacity per holder.
type MemoryInventory struct {
	mu       sync.Mutex
	slots    int
	holdings map[string][]*model.Item
}

// NewMemoryInventory creates an inventory with the given slot capacity
// per holder.
func NewMemoryInventory(slots int) *MemoryInventory {
	if slots < 1 {
		slots = 36
	}
	return &MemoryInventory{slots: slots, holdings: make(map[string][]*model.Item)}
}

// Items returns a holder's current items.
func (inv *MemoryInventory) Items(holderID string) []*model.Item {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return append([]*model.Item(nil), inv.holdings[holderID]...)
}

// Remove takes an item out of the holder's holdings. Missing items are
// not an error: the holdings are advisory for this implementation.
func (inv *MemoryInventory) Remove(ctx context.Context, holderID string, item *model.Item) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	held := inv.holdings[holderID]
	for i, it := range held {
		if it.Type == item.Type {
			inv.holdings[holderID] = append(held[:i], held[i+1:]...)
			return nil
		}
	}
	return nil
}

// Add places an item into the holder's holdings if a slot is free or an
// existing stack of the same type can absorb it.
func (inv *MemoryInventory) Add(ctx context.Context, holderID string, item *model.Item) (bool, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if !inv.hasSpaceLocked(holderID, item) {
		return false, nil
	}

	held := inv.holdings[holderID]
	for _, it := range held {
		if it.Type == item.Type {
			it.Amount += item.Amount
			return true, nil
		}
	}
	inv.holdings[holderID] = append(held, item.WithAmount(item.Amount))
	return true, nil
}

// HasSpaceFor reports whether Add would succeed.
func (inv *MemoryInventory) HasSpaceFor(ctx context.Context, holderID string, item *model.Item) (bool, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.hasSpaceLocked(holderID, item), nil
}

func (inv *MemoryInventory) hasSpaceLocked(holderID string, item *model.Item) bool {
	held := inv.holdings[holderID]
	if len(held) < inv.slots {
		return true
	}
	for _, it := range held {
		if it.Type == item.Type {
			return true
		}
	}
	return false
}

// StaticOracle answers group memberships from a fixed map. A nil entry
// means no groups.
type StaticOracle struct {
	Groups map[string][]string
}

// GroupsOf returns the configured groups for id.
func (o *StaticOracle) GroupsOf(ctx context.Context, id string) ([]string, error) {
	return o.Groups[id], nil
}

// Ensure the in-memory implementations satisfy the capability interfaces.
var (
	_ Currency         = (*MemoryCurrency)(nil)
	_ Inventory        = (*MemoryInventory)(nil)
	_ PermissionOracle = (*StaticOracle)(nil)
)
