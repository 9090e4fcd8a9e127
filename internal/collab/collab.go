// Package collab defines the external systems the coordinator consults:
// the currency ledger, the permission oracle, per-holder item inventory
// and live notifications. They are injected capabilities; optional ones
// (oracle, notifier) may be nil and every consumer has a defined
// fallback for that.
package collab

import (
	"context"
	"errors"

	"auctionhouse-api/internal/model"
)

// ErrOracleUnavailable is returned by oracle implementations that exist
// but cannot currently answer.
var ErrOracleUnavailable = errors.New("permission oracle unavailable")

// Currency is the minimal ledger surface: balance check, debit, credit.
type Currency interface {
	Has(ctx context.Context, id string, amount int64) (bool, error)
	Withdraw(ctx context.Context, id string, amount int64) error
	Deposit(ctx context.Context, id string, amount int64) error
}

// PermissionOracle resolves a holder's group memberships in priority
// order. Implementations may return ErrOracleUnavailable.
type PermissionOracle interface {
	GroupsOf(ctx context.Context, id string) ([]string, error)
}

// Inventory is the item-holdings surface consulted around listing and
// claiming.
type Inventory interface {
	Remove(ctx context.Context, holderID string, item *model.Item) error
	Add(ctx context.Context, holderID string, item *model.Item) (bool, error)
	HasSpaceFor(ctx context.Context, holderID string, item *model.Item) (bool, error)
}

// Notifier delivers best-effort live notifications. Reachable reports
// whether the recipient can currently receive one.
type Notifier interface {
	Reachable(id string) bool
	Notify(id string, message string)
}
