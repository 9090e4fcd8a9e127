package repository

import (
	"context"

	"auctionhouse-api/internal/model"
)

// TxOps is the set of mutations available inside one transactional unit.
// Everything executed through it commits or rolls back together.
type TxOps interface {
	// DecrementListing atomically reduces quantity_remaining by amount,
	// guarded by quantity_remaining >= amount. The returned bool is the
	// sole source of truth for success; false means stock vanished or
	// shrank concurrently. A listing drained to zero is deleted in the
	// same unit.
	DecrementListing(ctx context.Context, id int64, amount int) (bool, error)

	// DeleteListing removes a listing unconditionally. Returns whether a
	// row was removed.
	DeleteListing(ctx context.Context, id int64) (bool, error)

	// AppendMailbox inserts a deferred delivery. SourceInfo must already
	// be sanitized by the caller.
	AppendMailbox(ctx context.Context, e model.MailboxEntry) (int64, error)
}

// Store is the transactional datastore behind the coordinator: the
// listing table, the mailbox table, and the single transactional unit
// spanning both.
type Store interface {
	// CreateListing persists a new listing and returns its id.
	CreateListing(ctx context.Context, l model.Listing) (int64, error)

	// GetListing returns a listing by id, or nil if not found.
	GetListing(ctx context.Context, id int64) (*model.Listing, error)

	// ActiveListings returns all listings with stock remaining, newest first.
	ActiveListings(ctx context.Context) ([]model.Listing, error)

	// ListingsBySeller returns one seller's active listings, newest first.
	ListingsBySeller(ctx context.Context, sellerID string) ([]model.Listing, error)

	// ListingsMatching returns active listings whose search key contains
	// term (case-insensitive substring), newest first.
	ListingsMatching(ctx context.Context, term string) ([]model.Listing, error)

	// SellersWithListings returns distinct sellers with active listings,
	// ordered by name.
	SellersWithListings(ctx context.Context) ([]model.SellerInfo, error)

	// SellersMatching returns distinct sellers holding active listings
	// that match term, ordered by name.
	SellersMatching(ctx context.Context, term string) ([]model.SellerInfo, error)

	// CountListingsBySeller returns the seller's total listing count,
	// used for the per-seller cap.
	CountListingsBySeller(ctx context.Context, sellerID string) (int, error)

	// SweepExhausted deletes all listings at or below zero remaining.
	// Idempotent and safe to interleave with any other operation.
	SweepExhausted(ctx context.Context) (int64, error)

	// MailboxFor returns all deferred deliveries for one owner, newest first.
	MailboxFor(ctx context.Context, ownerID string) ([]model.MailboxEntry, error)

	// GetMailboxEntry returns one entry by id, or nil if not found.
	GetMailboxEntry(ctx context.Context, id int64) (*model.MailboxEntry, error)

	// RemoveMailboxEntry deletes one entry. The returned bool reports
	// whether a row was removed, guarding double-claims.
	RemoveMailboxEntry(ctx context.Context, id int64) (bool, error)

	// InTx runs fn inside one transactional unit with auto-commit
	// suspended; any error rolls back everything fn did.
	InTx(ctx context.Context, fn func(tx TxOps) error) error

	// Close closes the underlying database.
	Close() error
}
