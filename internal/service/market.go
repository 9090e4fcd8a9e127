package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"auctionhouse-api/internal/cache"
	"auctionhouse-api/internal/collab"
	"auctionhouse-api/internal/model"
	"auctionhouse-api/internal/rank"
	"auctionhouse-api/internal/repository"

	"go.uber.org/zap"
)

// Validation failures. These are specific, caller-facing rejection
// reasons issued before (or instead of) any mutation; they are never
// logged as system errors.
var (
	ErrEmptyItem         = errors.New("cannot list an empty item")
	ErrInvalidPrice      = errors.New("price must be positive")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrListingLimit      = errors.New("listing limit reached")
	ErrNotFound          = errors.New("auction not found")
	ErrSelfPurchase      = errors.New("cannot buy your own items")
	ErrInsufficientStock = errors.New("not enough items available")
	ErrInsufficientFunds = errors.New("not enough money")
	ErrNotOwner          = errors.New("not the owner")
	ErrAlreadyClaimed    = errors.New("already claimed")
	ErrNoSpace           = errors.New("no inventory space")
)

// Cache keys for the two hot unparameterized enumerations.
const (
	cacheKeyListings = "listings:active"
	cacheKeySellers  = "sellers:active"
)

// MarketService is the transaction coordinator: it validates, opens one
// transactional unit per mutating operation, and spans the listing
// store, the mailbox store and the external currency/inventory
// collaborators.
type MarketService struct {
	store     repository.Store
	currency  collab.Currency
	inventory collab.Inventory
	notifier  collab.Notifier
	sorter    *rank.Sorter

	cache    cache.Cache
	cacheTTL time.Duration

	defaultLimit int
	groupLimits  map[string]int
	oracle       collab.PermissionOracle

	log *zap.Logger
}

// Config holds the coordinator's dependencies. Oracle, Notifier and
// Cache are optional capabilities; nil means unavailable and every use
// has a defined fallback.
type Config struct {
	Store     repository.Store
	Currency  collab.Currency
	Inventory collab.Inventory
	Oracle    collab.PermissionOracle
	Notifier  collab.Notifier
	Cache     cache.Cache
	CacheTTL  time.Duration

	DefaultListingLimit int
	GroupListingLimits  map[string]int

	Logger *zap.Logger
}

// NewMarketService creates the coordinator. Store, Currency, Inventory
// and Logger are required.
func NewMarketService(cfg Config) *MarketService {
	if cfg.DefaultListingLimit <= 0 {
		cfg.DefaultListingLimit = 20
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Second
	}

	limits := make(map[string]int, len(cfg.GroupListingLimits))
	for group, limit := range cfg.GroupListingLimits {
		limits[strings.ToLower(group)] = limit
	}

	return &MarketService{
		store:        cfg.Store,
		currency:     cfg.Currency,
		inventory:    cfg.Inventory,
		notifier:     cfg.Notifier,
		sorter:       rank.NewSorter(cfg.Oracle),
		cache:        cfg.Cache,
		cacheTTL:     cfg.CacheTTL,
		defaultLimit: cfg.DefaultListingLimit,
		groupLimits:  limits,
		oracle:       cfg.Oracle,
		log:          cfg.Logger,
	}
}

// List persists a new listing for the seller's item at the given total
// price. The item leaves the seller's holdings only after the listing
// row is durably committed; a crash in between leaves the item held
// with the listing live, an accepted at-most-once gap.
func (s *MarketService) List(ctx context.Context, sellerID, sellerName string, item *model.Item, priceTotal int64) (*model.Listing, error) {
	if item == nil || item.Type == "" || item.Amount <= 0 {
		return nil, ErrEmptyItem
	}
	if priceTotal <= 0 {
		return nil, ErrInvalidPrice
	}

	limit := s.listingLimit(ctx, sellerID)
	count, err := s.store.CountListingsBySeller(ctx, sellerID)
	if err != nil {
		s.log.Error("count listings failed", zap.String("seller", sellerID), zap.Error(err))
		return nil, fmt.Errorf("list item: %w", err)
	}
	if count >= limit {
		return nil, fmt.Errorf("%w (%d)", ErrListingLimit, limit)
	}

	payload, err := item.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}

	listing := model.Listing{
		SellerID:          sellerID,
		SellerName:        sellerName,
		ItemPayload:       payload,
		ItemNameLowercase: model.SearchKey(item),
		PriceTotal:        priceTotal,
		QuantityInitial:   item.Amount,
		QuantityRemaining: item.Amount,
		ListedAt:          time.Now(),
	}

	id, err := s.store.CreateListing(ctx, listing)
	if err != nil {
		s.log.Error("create listing failed", zap.String("seller", sellerID), zap.Error(err))
		return nil, fmt.Errorf("list item: %w", err)
	}
	listing.ID = id

	// Only after the durable commit does the item leave the seller's
	// holdings.
	if err := s.inventory.Remove(ctx, sellerID, item); err != nil {
		s.log.Error("inventory removal after listing failed",
			zap.Int64("listing", id), zap.String("seller", sellerID), zap.Error(err))
	}

	s.invalidateEnumerations(ctx)
	return &listing, nil
}

// PurchaseReceipt describes a committed purchase.
type PurchaseReceipt struct {
	ListingID  int64  `json:"listing_id"`
	SellerID   string `json:"seller_id"`
	SellerName string `json:"seller_name"`
	ItemName   string `json:"item_name"`
	Quantity   int    `json:"quantity"`
	TotalPrice int64  `json:"total_price"`
}

// Purchase buys quantity units of a listing for the buyer. The guarded
// decrement inside the transactional unit is the authoritative stock
// check; the pre-checks are advisory. No partial purchase is ever
// observable: any failure inside the unit rolls back everything.
func (s *MarketService) Purchase(ctx context.Context, buyerID string, listingID int64, quantity int) (*PurchaseReceipt, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	listing, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		s.log.Error("fetch listing failed", zap.Int64("listing", listingID), zap.Error(err))
		return nil, fmt.Errorf("purchase: %w", err)
	}
	if listing == nil {
		return nil, ErrNotFound
	}
	if listing.SellerID == buyerID {
		return nil, ErrSelfPurchase
	}
	if quantity > listing.QuantityRemaining {
		return nil, ErrInsufficientStock
	}

	item, err := model.DecodeItem(listing.ItemPayload)
	if err != nil {
		s.log.Warn("listing has undecodable item payload", zap.Int64("listing", listingID))
		return nil, model.ErrInvalidItem
	}

	totalPrice := listing.PricePerUnit() * int64(quantity)

	has, err := s.currency.Has(ctx, buyerID, totalPrice)
	if err != nil {
		s.log.Error("balance check failed", zap.String("buyer", buyerID), zap.Error(err))
		return nil, fmt.Errorf("purchase: %w", err)
	}
	if !has {
		return nil, ErrInsufficientFunds
	}

	err = s.store.InTx(ctx, func(tx repository.TxOps) error {
		ok, err := tx.DecrementListing(ctx, listingID, quantity)
		if err != nil {
			return err
		}
		if !ok {
			// Stock vanished or shrank between the advisory check and
			// the guarded write. Hard abort of the whole unit.
			return ErrInsufficientStock
		}

		if err := s.currency.Withdraw(ctx, buyerID, totalPrice); err != nil {
			return fmt.Errorf("withdraw: %w", err)
		}

		// The ledger is outside the DB transaction, so a failure past
		// this point compensates the debit before rolling back.
		if err := s.appendPurchaseEntries(ctx, tx, listing, item, buyerID, quantity, totalPrice); err != nil {
			if depErr := s.currency.Deposit(ctx, buyerID, totalPrice); depErr != nil {
				s.log.Error("compensating deposit failed",
					zap.String("buyer", buyerID), zap.Int64("amount", totalPrice), zap.Error(depErr))
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			return nil, ErrInsufficientStock
		}
		s.log.Error("purchase transaction failed",
			zap.Int64("listing", listingID), zap.String("buyer", buyerID), zap.Error(err))
		return nil, fmt.Errorf("purchase: %w", err)
	}

	s.invalidateEnumerations(ctx)
	s.notifySale(listing, item, quantity, totalPrice, buyerID)

	return &PurchaseReceipt{
		ListingID:  listingID,
		SellerID:   listing.SellerID,
		SellerName: listing.SellerName,
		ItemName:   item.Name(),
		Quantity:   quantity,
		TotalPrice: totalPrice,
	}, nil
}

func (s *MarketService) appendPurchaseEntries(ctx context.Context, tx repository.TxOps, listing *model.Listing, item *model.Item, buyerID string, quantity int, totalPrice int64) error {
	scaled, err := item.WithAmount(quantity).Encode()
	if err != nil {
		return fmt.Errorf("encode purchased item: %w", err)
	}

	_, err = tx.AppendMailbox(ctx, model.MailboxEntry{
		OwnerID:     listing.SellerID,
		Kind:        model.MailboxMoney,
		MoneyAmount: totalPrice,
		SourceInfo:  model.SanitizeSourceInfo(fmt.Sprintf("Sold: %s x%d", item.Name(), quantity)),
	})
	if err != nil {
		return err
	}

	_, err = tx.AppendMailbox(ctx, model.MailboxEntry{
		OwnerID:     buyerID,
		Kind:        model.MailboxItem,
		ItemPayload: scaled,
		SourceInfo:  model.SanitizeSourceInfo("Purchased from " + listing.SellerName),
	})
	return err
}

// Cancel removes the owner's listing and returns the unsold quantity to
// their mailbox in one transactional unit.
func (s *MarketService) Cancel(ctx context.Context, ownerID string, listingID int64) error {
	listing, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		s.log.Error("fetch listing failed", zap.Int64("listing", listingID), zap.Error(err))
		return fmt.Errorf("cancel: %w", err)
	}
	if listing == nil {
		return ErrNotFound
	}
	if listing.SellerID != ownerID {
		return ErrNotOwner
	}

	// Scale the returned item to the unsold quantity when the payload
	// decodes; an undecodable payload is carried back unchanged so the
	// entry stays safely removable.
	returnedPayload := listing.ItemPayload
	if item, decErr := model.DecodeItem(listing.ItemPayload); decErr == nil {
		if scaled, encErr := item.WithAmount(listing.QuantityRemaining).Encode(); encErr == nil {
			returnedPayload = scaled
		}
	} else {
		s.log.Warn("canceling listing with undecodable item payload", zap.Int64("listing", listingID))
	}

	err = s.store.InTx(ctx, func(tx repository.TxOps) error {
		removed, err := tx.DeleteListing(ctx, listingID)
		if err != nil {
			return err
		}
		if !removed {
			// Drained or swept by a concurrent operation.
			return ErrNotFound
		}

		_, err = tx.AppendMailbox(ctx, model.MailboxEntry{
			OwnerID:     ownerID,
			Kind:        model.MailboxItem,
			ItemPayload: returnedPayload,
			SourceInfo:  "Canceled auction",
		})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		s.log.Error("cancel transaction failed", zap.Int64("listing", listingID), zap.Error(err))
		return fmt.Errorf("cancel: %w", err)
	}

	s.invalidateEnumerations(ctx)
	return nil
}

// Claim delivers one mailbox entry to its owner and removes it. Money
// is credited then removed; items are delivered then removed. The two
// steps are deliberately not one database transaction: the
// deliver-then-remove ordering matches observable behavior under crash,
// at the documented cost of a possible duplicate delivery. The
// idempotent remove guards double-claims.
func (s *MarketService) Claim(ctx context.Context, ownerID string, entryID int64) (*model.MailboxEntry, error) {
	entry, err := s.store.GetMailboxEntry(ctx, entryID)
	if err != nil {
		s.log.Error("fetch mailbox entry failed", zap.Int64("entry", entryID), zap.Error(err))
		return nil, fmt.Errorf("claim: %w", err)
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	if entry.OwnerID != ownerID {
		return nil, ErrNotOwner
	}

	if entry.IsMoney() {
		if err := s.currency.Deposit(ctx, ownerID, entry.MoneyAmount); err != nil {
			s.log.Error("deposit failed", zap.String("owner", ownerID), zap.Error(err))
			return nil, fmt.Errorf("claim: %w", err)
		}
		return s.finishClaim(ctx, entry)
	}

	item, decErr := model.DecodeItem(entry.ItemPayload)
	if decErr != nil {
		// The record renders as invalid; claiming it is a safe removal
		// with no delivery attempted.
		s.log.Warn("claiming mailbox entry with undecodable item payload", zap.Int64("entry", entryID))
		return s.finishClaim(ctx, entry)
	}

	space, err := s.inventory.HasSpaceFor(ctx, ownerID, item)
	if err != nil {
		s.log.Error("inventory space check failed", zap.String("owner", ownerID), zap.Error(err))
		return nil, fmt.Errorf("claim: %w", err)
	}
	if !space {
		return nil, ErrNoSpace
	}

	added, err := s.inventory.Add(ctx, ownerID, item)
	if err != nil {
		s.log.Error("inventory delivery failed", zap.String("owner", ownerID), zap.Error(err))
		return nil, fmt.Errorf("claim: %w", err)
	}
	if !added {
		return nil, ErrNoSpace
	}

	return s.finishClaim(ctx, entry)
}

func (s *MarketService) finishClaim(ctx context.Context, entry *model.MailboxEntry) (*model.MailboxEntry, error) {
	removed, err := s.store.RemoveMailboxEntry(ctx, entry.ID)
	if err != nil {
		s.log.Error("remove mailbox entry failed", zap.Int64("entry", entry.ID), zap.Error(err))
		return nil, fmt.Errorf("claim: %w", err)
	}
	if !removed {
		return nil, ErrAlreadyClaimed
	}
	return entry, nil
}

// Listing returns one listing by id, or ErrNotFound.
func (s *MarketService) Listing(ctx context.Context, id int64) (*model.Listing, error) {
	listing, err := s.store.GetListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if listing == nil {
		return nil, ErrNotFound
	}
	return listing, nil
}

// Listings returns all active listings, newest first, memoized briefly.
func (s *MarketService) Listings(ctx context.Context) ([]model.Listing, error) {
	return cachedEnumeration(ctx, s, cacheKeyListings, func() ([]model.Listing, error) {
		return s.store.ActiveListings(ctx)
	})
}

// ListingsFor returns one seller's active listings, newest first.
func (s *MarketService) ListingsFor(ctx context.Context, sellerID string) ([]model.Listing, error) {
	return s.store.ListingsBySeller(ctx, sellerID)
}

// ListingsMatching returns active listings whose search key contains term.
func (s *MarketService) ListingsMatching(ctx context.Context, term string) ([]model.Listing, error) {
	return s.store.ListingsMatching(ctx, term)
}

// Sellers returns sellers with active listings, rank-sorted.
func (s *MarketService) Sellers(ctx context.Context) ([]model.SellerInfo, error) {
	sellers, err := cachedEnumeration(ctx, s, cacheKeySellers, func() ([]model.SellerInfo, error) {
		return s.store.SellersWithListings(ctx)
	})
	if err != nil {
		return nil, err
	}
	return s.sorter.Sort(ctx, sellers), nil
}

// SellersMatching returns sellers with matching active listings, rank-sorted.
func (s *MarketService) SellersMatching(ctx context.Context, term string) ([]model.SellerInfo, error) {
	sellers, err := s.store.SellersMatching(ctx, term)
	if err != nil {
		return nil, err
	}
	return s.sorter.Sort(ctx, sellers), nil
}

// MailboxFor returns the owner's deferred deliveries, newest first.
func (s *MarketService) MailboxFor(ctx context.Context, ownerID string) ([]model.MailboxEntry, error) {
	return s.store.MailboxFor(ctx, ownerID)
}

// listingLimit resolves the seller's active-listing cap: the first
// oracle-ordered group with a configured cap wins, else the default.
func (s *MarketService) listingLimit(ctx context.Context, sellerID string) int {
	if s.oracle == nil {
		return s.defaultLimit
	}

	groups, err := s.oracle.GroupsOf(ctx, sellerID)
	if err != nil {
		return s.defaultLimit
	}
	for _, group := range groups {
		if limit, ok := s.groupLimits[strings.ToLower(group)]; ok {
			return limit
		}
	}
	return s.defaultLimit
}

func (s *MarketService) notifySale(listing *model.Listing, item *model.Item, quantity int, totalPrice int64, buyerID string) {
	if s.notifier == nil {
		return
	}
	if s.notifier.Reachable(listing.SellerID) {
		s.notifier.Notify(listing.SellerID,
			fmt.Sprintf("Sold %s x%d for %d", item.Name(), quantity, totalPrice))
	}
	s.notifier.Notify(buyerID,
		fmt.Sprintf("Purchased %s x%d for %d", item.Name(), quantity, totalPrice))
}

func (s *MarketService) invalidateEnumerations(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKeyListings, cacheKeySellers); err != nil {
		s.log.Warn("cache invalidation failed", zap.Error(err))
	}
}

// cachedEnumeration memoizes an enumeration as JSON under key when a
// cache is configured, falling through to the store on miss or any
// cache failure.
func cachedEnumeration[T any](ctx context.Context, s *MarketService, key string, fetch func() ([]T, error)) ([]T, error) {
	if s.cache == nil {
		return fetch()
	}

	if data, err := s.cache.Get(ctx, key); err == nil {
		var out []T
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
	}

	out, err := fetch()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(out); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}
