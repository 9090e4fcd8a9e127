package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"auctionhouse-api/internal/model"

	"go.uber.org/zap"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so the same queries
// serve the plain and transactional paths.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const listingColumns = "id, seller_id, seller_name, item_payload, item_name_lowercase, " +
	"price_total, quantity_initial, quantity_remaining, listed_at"

const mailboxColumns = "id, owner_id, kind, item_payload, money_amount, source_info, added_at"

// SQLStore implements Store over database/sql. The queries are
// placeholder-compatible across the sqlite and mysql backends; only
// connection setup and DDL differ (see sqlite.go / mysql.go).
type SQLStore struct {
	db  *sql.DB
	log *zap.Logger
}

// CreateListing persists a new listing and returns its id.
func (s *SQLStore) CreateListing(ctx context.Context, l model.Listing) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO active_auctions (seller_id, seller_name, item_payload, item_name_lowercase,
			price_total, quantity_initial, quantity_remaining, listed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.SellerID, l.SellerName, l.ItemPayload, l.ItemNameLowercase,
		l.PriceTotal, l.QuantityInitial, l.QuantityRemaining, l.ListedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert listing: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("listing id: %w", err)
	}
	return id, nil
}

// GetListing returns a listing by id, or nil if not found.
func (s *SQLStore) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+listingColumns+" FROM active_auctions WHERE id = ?", id)

	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query listing: %w", err)
	}
	return l, nil
}

// ActiveListings returns all listings with stock remaining, newest first.
func (s *SQLStore) ActiveListings(ctx context.Context) ([]model.Listing, error) {
	return s.queryListings(ctx, "SELECT "+listingColumns+
		" FROM active_auctions WHERE quantity_remaining > 0 ORDER BY listed_at DESC, id DESC")
}

// ListingsBySeller returns one seller's active listings, newest first.
func (s *SQLStore) ListingsBySeller(ctx context.Context, sellerID string) ([]model.Listing, error) {
	return s.queryListings(ctx, "SELECT "+listingColumns+
		" FROM active_auctions WHERE seller_id = ? AND quantity_remaining > 0 ORDER BY listed_at DESC, id DESC",
		sellerID)
}

// ListingsMatching returns active listings whose search key contains term.
func (s *SQLStore) ListingsMatching(ctx context.Context, term string) ([]model.Listing, error) {
	return s.queryListings(ctx, "SELECT "+listingColumns+
		" FROM active_auctions WHERE quantity_remaining > 0 AND item_name_lowercase LIKE ? ORDER BY listed_at DESC, id DESC",
		"%"+strings.ToLower(term)+"%")
}

// SellersWithListings returns distinct sellers with active listings.
func (s *SQLStore) SellersWithListings(ctx context.Context) ([]model.SellerInfo, error) {
	return s.querySellers(ctx, `
		SELECT DISTINCT seller_id, seller_name FROM active_auctions
		WHERE quantity_remaining > 0 ORDER BY seller_name`)
}

// SellersMatching returns distinct sellers holding matching active listings.
func (s *SQLStore) SellersMatching(ctx context.Context, term string) ([]model.SellerInfo, error) {
	return s.querySellers(ctx, `
		SELECT DISTINCT seller_id, seller_name FROM active_auctions
		WHERE quantity_remaining > 0 AND item_name_lowercase LIKE ? ORDER BY seller_name`,
		"%"+strings.ToLower(term)+"%")
}

// CountListingsBySeller returns the seller's total listing count.
func (s *SQLStore) CountListingsBySeller(ctx context.Context, sellerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM active_auctions WHERE seller_id = ?", sellerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return count, nil
}

// SweepExhausted deletes all listings at or below zero remaining.
func (s *SQLStore) SweepExhausted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM active_auctions WHERE quantity_remaining <= 0")
	if err != nil {
		return 0, fmt.Errorf("sweep exhausted listings: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info("swept exhausted listings", zap.Int64("removed", removed))
	}
	return removed, nil
}

// MailboxFor returns all deferred deliveries for one owner, newest first.
func (s *SQLStore) MailboxFor(ctx context.Context, ownerID string) ([]model.MailboxEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+mailboxColumns+
		" FROM mailbox WHERE owner_id = ? ORDER BY added_at DESC, id DESC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("query mailbox: %w", err)
	}
	defer rows.Close()

	var entries []model.MailboxEntry
	for rows.Next() {
		e, err := scanMailboxEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mailbox entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// GetMailboxEntry returns one entry by id, or nil if not found.
func (s *SQLStore) GetMailboxEntry(ctx context.Context, id int64) (*model.MailboxEntry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+mailboxColumns+" FROM mailbox WHERE id = ?", id)

	e, err := scanMailboxEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query mailbox entry: %w", err)
	}
	return e, nil
}

// RemoveMailboxEntry deletes one entry, reporting whether a row was removed.
func (s *SQLStore) RemoveMailboxEntry(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM mailbox WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("remove mailbox entry: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// InTx runs fn inside one transaction; any error rolls back everything.
func (s *SQLStore) InTx(ctx context.Context, fn func(tx TxOps) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txOps{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) queryListings(ctx context.Context, query string, args ...interface{}) ([]model.Listing, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

func (s *SQLStore) querySellers(ctx context.Context, query string, args ...interface{}) ([]model.SellerInfo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sellers: %w", err)
	}
	defer rows.Close()

	var sellers []model.SellerInfo
	for rows.Next() {
		var info model.SellerInfo
		if err := rows.Scan(&info.ID, &info.Name); err != nil {
			return nil, fmt.Errorf("scan seller: %w", err)
		}
		sellers = append(sellers, info)
	}
	return sellers, rows.Err()
}

// txOps implements TxOps over an open transaction.
type txOps struct {
	tx *sql.Tx
}

func (t *txOps) DecrementListing(ctx context.Context, id int64, amount int) (bool, error) {
	// The WHERE guard makes concurrent over-selling structurally
	// impossible; RowsAffected is the sole source of truth.
	res, err := t.tx.ExecContext(ctx, `
		UPDATE active_auctions SET quantity_remaining = quantity_remaining - ?
		WHERE id = ? AND quantity_remaining >= ?`,
		amount, id, amount,
	)
	if err != nil {
		return false, fmt.Errorf("decrement listing: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	// Drained listings are removed in the same unit.
	_, err = t.tx.ExecContext(ctx,
		"DELETE FROM active_auctions WHERE id = ? AND quantity_remaining <= 0", id)
	if err != nil {
		return false, fmt.Errorf("delete drained listing: %w", err)
	}
	return true, nil
}

func (t *txOps) DeleteListing(ctx context.Context, id int64) (bool, error) {
	res, err := t.tx.ExecContext(ctx, "DELETE FROM active_auctions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete listing: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (t *txOps) AppendMailbox(ctx context.Context, e model.MailboxEntry) (int64, error) {
	var payload interface{}
	if e.Kind == model.MailboxItem {
		payload = e.ItemPayload
	}

	addedAt := e.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now()
	}

	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO mailbox (owner_id, kind, item_payload, money_amount, source_info, added_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.OwnerID, string(e.Kind), payload, e.MoneyAmount, e.SourceInfo, addedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("append mailbox entry: %w", err)
	}
	return res.LastInsertId()
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*model.Listing, error) {
	var l model.Listing
	err := row.Scan(&l.ID, &l.SellerID, &l.SellerName, &l.ItemPayload, &l.ItemNameLowercase,
		&l.PriceTotal, &l.QuantityInitial, &l.QuantityRemaining, &l.ListedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanMailboxEntry(row rowScanner) (*model.MailboxEntry, error) {
	var (
		e      model.MailboxEntry
		kind   string
		amount sql.NullInt64
		source sql.NullString
	)
	err := row.Scan(&e.ID, &e.OwnerID, &kind, &e.ItemPayload, &amount, &source, &e.AddedAt)
	if err != nil {
		return nil, err
	}
	e.Kind = model.MailboxKind(kind)
	if amount.Valid {
		e.MoneyAmount = amount.Int64
	}
	if source.Valid {
		e.SourceInfo = source.String
	}
	return &e, nil
}

// Ensure SQLStore implements Store.
var _ Store = (*SQLStore)(nil)
