package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS active_auctions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	seller_id TEXT NOT NULL,
	seller_name TEXT NOT NULL,
	item_payload BLOB NOT NULL,
	item_name_lowercase TEXT NOT NULL,
	price_total INTEGER NOT NULL,
	quantity_initial INTEGER NOT NULL,
	quantity_remaining INTEGER NOT NULL,
	listed_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_auctions_seller ON active_auctions(seller_id);
CREATE INDEX IF NOT EXISTS idx_auctions_item_name ON active_auctions(item_name_lowercase);

CREATE TABLE IF NOT EXISTS mailbox (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id TEXT NOT NULL,
	kind TEXT NOT NULL CHECK (kind IN ('ITEM', 'MONEY')),
	item_payload BLOB NULL,
	money_amount INTEGER NULL,
	source_info TEXT NULL,
	added_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mailbox_owner ON mailbox(owner_id);
`

// NewSQLiteStore opens (or creates) the SQLite datastore at dbPath.
// WAL mode for concurrent readers; the pool is capped at one connection
// because SQLite only supports a single writer.
func NewSQLiteStore(dbPath string, log *zap.Logger) (*SQLStore, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	log.Info("sqlite store initialized", zap.String("path", dbPath))
	return &SQLStore{db: db, log: log}, nil
}
