package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS active_auctions (
		id INT AUTO_INCREMENT PRIMARY KEY,
		seller_id VARCHAR(36) NOT NULL,
		seller_name VARCHAR(64) NOT NULL,
		item_payload BLOB NOT NULL,
		item_name_lowercase VARCHAR(255) NOT NULL,
		price_total BIGINT NOT NULL,
		quantity_initial INT NOT NULL,
		quantity_remaining INT NOT NULL,
		listed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_auctions_seller (seller_id),
		INDEX idx_auctions_item_name (item_name_lowercase)
	)`,
	`CREATE TABLE IF NOT EXISTS mailbox (
		id INT AUTO_INCREMENT PRIMARY KEY,
		owner_id VARCHAR(36) NOT NULL,
		kind ENUM('ITEM', 'MONEY') NOT NULL,
		item_payload BLOB NULL,
		money_amount BIGINT NULL,
		source_info VARCHAR(255) NULL,
		added_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_mailbox_owner (owner_id)
	)`,
}

// NewMySQLStore opens the MySQL datastore. The DSN must include
// parseTime=true so timestamps scan into time.Time.
func NewMySQLStore(dsn string, log *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	for _, stmt := range mysqlSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}

	log.Info("mysql store initialized")
	return &SQLStore{db: db, log: log}, nil
}
