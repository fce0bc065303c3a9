package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// newID returns a store-assigned opaque record ID. ULIDs sort by creation
// time, which keeps ID tiebreaks consistent with created_at ordering.
func newID() string {
	return ulid.Make().String()
}

// Migrate runs idempotent DDL migrations for the marketplace schema.
func Migrate(db *sql.DB) error {
	stmts := []string{
		// Users. rating/rating_count hold the denormalized seller aggregate.
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email VARCHAR(100) UNIQUE NOT NULL,
			first_name VARCHAR(50) NOT NULL,
			last_name VARCHAR(50) NOT NULL,
			photo_url TEXT DEFAULT NULL,
			hashed_password VARCHAR(255) NOT NULL,
			rating REAL NOT NULL DEFAULT 0,
			rating_count INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		// Listings
		`CREATE TABLE IF NOT EXISTS listings (
			id TEXT PRIMARY KEY,
			title VARCHAR(100) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category VARCHAR(50) NOT NULL,
			subcategory VARCHAR(50) NOT NULL DEFAULT '',
			price REAL NOT NULL,
			firm BOOLEAN NOT NULL DEFAULT 0,
			image_urls TEXT NOT NULL DEFAULT '[]',
			seller_id TEXT NOT NULL,
			buyer_id TEXT DEFAULT NULL,
			status VARCHAR(10) NOT NULL DEFAULT 'active',
			boosted BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (seller_id) REFERENCES users(id)
		);`,
		// Ratings. The unique index backs the one-rating-per-transaction rule;
		// the application still checks before writing so the duplicate surfaces
		// as a business error, not a constraint violation.
		`CREATE TABLE IF NOT EXISTS ratings (
			id TEXT PRIMARY KEY,
			seller_id TEXT NOT NULL,
			buyer_id TEXT NOT NULL,
			listing_id TEXT NOT NULL,
			stars INTEGER NOT NULL CHECK (stars BETWEEN 1 AND 5),
			comment TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			UNIQUE (seller_id, buyer_id, listing_id)
		);`,
		// Pending rating prompts
		`CREATE TABLE IF NOT EXISTS pending_ratings (
			id TEXT PRIMARY KEY,
			listing_id TEXT NOT NULL,
			seller_id TEXT NOT NULL,
			buyer_id TEXT NOT NULL,
			listing_title TEXT NOT NULL DEFAULT '',
			reminders_sent INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			UNIQUE (seller_id, buyer_id, listing_id)
		);`,
		// Conversations. last_message/last_time mirror the newest message.
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			listing_id TEXT NOT NULL,
			seller_id TEXT NOT NULL,
			buyer_id TEXT NOT NULL,
			last_message TEXT NOT NULL DEFAULT '',
			last_time DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (listing_id, seller_id, buyer_id)
		);`,
		// Messages
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			body TEXT NOT NULL,
			read BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id)
		);`,
		// Signup verification codes, keyed by email
		`CREATE TABLE IF NOT EXISTS verification_codes (
			email VARCHAR(100) PRIMARY KEY,
			code VARCHAR(6) NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			remember_me BOOLEAN NOT NULL DEFAULT 0,
			expires_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings(seller_id);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_category ON listings(category);`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_seller ON ratings(seller_id);`,
		`CREATE INDEX IF NOT EXISTS idx_pending_ratings_buyer ON pending_ratings(buyer_id);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_seller ON conversations(seller_id);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_buyer ON conversations(buyer_id);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_last_time ON conversations(last_time DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_created ON messages(conversation_id, created_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
