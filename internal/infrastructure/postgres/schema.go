package postgres

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name  TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL,
		age        INTEGER NOT NULL DEFAULT 0 CHECK (age >= 0),
		password   TEXT NOT NULL DEFAULT '',
		sex        TEXT NOT NULL DEFAULT '',
		balance    NUMERIC(20, 4) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		cart_id    BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id                BIGSERIAL PRIMARY KEY,
		name              TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		price             BIGINT NOT NULL CHECK (price >= 0),
		quantity_in_stock INTEGER NOT NULL DEFAULT 0,
		owner_id          BIGINT,
		adult_product     BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS items_owner_id_idx ON items (owner_id)`,
	`CREATE TABLE IF NOT EXISTS carts (
		id       BIGSERIAL PRIMARY KEY,
		user_id  BIGINT NOT NULL UNIQUE,
		item_ids BIGINT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id            TEXT PRIMARY KEY,
		user_id       BIGINT NOT NULL,
		kind          TEXT NOT NULL,
		item_ids      BIGINT[] NOT NULL DEFAULT '{}',
		total         BIGINT NOT NULL,
		balance_after NUMERIC(20, 4) NOT NULL,
		occurred_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS purchases_user_id_idx ON purchases (user_id, occurred_at)`,
}

// Migrate creates the tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migration %d: %w", i, err)
		}
	}
	s.log.Info("store_migrated", observability.F("statements", len(migrations)))
	return nil
}
