package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/item"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

const componentStore = "postgres_store"

// Store runs every unit of work in one database transaction.
type Store struct {
	db  *sql.DB
	log observability.Logger
}

var _ store.Store = (*Store)(nil)

func New(db *sql.DB, logger observability.Logger) *Store {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Store{db: db, log: logger.With(observability.F("component", componentStore))}
}

// Open connects with lib/pq and checks the connection.
func Open(ctx context.Context, dsn string, logger observability.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return New(db, logger), nil
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.run(ctx, nil, fn)
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (s *Store) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	if err := fn(ctx, &tx{q: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			logctx.FromOr(ctx, s.log).Warn("store_rollback_failed", observability.F("error", rbErr))
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type tx struct{ q querier }

func (t *tx) Users() user.Repository { return userRepo{t.q} }
func (t *tx) Items() item.Repository { return itemRepo{t.q} }
func (t *tx) Carts() cart.Repository { return cartRepo{t.q} }

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	id := n.Int64
	return &id
}

func expectOne(res sql.Result, notFound error, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", notFound, id)
	}
	return nil
}
