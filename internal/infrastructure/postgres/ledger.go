package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
)

// LedgerRepository stores purchase history in the purchases table.
type LedgerRepository struct {
	db *sql.DB
}

var _ purchase.LedgerRepository = (*LedgerRepository)(nil)

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Append(ctx context.Context, e purchase.Entry) error {
	ids := e.ItemIDs
	if ids == nil {
		ids = []int64{}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO purchases (id, user_id, kind, item_ids, total, balance_after, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING`,
		e.ID, e.UserID, string(e.Kind), pq.Array(ids), e.Total, e.BalanceAfter, e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: append purchase: %w", err)
	}
	return nil
}

func (r *LedgerRepository) ListByUser(ctx context.Context, userID int64) ([]purchase.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, item_ids, total, balance_after, occurred_at
		FROM purchases WHERE user_id = $1 ORDER BY occurred_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list purchases: %w", err)
	}
	defer rows.Close()

	out := []purchase.Entry{}
	for rows.Next() {
		var (
			e    purchase.Entry
			kind string
			ids  pq.Int64Array
		)
		if err := rows.Scan(&e.ID, &e.UserID, &kind, &ids, &e.Total, &e.BalanceAfter, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("postgres: scan purchase: %w", err)
		}
		e.Kind = purchase.Kind(kind)
		e.ItemIDs = []int64(ids)
		out = append(out, e)
	}
	return out, rows.Err()
}
