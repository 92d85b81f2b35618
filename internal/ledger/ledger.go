// Package ledger appends confirmed receipts to the append-only ledger
// and reports its highest sequence number.
package ledger

import (
	"context"
	"fmt"

	"gitlab.com/idrea/receipt-ledger-bot/internal/database"
	"gitlab.com/idrea/receipt-ledger-bot/internal/models"
)

// Ledger is the append-only record of confirmed receipts.
type Ledger interface {
	// MaxSequence returns the highest sequence number present in the
	// ledger, or 0 when the ledger is empty.
	MaxSequence(ctx context.Context) (int64, error)

	// Append writes one row. values must follow the fixed column order
	// of models.LedgerColumns after the sequence column.
	Append(ctx context.Context, sequence int64, values []string) error
}

// Postgres stores the ledger in a ledger_entries table.
type Postgres struct {
	db database.PGXDB
}

// NewPostgres creates a Postgres ledger.
func NewPostgres(db database.PGXDB) *Postgres {
	return &Postgres{db: db}
}

var _ Ledger = (*Postgres)(nil)

// MaxSequence scans the sequence column for its maximum.
func (l *Postgres) MaxSequence(ctx context.Context) (int64, error) {
	var max int64
	err := l.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(sequence), 0) FROM ledger_entries
	`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to read max sequence: %w", err)
	}
	return max, nil
}

// Append inserts one ledger row. The sequence column is the primary key,
// so a duplicate number is rejected by the database rather than silently
// overwriting an earlier receipt.
func (l *Postgres) Append(ctx context.Context, sequence int64, values []string) error {
	if len(values) != len(models.LedgerColumns)-1 {
		return fmt.Errorf("expected %d ledger values, got %d", len(models.LedgerColumns)-1, len(values))
	}

	args := make([]any, 0, len(values)+1)
	args = append(args, sequence)
	for _, v := range values {
		args = append(args, v)
	}

	_, err := l.db.Exec(ctx, `
		INSERT INTO ledger_entries (
			sequence, entry_when, who, what, total_amount, iva, has_receipt,
			store_name, payment_method, charge_to, comments, company,
			invoice_number, supplier_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to append ledger row: %w", err)
	}
	return nil
}
