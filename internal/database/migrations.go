package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			sequence BIGINT PRIMARY KEY,
			entry_when TEXT NOT NULL,
			who TEXT NOT NULL,
			what TEXT,
			total_amount TEXT,
			iva TEXT,
			has_receipt TEXT,
			store_name TEXT,
			payment_method TEXT,
			charge_to TEXT,
			comments TEXT,
			company TEXT,
			invoice_number TEXT,
			supplier_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_ledger_entries_who ON ledger_entries(who)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_entries_created_at ON ledger_entries(created_at)`,
	}

	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
