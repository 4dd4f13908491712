/*
Package sqlite provides a SQLite-backed implementation of the billing
storage interfaces.

PURPOSE:
  Implements billing.ContractStore and billing.TxContractStore using
  SQLite. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  contracts:    Agreement records with derived received/pending totals
  installments: The per-contract schedule, exclusively owned by contracts

OWNERSHIP:
  installments.contract_id references contracts(id) with ON DELETE
  CASCADE, and (contract_id, number) is unique - one numbering scheme per
  contract, no duplicates. ReplaceInstallments swaps the full set inside
  the surrounding transaction.

ATOMICITY:
  WithTx wraps a database transaction. The billing service persists the
  reconciled contract and the full installment set within one WithTx call,
  so readers never observe one updated without the other.

ENCODING:
  Money as decimal TEXT (never floats), calendar dates as YYYY-MM-DD,
  timestamps as RFC3339.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block and there's a single writer at a time.

SEE ALSO:
  - billing/store.go: Interface definitions
  - billing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/carebill/billing-engine/billing"
)

// Store implements billing.TxContractStore using SQLite.
type Store struct {
	db *sql.DB
	q  querier
}

// querier abstracts *sql.DB and *sql.Tx so the same methods serve both
// direct calls and calls inside WithTx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, q: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		description TEXT,
		total_amount TEXT NOT NULL,
		arrangement TEXT NOT NULL,
		installment_count INTEGER NOT NULL,
		cadence_kind TEXT NOT NULL,
		cadence_days INTEGER NOT NULL DEFAULT 0,
		first_due_date TEXT NOT NULL,
		amount_received TEXT NOT NULL,
		amount_pending TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_client
		ON contracts(client_id);
	CREATE INDEX IF NOT EXISTS idx_contracts_created
		ON contracts(created_at DESC);

	CREATE TABLE IF NOT EXISTS installments (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		number INTEGER NOT NULL,
		total_installments INTEGER NOT NULL,
		amount TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		due_date TEXT NOT NULL,
		status TEXT NOT NULL,
		paid_at TEXT
	);

	-- One numbering scheme per contract: no duplicates.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_installments_contract_number
		ON installments(contract_id, number);
	CREATE INDEX IF NOT EXISTS idx_installments_due
		ON installments(due_date);
	CREATE INDEX IF NOT EXISTS idx_installments_status
		ON installments(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CONTRACTS
// =============================================================================

func (s *Store) SaveContract(ctx context.Context, c billing.Contract) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO contracts (
			id, client_id, description, total_amount, arrangement,
			installment_count, cadence_kind, cadence_days, first_due_date,
			amount_received, amount_pending, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			description = excluded.description,
			total_amount = excluded.total_amount,
			arrangement = excluded.arrangement,
			installment_count = excluded.installment_count,
			cadence_kind = excluded.cadence_kind,
			cadence_days = excluded.cadence_days,
			first_due_date = excluded.first_due_date,
			amount_received = excluded.amount_received,
			amount_pending = excluded.amount_pending,
			updated_at = excluded.updated_at`,
		string(c.ID), string(c.ClientID), c.Description,
		c.TotalAmount.Value.String(), string(c.Arrangement),
		c.InstallmentCount, string(c.Cadence.Kind), c.Cadence.Days,
		c.FirstDueDate.String(),
		c.AmountReceived.Value.String(), c.AmountPending.Value.String(),
		c.CreatedAt.UTC().Format(time.RFC3339), c.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save contract: %w", err)
	}
	return nil
}

func (s *Store) GetContract(ctx context.Context, id billing.ContractID) (billing.Contract, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, client_id, description, total_amount, arrangement,
		       installment_count, cadence_kind, cadence_days, first_due_date,
		       amount_received, amount_pending, created_at, updated_at
		FROM contracts WHERE id = ?`, string(id))

	c, err := scanContract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Contract{}, billing.ErrContractNotFound
	}
	if err != nil {
		return billing.Contract{}, fmt.Errorf("get contract: %w", err)
	}
	return c, nil
}

func (s *Store) ListContracts(ctx context.Context) ([]billing.Contract, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, client_id, description, total_amount, arrangement,
		       installment_count, cadence_kind, cadence_days, first_due_date,
		       amount_received, amount_pending, created_at, updated_at
		FROM contracts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	var contracts []billing.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("list contracts: %w", err)
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

func (s *Store) Installments(ctx context.Context, id billing.ContractID) ([]billing.Installment, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, contract_id, number, total_installments, amount,
		       amount_paid, due_date, status, paid_at
		FROM installments WHERE contract_id = ? ORDER BY number`, string(id))
	if err != nil {
		return nil, fmt.Errorf("load installments: %w", err)
	}
	defer rows.Close()

	var installments []billing.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("load installments: %w", err)
		}
		installments = append(installments, inst)
	}
	return installments, rows.Err()
}

func (s *Store) ReplaceInstallments(ctx context.Context, id billing.ContractID, installments []billing.Installment) error {
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM installments WHERE contract_id = ?`, string(id)); err != nil {
		return fmt.Errorf("replace installments: %w", err)
	}

	for _, inst := range installments {
		var paidAt any
		if inst.PaidAt != nil {
			paidAt = inst.PaidAt.UTC().Format(time.RFC3339)
		}
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO installments (
				id, contract_id, number, total_installments, amount,
				amount_paid, due_date, status, paid_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(inst.ID), string(inst.ContractID), inst.Number,
			inst.TotalInstallments, inst.Amount.Value.String(),
			inst.AmountPaid.Value.String(), inst.DueDate.String(),
			string(inst.Status), paidAt,
		)
		if err != nil {
			return fmt.Errorf("replace installments: %w", err)
		}
	}
	return nil
}

func (s *Store) UpdateInstallment(ctx context.Context, inst billing.Installment) error {
	var paidAt any
	if inst.PaidAt != nil {
		paidAt = inst.PaidAt.UTC().Format(time.RFC3339)
	}
	res, err := s.q.ExecContext(ctx, `
		UPDATE installments
		SET amount = ?, amount_paid = ?, due_date = ?, status = ?, paid_at = ?
		WHERE contract_id = ? AND number = ?`,
		inst.Amount.Value.String(), inst.AmountPaid.Value.String(),
		inst.DueDate.String(), string(inst.Status), paidAt,
		string(inst.ContractID), inst.Number,
	)
	if err != nil {
		return fmt.Errorf("update installment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update installment: %w", err)
	}
	if n == 0 {
		return billing.ErrInstallmentNotFound
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction. The store passed to
// fn shares the same methods but runs on the transaction.
func (s *Store) WithTx(ctx context.Context, fn func(billing.ContractStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txStore := &Store{db: s.db, q: tx}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// =============================================================================
// ROW SCANNING
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (billing.Contract, error) {
	var (
		c                                      billing.Contract
		id, clientID, arrangement, cadenceKind string
		totalAmount, received, pending         string
		firstDue, createdAt, updatedAt         string
		description                            sql.NullString
	)
	err := row.Scan(&id, &clientID, &description, &totalAmount, &arrangement,
		&c.InstallmentCount, &cadenceKind, &c.Cadence.Days, &firstDue,
		&received, &pending, &createdAt, &updatedAt)
	if err != nil {
		return billing.Contract{}, err
	}

	c.ID = billing.ContractID(id)
	c.ClientID = billing.ClientID(clientID)
	c.Description = description.String
	c.Arrangement = billing.Arrangement(arrangement)
	c.Cadence.Kind = billing.CadenceKind(cadenceKind)

	if c.TotalAmount, err = parseMoney(totalAmount); err != nil {
		return billing.Contract{}, err
	}
	if c.AmountReceived, err = parseMoney(received); err != nil {
		return billing.Contract{}, err
	}
	if c.AmountPending, err = parseMoney(pending); err != nil {
		return billing.Contract{}, err
	}
	if c.FirstDueDate, err = billing.ParseDate(firstDue); err != nil {
		return billing.Contract{}, err
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return billing.Contract{}, err
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return billing.Contract{}, err
	}
	return c, nil
}

func scanInstallment(row rowScanner) (billing.Installment, error) {
	var (
		inst                    billing.Installment
		id, contractID, status  string
		amount, amountPaid, due string
		paidAt                  sql.NullString
	)
	err := row.Scan(&id, &contractID, &inst.Number, &inst.TotalInstallments,
		&amount, &amountPaid, &due, &status, &paidAt)
	if err != nil {
		return billing.Installment{}, err
	}

	inst.ID = billing.InstallmentID(id)
	inst.ContractID = billing.ContractID(contractID)
	inst.Status = billing.InstallmentStatus(status)

	if inst.Amount, err = parseMoney(amount); err != nil {
		return billing.Installment{}, err
	}
	if inst.AmountPaid, err = parseMoney(amountPaid); err != nil {
		return billing.Installment{}, err
	}
	if inst.DueDate, err = billing.ParseDate(due); err != nil {
		return billing.Installment{}, err
	}
	if paidAt.Valid {
		t, err := time.Parse(time.RFC3339, paidAt.String)
		if err != nil {
			return billing.Installment{}, err
		}
		inst.PaidAt = &t
	}
	return inst, nil
}

func parseMoney(s string) (billing.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return billing.Money{}, fmt.Errorf("invalid stored amount %q: %w", s, err)
	}
	return billing.Money{Value: d}, nil
}
