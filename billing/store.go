/*
store.go - Persistence interfaces for contracts and installments

PURPOSE:
  Defines the boundary between the engine and whatever persists it. The
  engine never performs storage I/O itself: it receives and returns value
  objects, and the service applies each write operation as a single
  all-or-nothing unit through WithTx.

OWNERSHIP:
  Installments are exclusively owned by their contract. The only way to
  write the set is ReplaceInstallments, which swaps the full set in one
  operation - regeneration in the source system deletes and recreates the
  rows, and this interface keeps that destructive shape explicit.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - billing/store: in-memory store for tests and dev

CONCURRENCY NOTE:
  Concurrent edits to the same contract are last-write-wins at this
  boundary. ChangeInstallmentCount is not idempotent; callers must
  serialize per-contract writes or detect conflicting versions upstream.
*/
package billing

import "context"

// =============================================================================
// CONTRACT STORE - Persistence boundary
// =============================================================================

// ContractStore persists contracts and their installment sets.
type ContractStore interface {
	// SaveContract inserts or updates a contract record.
	SaveContract(ctx context.Context, c Contract) error

	// GetContract returns a contract or ErrContractNotFound.
	GetContract(ctx context.Context, id ContractID) (Contract, error)

	// ListContracts returns all contracts, newest first.
	ListContracts(ctx context.Context) ([]Contract, error)

	// Installments returns a contract's installments ordered by number.
	Installments(ctx context.Context, id ContractID) ([]Installment, error)

	// ReplaceInstallments swaps the contract's full installment set.
	// The previous set is discarded; this is the destructive operation
	// behind schedule regeneration.
	ReplaceInstallments(ctx context.Context, id ContractID, installments []Installment) error

	// UpdateInstallment updates a single installment's payment state.
	UpdateInstallment(ctx context.Context, inst Installment) error
}

// TxContractStore wraps ContractStore with transaction support. The
// service requires it: a reconciled contract and its installment set must
// never be observable with one updated and the other not.
type TxContractStore interface {
	ContractStore

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(ContractStore) error) error
}
