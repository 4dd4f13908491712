/*
service.go - Billing service façade

PURPOSE:
  The single entry point the surrounding application uses. Every flow
  that used to inline schedule/classification arithmetic (new-client
  signup, ad-hoc revenue entry, transaction editing, payment recording)
  goes through here instead.

OPERATIONS:
  CreateContract          Generator -> Classifier -> Reconciler, atomically
  ChangeInstallmentCount  destructive schedule regeneration, acknowledged
  RecordManualPayment     contract-level payment, allocated earliest-first
  SettleInstallment       mark one installment paid, then reconcile

ATOMICITY:
  Every write runs inside store.WithTx: either the reconciled contract and
  the full installment set are persisted together, or nothing is.

CLOCK:
  "today" and "now" come from the injected Clock, never from the ambient
  system time, so every decision here is reproducible in tests.
*/
package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service is the billing façade. Construct with NewService.
type Service struct {
	store  TxContractStore
	clock  Clock
	logger *slog.Logger
}

func NewService(store TxContractStore, clock Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, clock: clock, logger: logger}
}

// =============================================================================
// CREATE CONTRACT
// =============================================================================

// CreateContractInput carries everything the signup and revenue-entry
// flows collect.
type CreateContractInput struct {
	ClientID    ClientID
	Description string
	TotalAmount Money
	Arrangement Arrangement

	// InstallmentCount and Cadence are meaningful for the installments
	// arrangement; lump sum always has exactly one installment.
	InstallmentCount int
	Cadence          Cadence

	// FirstDueDate defaults to today when zero.
	FirstDueDate Date

	// ManualFirstPaid is the operator's "entry already received" override:
	// the first installment is settled even if its due date hasn't passed.
	ManualFirstPaid bool
}

// CreateContract runs Generator -> Classifier -> Reconciler and persists
// the contract with its full installment set atomically. Either all
// records exist and are consistent, or none do.
func (s *Service) CreateContract(ctx context.Context, in CreateContractInput) (Contract, []Installment, error) {
	if !in.Arrangement.Valid() {
		return Contract{}, nil, &InvalidScheduleError{
			Reason: fmt.Sprintf("unknown payment arrangement %q", in.Arrangement),
		}
	}

	count := in.InstallmentCount
	if in.Arrangement == ArrangementLumpSum {
		count = 1
	} else if count < 1 {
		return Contract{}, nil, &InvalidScheduleError{
			Reason: fmt.Sprintf("installment count must be at least 1, got %d", count),
		}
	}

	now := s.clock.Now()
	today := DateOf(now)
	firstDue := in.FirstDueDate
	if firstDue.IsZero() {
		firstDue = today
	}

	schedule, err := GenerateSchedule(in.TotalAmount, count, in.Cadence, firstDue)
	if err != nil {
		return Contract{}, nil, err
	}
	classified := Classify(schedule, today, now, in.ManualFirstPaid)

	contract := Contract{
		ID:               ContractID(uuid.NewString()),
		ClientID:         in.ClientID,
		Description:      in.Description,
		TotalAmount:      in.TotalAmount,
		Arrangement:      in.Arrangement,
		InstallmentCount: count,
		Cadence:          in.Cadence,
		FirstDueDate:     firstDue,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	installments := s.materialize(contract.ID, classified, count)

	contract, _ = Reconcile(contract, installments)
	if err := checkInvariants(contract, installments); err != nil {
		return Contract{}, nil, err
	}

	err = s.store.WithTx(ctx, func(store ContractStore) error {
		if err := store.SaveContract(ctx, contract); err != nil {
			return err
		}
		return store.ReplaceInstallments(ctx, contract.ID, installments)
	})
	if err != nil {
		return Contract{}, nil, fmt.Errorf("persisting contract: %w", err)
	}

	s.logger.Info("contract created",
		"contract_id", contract.ID,
		"client_id", contract.ClientID,
		"total", contract.TotalAmount.StringFixed(),
		"installments", count,
		"received", contract.AmountReceived.StringFixed())
	return contract, installments, nil
}

// =============================================================================
// CHANGE INSTALLMENT COUNT (destructive regeneration)
// =============================================================================

// RegenerationResult is what ChangeInstallmentCount returns: the
// reconciled contract, the new installment set, and a warning when paid
// history was discarded.
type RegenerationResult struct {
	Contract     Contract
	Installments []Installment
	Warning      *DestructiveRegenerationWarning
}

// ChangeInstallmentCount regenerates the schedule from the contract's
// original total and first due date with a new count. The previous
// installment set - including its payment history - is discarded; when
// any prior installment carries a payment, the caller must pass
// acknowledge=true or the call fails with *DestructiveRegenerationError.
//
// Classification reruns with "today" at call time, and the original
// manual-first-paid override is never re-applied.
func (s *Service) ChangeInstallmentCount(ctx context.Context, id ContractID, newCount int, acknowledge bool) (RegenerationResult, error) {
	contract, err := s.store.GetContract(ctx, id)
	if err != nil {
		return RegenerationResult{}, err
	}
	previous, err := s.store.Installments(ctx, id)
	if err != nil {
		return RegenerationResult{}, err
	}

	paidCount := 0
	paidTotal := Zero()
	for _, inst := range previous {
		if inst.AmountPaid.IsPositive() {
			paidCount++
			paidTotal = paidTotal.Add(inst.AmountPaid)
		}
	}

	var warning *DestructiveRegenerationWarning
	if paidCount > 0 {
		if !acknowledge {
			return RegenerationResult{}, &DestructiveRegenerationError{
				ContractID: id,
				PaidCount:  paidCount,
				AmountPaid: paidTotal,
			}
		}
		warning = &DestructiveRegenerationWarning{PaidCount: paidCount, AmountPaid: paidTotal}
	}

	schedule, err := GenerateSchedule(contract.TotalAmount, newCount, contract.Cadence, contract.FirstDueDate)
	if err != nil {
		return RegenerationResult{}, err
	}
	now := s.clock.Now()
	classified := Classify(schedule, DateOf(now), now, false)
	installments := s.materialize(id, classified, newCount)

	contract.InstallmentCount = newCount
	if newCount == 1 {
		contract.Arrangement = ArrangementLumpSum
	} else {
		contract.Arrangement = ArrangementInstallments
	}
	contract.UpdatedAt = now

	contract, _ = Reconcile(contract, installments)
	if err := checkInvariants(contract, installments); err != nil {
		return RegenerationResult{}, err
	}

	err = s.store.WithTx(ctx, func(store ContractStore) error {
		if err := store.ReplaceInstallments(ctx, id, installments); err != nil {
			return err
		}
		return store.SaveContract(ctx, contract)
	})
	if err != nil {
		return RegenerationResult{}, fmt.Errorf("persisting regenerated schedule: %w", err)
	}

	s.logger.Info("schedule regenerated",
		"contract_id", id,
		"new_count", newCount,
		"discarded_paid", paidCount)
	return RegenerationResult{Contract: contract, Installments: installments, Warning: warning}, nil
}

// =============================================================================
// RECORD MANUAL PAYMENT
// =============================================================================

// RecordManualPayment applies a payment against the contract's receivable
// when no specific installment is targeted (lump-sum or partial top-up).
// The amount fills the earliest unpaid installment first, then the next,
// never exceeding each installment's amount. If something remains after
// every installment is full, the whole payment is rejected with
// *OverpaymentError - the excess is reported, not discarded.
func (s *Service) RecordManualPayment(ctx context.Context, id ContractID, amount Money) (Contract, error) {
	if !amount.IsPositive() {
		return Contract{}, &InvalidScheduleError{
			Reason: fmt.Sprintf("payment amount must be positive, got %s", amount.StringFixed()),
		}
	}

	contract, err := s.store.GetContract(ctx, id)
	if err != nil {
		return Contract{}, err
	}
	installments, err := s.store.Installments(ctx, id)
	if err != nil {
		return Contract{}, err
	}

	capacity := Zero()
	for _, inst := range installments {
		capacity = capacity.Add(inst.Remaining())
	}
	if amount.GreaterThan(capacity) {
		return Contract{}, &OverpaymentError{
			ContractID: id,
			Pending:    capacity,
			Payment:    amount,
			Excess:     amount.Sub(capacity),
		}
	}

	now := s.clock.Now()
	left := amount
	changed := make([]Installment, 0, len(installments))
	for i := range installments {
		if left.IsZero() {
			break
		}
		inst := installments[i]
		remaining := inst.Remaining()
		if !remaining.IsPositive() {
			continue
		}

		applied := left.Min(remaining)
		inst.AmountPaid = inst.AmountPaid.Add(applied)
		if inst.AmountPaid.Equal(inst.Amount) {
			paidAt := now
			inst.Status = StatusPaid
			inst.PaidAt = &paidAt
		}
		left = left.Sub(applied)

		installments[i] = inst
		changed = append(changed, inst)
	}

	contract.UpdatedAt = now
	contract, _ = Reconcile(contract, installments)

	err = s.store.WithTx(ctx, func(store ContractStore) error {
		for _, inst := range changed {
			if err := store.UpdateInstallment(ctx, inst); err != nil {
				return err
			}
		}
		return store.SaveContract(ctx, contract)
	})
	if err != nil {
		return Contract{}, fmt.Errorf("persisting payment: %w", err)
	}

	s.logger.Info("manual payment recorded",
		"contract_id", id,
		"amount", amount.StringFixed(),
		"received", contract.AmountReceived.StringFixed(),
		"pending", contract.AmountPending.StringFixed())
	return contract, nil
}

// =============================================================================
// SETTLE INSTALLMENT
// =============================================================================

// SettleInstallment marks one installment fully paid and reconciles the
// contract. This is the path behind the "mark as paid" action in the
// payment-entry UI; exposing it here keeps reconciliation from ever being
// skipped after a direct status edit.
func (s *Service) SettleInstallment(ctx context.Context, id ContractID, number int) (Contract, Installment, error) {
	contract, err := s.store.GetContract(ctx, id)
	if err != nil {
		return Contract{}, Installment{}, err
	}
	installments, err := s.store.Installments(ctx, id)
	if err != nil {
		return Contract{}, Installment{}, err
	}

	idx := -1
	for i, inst := range installments {
		if inst.Number == number {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Contract{}, Installment{}, fmt.Errorf("installment %d on contract %s: %w", number, id, ErrInstallmentNotFound)
	}
	if installments[idx].IsPaid() {
		return Contract{}, Installment{}, fmt.Errorf("installment %d on contract %s: %w", number, id, ErrAlreadyPaid)
	}

	now := s.clock.Now()
	paidAt := now
	installments[idx].AmountPaid = installments[idx].Amount
	installments[idx].Status = StatusPaid
	installments[idx].PaidAt = &paidAt

	contract.UpdatedAt = now
	contract, _ = Reconcile(contract, installments)

	settled := installments[idx]
	err = s.store.WithTx(ctx, func(store ContractStore) error {
		if err := store.UpdateInstallment(ctx, settled); err != nil {
			return err
		}
		return store.SaveContract(ctx, contract)
	})
	if err != nil {
		return Contract{}, Installment{}, fmt.Errorf("persisting settlement: %w", err)
	}

	s.logger.Info("installment settled",
		"contract_id", id,
		"number", number,
		"amount", settled.Amount.StringFixed())
	return contract, settled, nil
}

// =============================================================================
// READS
// =============================================================================

func (s *Service) GetContract(ctx context.Context, id ContractID) (Contract, error) {
	return s.store.GetContract(ctx, id)
}

func (s *Service) ListContracts(ctx context.Context) ([]Contract, error) {
	return s.store.ListContracts(ctx)
}

func (s *Service) Installments(ctx context.Context, id ContractID) ([]Installment, error) {
	return s.store.Installments(ctx, id)
}

// =============================================================================
// HELPERS
// =============================================================================

// materialize turns classified schedule entries into installment records
// owned by the contract.
func (s *Service) materialize(contractID ContractID, classified []ClassifiedInstallment, count int) []Installment {
	installments := make([]Installment, len(classified))
	for i, c := range classified {
		installments[i] = Installment{
			ID:                InstallmentID(uuid.NewString()),
			ContractID:        contractID,
			Number:            c.Number,
			TotalInstallments: count,
			Amount:            c.Amount,
			AmountPaid:        c.AmountPaid,
			DueDate:           c.DueDate,
			Status:            c.Status,
			PaidAt:            c.PaidAt,
		}
	}
	return installments
}
