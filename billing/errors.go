/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine's pure functions fail only on invalid input; storage-layer
  failures belong to the store implementations and are wrapped, never
  swallowed.

ERROR CATEGORIES:
  1. Schedule errors - invalid generation input
  2. Payment errors - overpayment beyond the pending balance
  3. Regeneration errors - destructive schedule replacement without
     acknowledgment
  4. Not-found errors - missing contract/installment references

USAGE:
  if errors.Is(err, billing.ErrOverpayment) { ... }

  var inv *billing.InvalidScheduleError
  if errors.As(err, &inv) { ... }
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidSchedule is returned when schedule generation input is
	// rejected: non-positive amount, non-positive count, or a custom
	// cadence with a non-positive day step.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrOverpayment is returned when a manual payment exceeds the
	// contract's remaining pending balance. The excess is reported to the
	// caller, never silently discarded.
	ErrOverpayment = errors.New("payment exceeds pending balance")

	// ErrDestructiveRegeneration is returned when changing the installment
	// count would discard paid-installment history and the caller has not
	// acknowledged the loss.
	ErrDestructiveRegeneration = errors.New("regeneration discards paid installments")

	// ErrContractNotFound is returned when a referenced contract doesn't exist.
	ErrContractNotFound = errors.New("contract not found")

	// ErrInstallmentNotFound is returned when a referenced installment doesn't exist.
	ErrInstallmentNotFound = errors.New("installment not found")

	// ErrAlreadyPaid is returned when settling an installment that is
	// already fully paid.
	ErrAlreadyPaid = errors.New("installment already paid")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidScheduleError details why schedule generation was rejected.
// No records are produced when this is returned.
type InvalidScheduleError struct {
	Reason string
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule: %s", e.Reason)
}

func (e *InvalidScheduleError) Unwrap() error { return ErrInvalidSchedule }

// OverpaymentError details a manual payment that exceeds what the contract
// can still absorb.
type OverpaymentError struct {
	ContractID ContractID
	Pending    Money // what the contract could still absorb
	Payment    Money // what the caller tried to record
	Excess     Money // Payment - Pending
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("overpayment on contract %s: pending %s, payment %s, excess %s",
		e.ContractID, e.Pending.StringFixed(), e.Payment.StringFixed(), e.Excess.StringFixed())
}

func (e *OverpaymentError) Unwrap() error { return ErrOverpayment }

// DestructiveRegenerationError is returned when ChangeInstallmentCount
// would delete installments that already carry payments and the caller did
// not acknowledge the irreversible loss. The caller decides whether to
// retry with acknowledgment or abort.
type DestructiveRegenerationError struct {
	ContractID ContractID
	PaidCount  int   // installments with AmountPaid > 0 that would be discarded
	AmountPaid Money // total payment history that would be discarded
}

func (e *DestructiveRegenerationError) Error() string {
	return fmt.Sprintf("regenerating contract %s discards %d paid installment(s) totaling %s; acknowledgment required",
		e.ContractID, e.PaidCount, e.AmountPaid.StringFixed())
}

func (e *DestructiveRegenerationError) Unwrap() error { return ErrDestructiveRegeneration }

// DestructiveRegenerationWarning is attached to a regeneration result when
// the caller proceeded with acknowledgment. Not an error: the operation
// succeeded, but payment history was discarded.
type DestructiveRegenerationWarning struct {
	PaidCount  int
	AmountPaid Money
}

func (w *DestructiveRegenerationWarning) String() string {
	return fmt.Sprintf("discarded %d paid installment(s) totaling %s",
		w.PaidCount, w.AmountPaid.StringFixed())
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidSchedule) ||
		errors.Is(err, ErrOverpayment) ||
		errors.Is(err, ErrDestructiveRegeneration) ||
		errors.Is(err, ErrAlreadyPaid)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrInstallmentNotFound)
}
