/*
reconcile.go - Contract-level total reconciliation

PURPOSE:
  Owns the invariant that a contract's received/pending totals equal the
  sums over its installments. This is the ONLY place allowed to write
  AmountReceived and AmountPending; computing these sums ad hoc at call
  sites is how they drift apart.

WHEN TO CALL:
  - after initial classification (contract creation)
  - after any payment recording (manual or per-installment)
  - after any schedule regeneration

CLAMPING:
  AmountPending is clamped at zero. If installment payments somehow exceed
  the contracted total (caller error upstream), the excess is RETURNED to
  the caller, not hidden - pending just never goes negative.
*/
package billing

// =============================================================================
// CONTRACT RECONCILER
// =============================================================================

// Reconcile recomputes the contract's derived totals from its
// installments and returns the updated contract plus any excess received
// over the contracted total (zero in the normal case).
func Reconcile(c Contract, installments []Installment) (Contract, Money) {
	received := Zero()
	for _, inst := range installments {
		received = received.Add(inst.AmountPaid)
	}

	pending := c.TotalAmount.Sub(received)
	excess := Zero()
	if pending.IsNegative() {
		excess = pending.Neg()
		pending = Zero()
	}

	c.AmountReceived = received
	c.AmountPending = pending
	return c, excess
}

// checkInvariants verifies the contract/installment pair is internally
// consistent. Used by the service before persisting; returns nil when all
// invariants hold.
func checkInvariants(c Contract, installments []Installment) error {
	sum := Zero()
	for i, inst := range installments {
		if inst.Number != i+1 {
			return &InvalidScheduleError{Reason: "installment numbering is not contiguous"}
		}
		if inst.AmountPaid.IsNegative() || inst.AmountPaid.GreaterThan(inst.Amount) {
			return &InvalidScheduleError{Reason: "installment paid amount out of range"}
		}
		sum = sum.Add(inst.Amount)
	}
	if !sum.Equal(c.TotalAmount) {
		return &InvalidScheduleError{Reason: "installment amounts do not sum to the contract total"}
	}
	return nil
}
