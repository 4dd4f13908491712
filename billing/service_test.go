package billing_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebill/billing-engine/billing"
	"github.com/carebill/billing-engine/billing/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(at time.Time) (*billing.Service, *store.TxMemory) {
	mem := store.NewTxMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := billing.NewService(mem, billing.FixedClock{At: at}, logger)
	return svc, mem
}

func june1() time.Time {
	return time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
}

// =============================================================================
// CREATE CONTRACT
// =============================================================================

func TestService_CreateContract_LumpSumPastDue(t *testing.T) {
	// GIVEN: A 600.00 lump sum contract dated 2024-01-01, today is 2024-06-01
	// WHEN: Creating the contract
	// THEN: The single installment is pago with the full amount received

	svc, _ := newTestService(june1())
	ctx := context.Background()

	contract, installments, err := svc.CreateContract(ctx, billing.CreateContractInput{
		ClientID:     "cl-1",
		TotalAmount:  billing.MustMoney("600.00"),
		Arrangement:  billing.ArrangementLumpSum,
		FirstDueDate: billing.NewDate(2024, time.January, 1),
	})
	require.NoError(t, err)

	require.Len(t, installments, 1)
	assert.Equal(t, billing.StatusPaid, installments[0].Status)
	assert.Equal(t, "600.00", installments[0].AmountPaid.StringFixed())
	assert.Equal(t, "600.00", contract.AmountReceived.StringFixed())
	assert.Equal(t, "0.00", contract.AmountPending.StringFixed())
	assert.Equal(t, 1, contract.InstallmentCount)
}

func TestService_CreateContract_InstallmentsWithManualFirstPaid(t *testing.T) {
	// GIVEN: A future-dated 3-installment contract, entry already received
	// THEN: Installment 1 is pago, the rest pendente, totals reconciled

	svc, _ := newTestService(june1())
	ctx := context.Background()

	contract, installments, err := svc.CreateContract(ctx, billing.CreateContractInput{
		ClientID:         "cl-1",
		TotalAmount:      billing.MustMoney("1000.00"),
		Arrangement:      billing.ArrangementInstallments,
		InstallmentCount: 3,
		Cadence:          billing.Monthly(),
		FirstDueDate:     billing.NewDate(2024, time.July, 15),
		ManualFirstPaid:  true,
	})
	require.NoError(t, err)
	require.Len(t, installments, 3)

	assert.Equal(t, billing.StatusPaid, installments[0].Status)
	assert.Equal(t, billing.StatusPending, installments[1].Status)
	assert.Equal(t, billing.StatusPending, installments[2].Status)

	assert.Equal(t, "333.33", contract.AmountReceived.StringFixed())
	assert.Equal(t, "666.67", contract.AmountPending.StringFixed())
}

func TestService_CreateContract_DefaultsFirstDueDateToToday(t *testing.T) {
	svc, _ := newTestService(june1())

	contract, installments, err := svc.CreateContract(context.Background(), billing.CreateContractInput{
		ClientID:         "cl-1",
		TotalAmount:      billing.MustMoney("300.00"),
		Arrangement:      billing.ArrangementInstallments,
		InstallmentCount: 3,
		Cadence:          billing.Weekly(),
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-06-01", contract.FirstDueDate.String())
	// Due today, not past due: nothing is assumed paid.
	assert.Equal(t, billing.StatusPending, installments[0].Status)
}

func TestService_CreateContract_RejectsInvalidInput(t *testing.T) {
	svc, mem := newTestService(june1())
	ctx := context.Background()

	_, _, err := svc.CreateContract(ctx, billing.CreateContractInput{
		ClientID:         "cl-1",
		TotalAmount:      billing.MustMoney("-5.00"),
		Arrangement:      billing.ArrangementInstallments,
		InstallmentCount: 2,
		Cadence:          billing.Weekly(),
	})
	assert.ErrorIs(t, err, billing.ErrInvalidSchedule)

	_, _, err = svc.CreateContract(ctx, billing.CreateContractInput{
		ClientID:    "cl-1",
		TotalAmount: billing.MustMoney("100.00"),
		Arrangement: "installment_plan",
	})
	assert.ErrorIs(t, err, billing.ErrInvalidSchedule)

	// Nothing was persisted on rejection.
	contracts, err := mem.ListContracts(ctx)
	require.NoError(t, err)
	assert.Empty(t, contracts)
}

// =============================================================================
// RECORD MANUAL PAYMENT - earliest-first allocation
// =============================================================================

// threeInstallmentContract creates a 300.00 contract split 100/100/100 due
// in the future, with installment 1 already settled.
func threeInstallmentContract(t *testing.T, svc *billing.Service) billing.Contract {
	t.Helper()
	ctx := context.Background()

	contract, _, err := svc.CreateContract(ctx, billing.CreateContractInput{
		ClientID:         "cl-1",
		TotalAmount:      billing.MustMoney("300.00"),
		Arrangement:      billing.ArrangementInstallments,
		InstallmentCount: 3,
		Cadence:          billing.Monthly(),
		FirstDueDate:     billing.NewDate(2024, time.July, 1),
	})
	require.NoError(t, err)

	contract, _, err = svc.SettleInstallment(ctx, contract.ID, 1)
	require.NoError(t, err)
	return contract
}

func TestService_RecordManualPayment_AllocatesEarliestFirst(t *testing.T) {
	// GIVEN: One paid and two unpaid installments of 100.00 each
	// WHEN: Recording a manual payment of 150.00
	// THEN: Installment 2 fully settled, installment 3 half filled,
	//       and no overpayment error

	svc, _ := newTestService(june1())
	ctx := context.Background()
	contract := threeInstallmentContract(t, svc)

	updated, err := svc.RecordManualPayment(ctx, contract.ID, billing.MustMoney("150.00"))
	require.NoError(t, err)

	installments, err := svc.Installments(ctx, contract.ID)
	require.NoError(t, err)

	assert.Equal(t, billing.StatusPaid, installments[1].Status)
	assert.Equal(t, "100.00", installments[1].AmountPaid.StringFixed())

	assert.Equal(t, billing.StatusPending, installments[2].Status)
	assert.Equal(t, "50.00", installments[2].AmountPaid.StringFixed())
	assert.Nil(t, installments[2].PaidAt)

	assert.Equal(t, "250.00", updated.AmountReceived.StringFixed())
	assert.Equal(t, "50.00", updated.AmountPending.StringFixed())
}

func TestService_RecordManualPayment_OverpaymentRejected(t *testing.T) {
	// GIVEN: 200.00 of remaining capacity
	// WHEN: Recording 250.00
	// THEN: OverpaymentError reporting the 50.00 excess; nothing persisted

	svc, _ := newTestService(june1())
	ctx := context.Background()
	contract := threeInstallmentContract(t, svc)

	_, err := svc.RecordManualPayment(ctx, contract.ID, billing.MustMoney("250.00"))
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrOverpayment)

	var overpay *billing.OverpaymentError
	require.ErrorAs(t, err, &overpay)
	assert.Equal(t, "200.00", overpay.Pending.StringFixed())
	assert.Equal(t, "50.00", overpay.Excess.StringFixed())

	// Contract untouched.
	unchanged, err := svc.GetContract(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", unchanged.AmountReceived.StringFixed())
}

func TestService_RecordManualPayment_ReconcilerConsistency(t *testing.T) {
	// After any sequence of payments, the contract's received total equals
	// the sum over installment paid amounts.

	svc, _ := newTestService(june1())
	ctx := context.Background()
	contract := threeInstallmentContract(t, svc)

	for _, amount := range []string{"30.00", "45.50", "0.50", "99.99"} {
		updated, err := svc.RecordManualPayment(ctx, contract.ID, billing.MustMoney(amount))
		require.NoError(t, err)

		installments, err := svc.Installments(ctx, contract.ID)
		require.NoError(t, err)

		sum := billing.Zero()
		for _, inst := range installments {
			sum = sum.Add(inst.AmountPaid)
		}
		assert.True(t, updated.AmountReceived.Equal(sum),
			"received %s != installment sum %s", updated.AmountReceived, sum)
		assert.False(t, updated.AmountPending.IsNegative())
	}
}

func TestService_RecordManualPayment_RejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService(june1())
	contract := threeInstallmentContract(t, svc)

	_, err := svc.RecordManualPayment(context.Background(), contract.ID, billing.Zero())
	assert.ErrorIs(t, err, billing.ErrInvalidSchedule)
}

// =============================================================================
// CHANGE INSTALLMENT COUNT - destructive regeneration
// =============================================================================

func TestService_ChangeInstallmentCount_RequiresAcknowledgment(t *testing.T) {
	// GIVEN: A contract whose schedule already carries a payment
	// WHEN: Changing the count without acknowledging the loss
	// THEN: DestructiveRegenerationError; the old schedule survives

	svc, _ := newTestService(june1())
	ctx := context.Background()
	contract := threeInstallmentContract(t, svc)

	_, err := svc.ChangeInstallmentCount(ctx, contract.ID, 5, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrDestructiveRegeneration)

	var destructive *billing.DestructiveRegenerationError
	require.ErrorAs(t, err, &destructive)
	assert.Equal(t, 1, destructive.PaidCount)
	assert.Equal(t, "100.00", destructive.AmountPaid.StringFixed())

	installments, err := svc.Installments(ctx, contract.ID)
	require.NoError(t, err)
	assert.Len(t, installments, 3)
}

func TestService_ChangeInstallmentCount_AcknowledgedDiscardsHistory(t *testing.T) {
	// GIVEN: The same contract, caller acknowledges the destructive loss
	// WHEN: Regenerating with 5 installments
	// THEN: A fresh 5-slot schedule replaces the old one, classification
	//       reruns with today at call time, and the warning reports what
	//       was discarded

	svc, _ := newTestService(june1())
	ctx := context.Background()
	contract := threeInstallmentContract(t, svc)

	result, err := svc.ChangeInstallmentCount(ctx, contract.ID, 5, true)
	require.NoError(t, err)

	require.NotNil(t, result.Warning)
	assert.Equal(t, 1, result.Warning.PaidCount)
	assert.Equal(t, "100.00", result.Warning.AmountPaid.StringFixed())

	require.Len(t, result.Installments, 5)

	// The whole schedule is future-dated from the original first due date,
	// so nothing is classified as paid and the payment history is gone.
	sum := billing.Zero()
	for _, inst := range result.Installments {
		assert.Equal(t, billing.StatusPending, inst.Status)
		assert.Equal(t, 5, inst.TotalInstallments)
		sum = sum.Add(inst.Amount)
	}
	assert.Equal(t, "300.00", sum.StringFixed())

	assert.Equal(t, "0.00", result.Contract.AmountReceived.StringFixed())
	assert.Equal(t, "300.00", result.Contract.AmountPending.StringFixed())
	assert.Equal(t, 5, result.Contract.InstallmentCount)
}

func TestService_ChangeInstallmentCount_NoPaidHistoryNoWarning(t *testing.T) {
	svc, _ := newTestService(june1())
	ctx := context.Background()

	contract, _, err := svc.CreateContract(ctx, billing.CreateContractInput{
		ClientID:         "cl-1",
		TotalAmount:      billing.MustMoney("400.00"),
		Arrangement:      billing.ArrangementInstallments,
		InstallmentCount: 4,
		Cadence:          billing.Biweekly(),
		FirstDueDate:     billing.NewDate(2024, time.August, 1),
	})
	require.NoError(t, err)

	result, err := svc.ChangeInstallmentCount(ctx, contract.ID, 2, false)
	require.NoError(t, err)
	assert.Nil(t, result.Warning)
	assert.Len(t, result.Installments, 2)
	assert.Equal(t, "200.00", result.Installments[0].Amount.StringFixed())
}

func TestService_ChangeInstallmentCount_ToOneBecomesLumpSum(t *testing.T) {
	svc, _ := newTestService(june1())
	ctx := context.Background()

	contract, _, err := svc.CreateContract(ctx, billing.CreateContractInput{
		ClientID:         "cl-1",
		TotalAmount:      billing.MustMoney("400.00"),
		Arrangement:      billing.ArrangementInstallments,
		InstallmentCount: 4,
		Cadence:          billing.Weekly(),
		FirstDueDate:     billing.NewDate(2024, time.August, 1),
	})
	require.NoError(t, err)

	result, err := svc.ChangeInstallmentCount(ctx, contract.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, billing.ArrangementLumpSum, result.Contract.Arrangement)
	require.Len(t, result.Installments, 1)
	assert.Equal(t, "400.00", result.Installments[0].Amount.StringFixed())
}

// =============================================================================
// SETTLE INSTALLMENT
// =============================================================================

func TestService_SettleInstallment(t *testing.T) {
	svc, _ := newTestService(june1())
	ctx := context.Background()

	contract, _, err := svc.CreateContract(ctx, billing.CreateContractInput{
		ClientID:         "cl-1",
		TotalAmount:      billing.MustMoney("200.00"),
		Arrangement:      billing.ArrangementInstallments,
		InstallmentCount: 2,
		Cadence:          billing.Monthly(),
		FirstDueDate:     billing.NewDate(2024, time.July, 1),
	})
	require.NoError(t, err)

	updated, settled, err := svc.SettleInstallment(ctx, contract.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, billing.StatusPaid, settled.Status)
	assert.Equal(t, "100.00", settled.AmountPaid.StringFixed())
	require.NotNil(t, settled.PaidAt)
	assert.Equal(t, june1(), *settled.PaidAt)

	assert.Equal(t, "100.00", updated.AmountReceived.StringFixed())
	assert.Equal(t, "100.00", updated.AmountPending.StringFixed())

	// Settling the same installment again is rejected.
	_, _, err = svc.SettleInstallment(ctx, contract.ID, 2)
	assert.ErrorIs(t, err, billing.ErrAlreadyPaid)

	// Unknown installment number.
	_, _, err = svc.SettleInstallment(ctx, contract.ID, 9)
	assert.ErrorIs(t, err, billing.ErrInstallmentNotFound)
}

func TestService_UnknownContract(t *testing.T) {
	svc, _ := newTestService(june1())
	ctx := context.Background()

	_, err := svc.GetContract(ctx, "missing")
	assert.ErrorIs(t, err, billing.ErrContractNotFound)

	_, err = svc.RecordManualPayment(ctx, "missing", billing.MustMoney("10.00"))
	assert.ErrorIs(t, err, billing.ErrContractNotFound)

	_, err = svc.ChangeInstallmentCount(ctx, "missing", 2, false)
	assert.ErrorIs(t, err, billing.ErrContractNotFound)
}
