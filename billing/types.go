/*
Package billing implements the installment billing schedule and
reconciliation engine.

PURPOSE:
  Given a contracted amount, a payment arrangement (lump sum or N
  installments with a cadence), and a first due date, this package
  deterministically produces the due-date schedule, assigns per-installment
  amounts, decides which installments are already settled at creation time,
  and keeps contract-level received/pending totals consistent with the sum
  of the installment records.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: exact decimal amount (no float drift)
  - Contract: the agreement record (total, arrangement, derived totals)
  - Installment: one scheduled portion with its own due date and state
  - Arrangement/Cadence/InstallmentStatus: the domain enums

DESIGN PRINCIPLES:
  1. Precision: Money wraps decimal.Decimal; schedule sums match the
     contracted total exactly, cent for cent.
  2. Purity: schedule generation, classification, and reconciliation are
     pure functions over values; "today" and "now" are injected.
  3. Single writer: AmountReceived/AmountPending are written only by
     Reconcile. Everything else treats them as read-only.

SEE ALSO:
  - cadence.go: due-date spacing rules
  - schedule.go: schedule generation
  - classify.go: settlement classification at creation time
  - reconcile.go: contract-level total reconciliation
  - service.go: the façade the surrounding application calls
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Exact decimal amount
// =============================================================================

// Money is an exact decimal amount in the business's single currency.
// All arithmetic is decimal arithmetic; division for installment splitting
// rounds down to cents and the remainder is assigned explicitly.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int64) Money {
	return Money{Value: decimal.NewFromInt(value)}
}

// ParseMoney parses a decimal string like "1000.00".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

// MustMoney parses a decimal string, returning zero on failure.
// Intended for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}
	}
	return Money{Value: d}
}

func Zero() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(b Money) Money        { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money        { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Neg() Money               { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool             { return m.Value.IsZero() }
func (m Money) IsNegative() bool         { return m.Value.IsNegative() }
func (m Money) IsPositive() bool         { return m.Value.IsPositive() }
func (m Money) Equal(b Money) bool       { return m.Value.Equal(b.Value) }
func (m Money) GreaterThan(b Money) bool { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool    { return m.Value.LessThan(b.Value) }
// Min returns the smaller of the two amounts.
func (m Money) Min(b Money) Money {
	if m.LessThan(b) {
		return m
	}
	return b
}

// Max returns the larger of the two amounts.
func (m Money) Max(b Money) Money {
	if m.GreaterThan(b) {
		return m
	}
	return b
}

// DivCents divides by n, rounding DOWN to whole cents. The caller assigns
// the remainder (total - quotient*n) explicitly; see GenerateSchedule.
func (m Money) DivCents(n int) Money {
	return Money{Value: m.Value.Div(decimal.NewFromInt(int64(n))).RoundDown(2)}
}

// MulInt multiplies by an integer factor.
func (m Money) MulInt(n int) Money {
	return Money{Value: m.Value.Mul(decimal.NewFromInt(int64(n)))}
}

// StringFixed renders with exactly two decimal places.
func (m Money) StringFixed() string { return m.Value.StringFixed(2) }

func (m Money) String() string { return m.Value.String() }

// Float64 returns an approximate float value, for DTO rendering only.
func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ContractID string
type InstallmentID string
type ClientID string

// =============================================================================
// ARRANGEMENT & STATUS ENUMS
// =============================================================================

// Arrangement is how the contracted amount is paid.
type Arrangement string

const (
	ArrangementLumpSum      Arrangement = "lump_sum"
	ArrangementInstallments Arrangement = "installments"
)

func (a Arrangement) Valid() bool {
	return a == ArrangementLumpSum || a == ArrangementInstallments
}

// InstallmentStatus is binary: an installment is pending or paid.
// The status strings are the ones the dashboard displays (pendente/pago).
// Contract-level partial receipt is expressed through AmountPaid sitting
// between zero and Amount while status stays pendente.
type InstallmentStatus string

const (
	StatusPending InstallmentStatus = "pendente"
	StatusPaid    InstallmentStatus = "pago"
)

// =============================================================================
// CONTRACT - The agreement record
// =============================================================================

// Contract is the agreement for a client's total owed amount and payment
// arrangement. AmountReceived and AmountPending are derived: they must
// always equal the sums over the contract's installments, and only
// Reconcile may write them.
type Contract struct {
	ID       ContractID
	ClientID ClientID

	// What the client signed for.
	Description      string
	TotalAmount      Money
	Arrangement      Arrangement
	InstallmentCount int
	Cadence          Cadence
	FirstDueDate     Date

	// Derived totals. Written only by Reconcile.
	AmountReceived Money
	AmountPending  Money

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// INSTALLMENT - One scheduled portion of a contract
// =============================================================================

// Installment is one slot of a contract's schedule. Installments are
// exclusively owned by their contract: the full set is created together and
// schedule regeneration replaces the set wholesale.
type Installment struct {
	ID         InstallmentID
	ContractID ContractID

	// Number is 1-based and contiguous within the contract.
	// TotalInstallments is a display snapshot of the count at generation
	// time; the contract's InstallmentCount is authoritative.
	Number            int
	TotalInstallments int

	Amount     Money
	AmountPaid Money
	DueDate    Date
	Status     InstallmentStatus
	PaidAt     *time.Time
}

// Remaining is the unpaid portion of this installment.
func (i Installment) Remaining() Money {
	return i.Amount.Sub(i.AmountPaid)
}

// IsPaid reports whether the installment is fully settled.
func (i Installment) IsPaid() bool { return i.Status == StatusPaid }
