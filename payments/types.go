/*
Package payments provides the core transaction processing engine.

PURPOSE:
  This package contains the types and state machine for turning an ordered
  stream of transaction records (deposits, withdrawals, disputes, resolves,
  chargebacks) into per-client balance summaries. Records are consumed one
  at a time; the engine never buffers input, so input size is unbounded.

KEY CONCEPTS IN THIS FILE (types.go):
  - Operation: The five transaction kinds, parsed case-insensitively
  - Amount: An exact decimal quantity of money (no floats anywhere)
  - Record: One immutable input transaction
  - Balance: A client's account state (available, held, locked)

DESIGN PRINCIPLES:
  1. Exactness: decimal.Decimal end to end; output rounds only at render time
  2. Derived totals: total = available + held is computed, never stored
  3. Type safety: ClientID and TxID are distinct types, never bare ints
  4. Silent discards: business rejections are outcomes, not errors

USAGE:
  amt := payments.MustParseAmount("42.5")
  rec := payments.Record{
      Op:     payments.OpDeposit,
      Client: 7,
      Tx:     1001,
      Amount: &amt,
  }

SEE ALSO:
  - engine.go: Dispatch and per-operation rules
  - ledger.go: Client balance store
  - store.go: Dispute log and seen-set contracts
*/
package payments

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// OPERATION - The five transaction kinds
// =============================================================================

// Operation identifies what a transaction record asks the engine to do.
// The set is closed: engine dispatch is exhaustive over exactly these five.
type Operation string

const (
	OpDeposit    Operation = "deposit"
	OpWithdrawal Operation = "withdrawal"
	OpDispute    Operation = "dispute"
	OpResolve    Operation = "resolve"
	OpChargeback Operation = "chargeback"
)

// ParseOperation decodes an operation name from input text.
// Matching is case-insensitive and ignores surrounding whitespace.
// Unknown names return a wrapped ErrUnknownOperation; the caller treats
// that as a fatal decode failure, not a business discard.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deposit":
		return OpDeposit, nil
	case "withdrawal":
		return OpWithdrawal, nil
	case "dispute":
		return OpDispute, nil
	case "resolve":
		return OpResolve, nil
	case "chargeback":
		return OpChargeback, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, s)
	}
}

// HasAmount reports whether records of this operation carry an amount column.
// Dispute lifecycle operations reference a prior deposit's amount instead.
func (o Operation) HasAmount() bool {
	return o == OpDeposit || o == OpWithdrawal
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// ClientID identifies a client account. The input format caps it at 16 bits.
type ClientID uint16

// TxID identifies a transaction globally. The input format caps it at 32 bits.
// Deposit and withdrawal ids share one namespace: a tx id accepted once is
// never accepted again, for either operation.
type TxID uint32

// =============================================================================
// AMOUNT - Exact decimal money
// =============================================================================

// Amount is an exact decimal quantity of funds. All arithmetic is exact;
// rounding happens only when rendering output.
type Amount struct {
	Value decimal.Decimal
}

// NewAmount wraps a decimal value.
func NewAmount(v decimal.Decimal) Amount { return Amount{Value: v} }

// ParseAmount decodes a decimal amount from input text.
// Returns a wrapped ErrInvalidAmount for non-numeric text; negative values
// parse fine and are rejected later as business discards.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount{Value: d}, nil
}

// MustParseAmount is ParseAmount for literals in tests and fixtures.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func ZeroAmount() Amount { return Amount{Value: decimal.Zero} }

func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Neg() Amount               { return Amount{Value: a.Value.Neg()} }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) Equal(b Amount) bool       { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool    { return a.Value.LessThan(b.Value) }

// String renders the exact value without padding, for logs and errors.
func (a Amount) String() string { return a.Value.String() }

// StringFixed renders with exactly four digits after the decimal point,
// the format every output surface uses. The fourth digit is settled with
// banker's rounding, so input precision beyond four places cannot drift
// totals between runs.
func (a Amount) StringFixed() string {
	return a.Value.RoundBank(4).StringFixed(4)
}

// =============================================================================
// RECORD - One input transaction
// =============================================================================

// Record is a single decoded transaction record. Immutable once read.
// Amount is nil when the input column was absent or empty; the dispute
// lifecycle operations never use it even when present.
type Record struct {
	Op     Operation
	Client ClientID
	Tx     TxID
	Amount *Amount
}

// =============================================================================
// BALANCE - Per-client account state
// =============================================================================

// Balance is one client's account. Created lazily on first reference and
// mutated only by the engine.
//
// INVARIANT: Total() == Available + Held after every operation, including
// during active disputes and after chargebacks. Available may go negative
// under dispute; Held never goes negative by construction. Locked is
// monotonic: once true it stays true for the life of the process.
type Balance struct {
	Client    ClientID
	Available Amount
	Held      Amount
	Locked    bool
}

// Total is the derived sum of available and held funds. It is never stored.
func (b *Balance) Total() Amount { return b.Available.Add(b.Held) }

// =============================================================================
// DISPUTE ENTRY - Minimal deposit state kept for a future dispute
// =============================================================================

// DisputeEntry is the minimal state needed to dispute, resolve, or charge
// back a deposit. Created when a deposit is accepted, destroyed when its
// dispute lifecycle reaches a terminal resolution. Owned exclusively by the
// dispute log; nothing else holds a reference to it.
type DisputeEntry struct {
	Tx       TxID
	Client   ClientID
	Amount   Amount
	Disputed bool
}
