/*
outcome.go - Tri-state processing outcomes

PURPOSE:
  Every record the engine accepts is either applied or silently discarded.
  Discards are control flow, not errors: the engine reports WHICH rule fired
  through a Result so tests and the API can assert on the exact reason
  without relying on side-channel logging, while file processing stays
  silent and keeps going.

OUTCOME CLASSES:
  Applied             The record mutated the ledger
  DiscardedDuplicate  A deposit/withdrawal reused an already-accepted tx id
  DiscardedInvalid    Any other precondition failed (locked account,
                      insufficient funds, missing dispute target, ...)

SEE ALSO:
  - engine.go: Produces these from every Process call
*/
package payments

// Outcome classifies what Process did with a record.
type Outcome int

const (
	Applied Outcome = iota
	DiscardedDuplicate
	DiscardedInvalid
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case DiscardedDuplicate:
		return "discarded_duplicate"
	case DiscardedInvalid:
		return "discarded_invalid"
	default:
		return "unknown"
	}
}

// DiscardReason names the specific precondition that rejected a record.
// Empty for applied records.
type DiscardReason string

const (
	ReasonNone              DiscardReason = ""
	ReasonDuplicateTx       DiscardReason = "duplicate_tx"
	ReasonAccountLocked     DiscardReason = "account_locked"
	ReasonMissingAmount     DiscardReason = "missing_amount"
	ReasonNegativeAmount    DiscardReason = "negative_amount"
	ReasonInsufficientFunds DiscardReason = "insufficient_funds"
	ReasonUnknownTx         DiscardReason = "unknown_tx"
	ReasonClientMismatch    DiscardReason = "client_mismatch"
	ReasonAlreadyDisputed   DiscardReason = "already_disputed"
	ReasonNotDisputed       DiscardReason = "not_disputed"
)

// Result is the outcome of processing one record.
type Result struct {
	Outcome Outcome
	Reason  DiscardReason
}

// Applied reports whether the record changed any state.
func (r Result) Applied() bool { return r.Outcome == Applied }

func applied() Result {
	return Result{Outcome: Applied}
}

func discardedDuplicate() Result {
	return Result{Outcome: DiscardedDuplicate, Reason: ReasonDuplicateTx}
}

func discardedInvalid(reason DiscardReason) Result {
	return Result{Outcome: DiscardedInvalid, Reason: reason}
}
