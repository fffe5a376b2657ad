/*
engine.go - Record dispatch and the dispute lifecycle state machine

PURPOSE:
  The Engine consumes one Record at a time, validates it against the
  business rules, and mutates the ledger and dispute log. Nothing is
  buffered: a record is fully settled before the next one is read, so
  input size never affects resident memory (the dispute log is the one
  structure that grows, bounded by deposits not yet cleaned up).

DISPUTE LIFECYCLE:
  Each deposit's dispute status walks a one-way machine:

      Normal ──dispute──▶ Disputed ──resolve────▶ (entry removed)
                              │
                              └─────chargeback──▶ (entry removed, client locked)

  The terminal states are realized as log-entry removal, not a stored
  status: once removed, the same tx id can never be disputed again.

VALIDATION ORDER:
  1. Locked account discards EVERYTHING, every operation type.
  2. Deposit/withdrawal then reject duplicate tx ids (global, permanent).
  3. Per-operation preconditions; any failure is a silent discard.

  Withdrawal with insufficient funds is a discard, not an error: wrong or
  malicious attempts are ignored, never reported back. A dispute decreases
  available unconditionally, below zero if needed; rejecting it would let a
  client who already withdrew the disputed funds keep them.

EXAMPLE:
  eng := payments.NewEngine(store.NewDisputeLog(), store.NewSeenSet(), logger)
  res, err := eng.Process(rec)  // err only for backend failures
  if res.Applied() { ... }
  for _, b := range eng.Summaries() { ... }

SEE ALSO:
  - outcome.go: Result and DiscardReason returned per record
  - store.go: Injected dispute log and seen set contracts
  - retention.go: Optional bound on dispute log growth
*/
package payments

import (
	"fmt"

	"go.uber.org/zap"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine processes transaction records in arrival order. One engine is one
// run: it owns its ledger and shares nothing, so independent runs coexist.
// Not safe for concurrent use.
type Engine struct {
	ledger   *Ledger
	disputes DisputeLog
	seen     SeenSet
	logger   *zap.Logger
	stats    Stats
}

// NewEngine builds an engine over the given dispute log and seen set.
// A nil logger disables discard logging.
func NewEngine(disputes DisputeLog, seen SeenSet, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		ledger:   NewLedger(),
		disputes: disputes,
		seen:     seen,
		logger:   logger,
		stats:    Stats{Reasons: make(map[DiscardReason]uint64)},
	}
}

// Ledger exposes the balance store for read surfaces.
func (e *Engine) Ledger() *Ledger { return e.ledger }

// Disputes exposes the dispute log, primarily for retention sweeps.
func (e *Engine) Disputes() DisputeLog { return e.disputes }

// Seen exposes the seen-transaction set.
func (e *Engine) Seen() SeenSet { return e.seen }

// Summaries returns the final balance rows, ascending client id.
func (e *Engine) Summaries() []Balance { return e.ledger.Summaries() }

// =============================================================================
// DISPATCH
// =============================================================================

// Process settles a single record. The Result reports whether it applied
// or which rule discarded it; the error is non-nil only when a store
// backend fails, which is fatal to the run.
//
// The record's client account is created on first reference even when the
// record is then discarded: every referenced client appears in the output.
func (e *Engine) Process(rec Record) (Result, error) {
	acct := e.ledger.GetOrCreate(rec.Client)

	res, err := e.dispatch(acct, rec)
	if err != nil {
		return Result{}, err
	}

	e.stats.Count(res)
	if !res.Applied() {
		e.logger.Debug("record discarded",
			zap.String("op", string(rec.Op)),
			zap.Uint16("client", uint16(rec.Client)),
			zap.Uint32("tx", uint32(rec.Tx)),
			zap.String("reason", string(res.Reason)),
		)
	}
	return res, nil
}

func (e *Engine) dispatch(acct *Balance, rec Record) (Result, error) {
	// A locked account discards every operation type, checked before
	// anything else so not even the duplicate rule observes the record.
	if acct.Locked {
		return discardedInvalid(ReasonAccountLocked), nil
	}

	switch rec.Op {
	case OpDeposit:
		return e.applyDeposit(acct, rec)
	case OpWithdrawal:
		return e.applyWithdrawal(acct, rec)
	case OpDispute:
		return e.applyDispute(acct, rec)
	case OpResolve:
		return e.applyResolve(acct, rec)
	case OpChargeback:
		return e.applyChargeback(acct, rec)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownOperation, rec.Op)
	}
}

// =============================================================================
// FUND MOVEMENT - deposit, withdrawal
// =============================================================================

func (e *Engine) applyDeposit(acct *Balance, rec Record) (Result, error) {
	if rec.Amount == nil {
		return discardedInvalid(ReasonMissingAmount), nil
	}
	if rec.Amount.IsNegative() {
		return discardedInvalid(ReasonNegativeAmount), nil
	}
	seen, err := e.seen.Has(rec.Tx)
	if err != nil {
		return Result{}, fmt.Errorf("seen set lookup: %w", err)
	}
	if seen {
		return discardedDuplicate(), nil
	}

	acct.Available = acct.Available.Add(*rec.Amount)
	if err := e.disputes.Insert(rec.Tx, rec.Client, *rec.Amount); err != nil {
		return Result{}, fmt.Errorf("dispute log insert: %w", err)
	}
	if err := e.seen.Add(rec.Tx); err != nil {
		return Result{}, fmt.Errorf("seen set add: %w", err)
	}
	return applied(), nil
}

func (e *Engine) applyWithdrawal(acct *Balance, rec Record) (Result, error) {
	if rec.Amount == nil {
		return discardedInvalid(ReasonMissingAmount), nil
	}
	if rec.Amount.IsNegative() {
		return discardedInvalid(ReasonNegativeAmount), nil
	}
	seen, err := e.seen.Has(rec.Tx)
	if err != nil {
		return Result{}, fmt.Errorf("seen set lookup: %w", err)
	}
	if seen {
		return discardedDuplicate(), nil
	}
	if rec.Amount.GreaterThan(acct.Available) {
		return discardedInvalid(ReasonInsufficientFunds), nil
	}

	// No dispute log entry: a withdrawal has already left the ledger's
	// custody, so disputing it has no well-defined reversal.
	acct.Available = acct.Available.Sub(*rec.Amount)
	if err := e.seen.Add(rec.Tx); err != nil {
		return Result{}, fmt.Errorf("seen set add: %w", err)
	}
	return applied(), nil
}

// =============================================================================
// DISPUTE LIFECYCLE - dispute, resolve, chargeback
// =============================================================================

// lookupEntry fetches the dispute entry a lifecycle record points at and
// checks the ownership rule shared by all three operations: the record's
// client must match the entry's client or the record is invalid.
func (e *Engine) lookupEntry(rec Record) (*DisputeEntry, Result, error) {
	entry, err := e.disputes.Get(rec.Tx)
	if err != nil {
		return nil, Result{}, fmt.Errorf("dispute log lookup: %w", err)
	}
	if entry == nil {
		return nil, discardedInvalid(ReasonUnknownTx), nil
	}
	if entry.Client != rec.Client {
		return nil, discardedInvalid(ReasonClientMismatch), nil
	}
	return entry, Result{}, nil
}

func (e *Engine) applyDispute(acct *Balance, rec Record) (Result, error) {
	entry, res, err := e.lookupEntry(rec)
	if entry == nil {
		return res, err
	}
	if entry.Disputed {
		return discardedInvalid(ReasonAlreadyDisputed), nil
	}

	// Unconditional: available goes negative when the client already
	// withdrew the disputed funds.
	acct.Available = acct.Available.Sub(entry.Amount)
	acct.Held = acct.Held.Add(entry.Amount)
	if err := e.disputes.MarkDisputed(rec.Tx); err != nil {
		return Result{}, fmt.Errorf("dispute log mark: %w", err)
	}
	return applied(), nil
}

func (e *Engine) applyResolve(acct *Balance, rec Record) (Result, error) {
	entry, res, err := e.lookupEntry(rec)
	if entry == nil {
		return res, err
	}
	if !entry.Disputed {
		return discardedInvalid(ReasonNotDisputed), nil
	}

	acct.Available = acct.Available.Add(entry.Amount)
	acct.Held = acct.Held.Sub(entry.Amount)
	if err := e.disputes.Remove(rec.Tx); err != nil {
		return Result{}, fmt.Errorf("dispute log remove: %w", err)
	}
	return applied(), nil
}

func (e *Engine) applyChargeback(acct *Balance, rec Record) (Result, error) {
	entry, res, err := e.lookupEntry(rec)
	if entry == nil {
		return res, err
	}
	if !entry.Disputed {
		return discardedInvalid(ReasonNotDisputed), nil
	}

	acct.Held = acct.Held.Sub(entry.Amount)
	acct.Locked = true
	if err := e.disputes.Remove(rec.Tx); err != nil {
		return Result{}, fmt.Errorf("dispute log remove: %w", err)
	}
	return applied(), nil
}

// =============================================================================
// STATS
// =============================================================================

// Stats counts what happened to every record an engine has seen.
type Stats struct {
	Processed  uint64
	Applied    uint64
	Duplicates uint64
	Invalid    uint64
	Reasons    map[DiscardReason]uint64
}

// Count tallies one processing outcome. Usable on a zero-value Stats, so
// callers batching their own records (imports, replays) share the engine's
// bookkeeping.
func (s *Stats) Count(res Result) {
	s.Processed++
	switch res.Outcome {
	case Applied:
		s.Applied++
	case DiscardedDuplicate:
		s.Duplicates++
	case DiscardedInvalid:
		s.Invalid++
	}
	if res.Reason != ReasonNone {
		if s.Reasons == nil {
			s.Reasons = make(map[DiscardReason]uint64)
		}
		s.Reasons[res.Reason]++
	}
}

// Stats returns a copy of the engine's counters.
func (e *Engine) Stats() Stats {
	out := e.stats
	out.Reasons = make(map[DiscardReason]uint64, len(e.stats.Reasons))
	for k, v := range e.stats.Reasons {
		out.Reasons[k] = v
	}
	return out
}
