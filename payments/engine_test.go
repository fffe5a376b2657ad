package payments_test

import (
	"testing"

	"github.com/warp/payments-engine/payments"
	"github.com/warp/payments-engine/payments/store"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

func newEngine() *payments.Engine {
	return payments.NewEngine(store.NewDisputeLog(), store.NewSeenSet(), nil)
}

func amt(s string) *payments.Amount {
	a := payments.MustParseAmount(s)
	return &a
}

func deposit(client payments.ClientID, tx payments.TxID, amount string) payments.Record {
	return payments.Record{Op: payments.OpDeposit, Client: client, Tx: tx, Amount: amt(amount)}
}

func withdrawal(client payments.ClientID, tx payments.TxID, amount string) payments.Record {
	return payments.Record{Op: payments.OpWithdrawal, Client: client, Tx: tx, Amount: amt(amount)}
}

func dispute(client payments.ClientID, tx payments.TxID) payments.Record {
	return payments.Record{Op: payments.OpDispute, Client: client, Tx: tx}
}

func resolve(client payments.ClientID, tx payments.TxID) payments.Record {
	return payments.Record{Op: payments.OpResolve, Client: client, Tx: tx}
}

func chargeback(client payments.ClientID, tx payments.TxID) payments.Record {
	return payments.Record{Op: payments.OpChargeback, Client: client, Tx: tx}
}

func process(t *testing.T, eng *payments.Engine, rec payments.Record) payments.Result {
	t.Helper()
	res, err := eng.Process(rec)
	if err != nil {
		t.Fatalf("process %s client=%d tx=%d: %v", rec.Op, rec.Client, rec.Tx, err)
	}
	return res
}

func processAll(t *testing.T, eng *payments.Engine, recs ...payments.Record) {
	t.Helper()
	for _, rec := range recs {
		process(t, eng, rec)
	}
}

func balance(t *testing.T, eng *payments.Engine, client payments.ClientID) payments.Balance {
	t.Helper()
	b, ok := eng.Ledger().Get(client)
	if !ok {
		t.Fatalf("client %d has no account", client)
	}
	return *b
}

func assertAmount(t *testing.T, label string, got payments.Amount, want string) {
	t.Helper()
	if !got.Equal(payments.MustParseAmount(want)) {
		t.Errorf("%s = %s, want %s", label, got, want)
	}
}

func assertDiscarded(t *testing.T, res payments.Result, reason payments.DiscardReason) {
	t.Helper()
	if res.Applied() {
		t.Fatalf("record applied, want discard with reason %q", reason)
	}
	if res.Reason != reason {
		t.Errorf("discard reason = %q, want %q", res.Reason, reason)
	}
}

// =============================================================================
// DEPOSITS
// =============================================================================

func TestDeposit_CreditsAvailable(t *testing.T) {
	// GIVEN: A fresh engine
	eng := newEngine()

	// WHEN: A client deposits twice
	processAll(t, eng,
		deposit(1, 1, "10.25"),
		deposit(1, 2, "4.75"),
	)

	// THEN: Available holds the exact sum, nothing is held or locked
	b := balance(t, eng, 1)
	assertAmount(t, "available", b.Available, "15.00")
	assertAmount(t, "held", b.Held, "0")
	assertAmount(t, "total", b.Total(), "15.00")
	if b.Locked {
		t.Error("account should not be locked")
	}
}

func TestDeposit_ZeroAmountAccepted(t *testing.T) {
	// GIVEN: A fresh engine
	eng := newEngine()

	// WHEN: A zero-amount deposit arrives
	res := process(t, eng, deposit(1, 1, "0"))

	// THEN: It applies and is disputable like any other deposit
	if !res.Applied() {
		t.Fatalf("zero deposit discarded: %v", res.Reason)
	}
	if res2 := process(t, eng, dispute(1, 1)); !res2.Applied() {
		t.Errorf("zero deposit not disputable: %v", res2.Reason)
	}
}

func TestDeposit_MissingAmountDiscarded(t *testing.T) {
	eng := newEngine()

	// WHEN: A deposit arrives with no amount column
	res := process(t, eng, payments.Record{Op: payments.OpDeposit, Client: 1, Tx: 1})

	// THEN: It is discarded as invalid and the account stays empty
	assertDiscarded(t, res, payments.ReasonMissingAmount)
	assertAmount(t, "available", balance(t, eng, 1).Available, "0")
}

func TestDeposit_NegativeAmountDiscarded(t *testing.T) {
	eng := newEngine()

	res := process(t, eng, deposit(1, 1, "-5"))

	assertDiscarded(t, res, payments.ReasonNegativeAmount)
	assertAmount(t, "available", balance(t, eng, 1).Available, "0")
}

func TestDeposit_DuplicateTxDiscarded(t *testing.T) {
	// GIVEN: An accepted deposit
	eng := newEngine()
	process(t, eng, deposit(1, 1, "3.00"))

	// WHEN: The same tx id arrives again, even with a different amount
	res := process(t, eng, deposit(1, 1, "999"))

	// THEN: The second occurrence is a duplicate discard, balance unchanged
	if res.Outcome != payments.DiscardedDuplicate {
		t.Fatalf("outcome = %v, want duplicate discard", res.Outcome)
	}
	assertDiscarded(t, res, payments.ReasonDuplicateTx)
	assertAmount(t, "available", balance(t, eng, 1).Available, "3.00")
}

// =============================================================================
// WITHDRAWALS
// =============================================================================

func TestWithdrawal_DebitsAvailable(t *testing.T) {
	eng := newEngine()
	process(t, eng, deposit(1, 1, "10"))

	res := process(t, eng, withdrawal(1, 2, "2.5"))

	if !res.Applied() {
		t.Fatalf("withdrawal discarded: %v", res.Reason)
	}
	assertAmount(t, "available", balance(t, eng, 1).Available, "7.5")
}

func TestWithdrawal_ExactBalanceSucceeds(t *testing.T) {
	// Boundary: amount == available is allowed, only amount > available fails.
	eng := newEngine()
	process(t, eng, deposit(1, 1, "10"))

	res := process(t, eng, withdrawal(1, 2, "10"))

	if !res.Applied() {
		t.Fatalf("exact-balance withdrawal discarded: %v", res.Reason)
	}
	assertAmount(t, "available", balance(t, eng, 1).Available, "0")
}

func TestWithdrawal_InsufficientFundsDiscarded(t *testing.T) {
	eng := newEngine()
	process(t, eng, deposit(1, 1, "1.00"))

	res := process(t, eng, withdrawal(1, 2, "1.01"))

	assertDiscarded(t, res, payments.ReasonInsufficientFunds)
	assertAmount(t, "available", balance(t, eng, 1).Available, "1.00")
}

func TestWithdrawal_FromEmptyAccountDiscarded(t *testing.T) {
	eng := newEngine()

	res := process(t, eng, withdrawal(9, 1, "0.01"))

	// The client still appears in the ledger with a zeroed account.
	assertDiscarded(t, res, payments.ReasonInsufficientFunds)
	assertAmount(t, "available", balance(t, eng, 9).Available, "0")
}

func TestWithdrawal_SharesTxNamespaceWithDeposits(t *testing.T) {
	// GIVEN: tx 1 was accepted as a deposit
	eng := newEngine()
	process(t, eng, deposit(1, 1, "10"))

	// WHEN: A withdrawal reuses tx 1
	res := process(t, eng, withdrawal(1, 1, "5"))

	// THEN: It is rejected as a duplicate; the namespace is global
	assertDiscarded(t, res, payments.ReasonDuplicateTx)
	assertAmount(t, "available", balance(t, eng, 1).Available, "10")
}

func TestWithdrawal_NeverDisputable(t *testing.T) {
	// GIVEN: An applied withdrawal
	eng := newEngine()
	processAll(t, eng, deposit(1, 1, "10"), withdrawal(1, 2, "4"))

	// WHEN: A dispute references the withdrawal's tx id
	res := process(t, eng, dispute(1, 2))

	// THEN: There is no log entry for it, so the dispute is unknown
	assertDiscarded(t, res, payments.ReasonUnknownTx)
}

// =============================================================================
// DISPUTES
// =============================================================================

func TestDispute_MovesFundsToHeld(t *testing.T) {
	eng := newEngine()
	process(t, eng, deposit(1, 1, "100"))

	res := process(t, eng, dispute(1, 1))

	if !res.Applied() {
		t.Fatalf("dispute discarded: %v", res.Reason)
	}
	b := balance(t, eng, 1)
	assertAmount(t, "available", b.Available, "0")
	assertAmount(t, "held", b.Held, "100")
	assertAmount(t, "total", b.Total(), "100")
}

func TestDispute_UnknownTxDiscarded(t *testing.T) {
	eng := newEngine()

	res := process(t, eng, dispute(1, 42))

	assertDiscarded(t, res, payments.ReasonUnknownTx)
}

func TestDispute_ClientMismatchDiscarded(t *testing.T) {
	// GIVEN: Client 1 owns deposit tx 1
	eng := newEngine()
	process(t, eng, deposit(1, 1, "100"))

	// WHEN: Client 2 disputes it
	res := process(t, eng, dispute(2, 1))

	// THEN: The mismatch discards the record and nothing moves
	assertDiscarded(t, res, payments.ReasonClientMismatch)
	assertAmount(t, "held", balance(t, eng, 1).Held, "0")
}

func TestDispute_AlreadyDisputedDiscarded(t *testing.T) {
	eng := newEngine()
	processAll(t, eng, deposit(1, 1, "100"), dispute(1, 1))

	res := process(t, eng, dispute(1, 1))

	assertDiscarded(t, res, payments.ReasonAlreadyDisputed)
	b := balance(t, eng, 1)
	assertAmount(t, "available", b.Available, "0")
	assertAmount(t, "held", b.Held, "100")
}

// =============================================================================
// RESOLVES
// =============================================================================

func TestResolve_ReleasesHold(t *testing.T) {
	eng := newEngine()
	processAll(t, eng, deposit(1, 1, "100"), dispute(1, 1))

	res := process(t, eng, resolve(1, 1))

	if !res.Applied() {
		t.Fatalf("resolve discarded: %v", res.Reason)
	}
	b := balance(t, eng, 1)
	assertAmount(t, "available", b.Available, "100")
	assertAmount(t, "held", b.Held, "0")
	if b.Locked {
		t.Error("resolve must not lock the account")
	}
}

func TestResolve_NotDisputedDiscarded(t *testing.T) {
	eng := newEngine()
	process(t, eng, deposit(1, 1, "100"))

	res := process(t, eng, resolve(1, 1))

	assertDiscarded(t, res, payments.ReasonNotDisputed)
}

func TestResolve_ClientMismatchDiscarded(t *testing.T) {
	eng := newEngine()
	processAll(t, eng, deposit(1, 1, "100"), dispute(1, 1))

	res := process(t, eng, resolve(2, 1))

	assertDiscarded(t, res, payments.ReasonClientMismatch)
	assertAmount(t, "held", balance(t, eng, 1).Held, "100")
}

// =============================================================================
// CHARGEBACKS
// =============================================================================

func TestChargeback_WithdrawsHeldAndLocks(t *testing.T) {
	eng := newEngine()
	processAll(t, eng, deposit(1, 1, "100"), dispute(1, 1))

	res := process(t, eng, chargeback(1, 1))

	if !res.Applied() {
		t.Fatalf("chargeback discarded: %v", res.Reason)
	}
	b := balance(t, eng, 1)
	assertAmount(t, "available", b.Available, "0")
	assertAmount(t, "held", b.Held, "0")
	assertAmount(t, "total", b.Total(), "0")
	if !b.Locked {
		t.Error("chargeback must lock the account")
	}
}

func TestChargeback_NotDisputedDiscarded(t *testing.T) {
	eng := newEngine()
	process(t, eng, deposit(1, 1, "100"))

	res := process(t, eng, chargeback(1, 1))

	assertDiscarded(t, res, payments.ReasonNotDisputed)
	if balance(t, eng, 1).Locked {
		t.Error("discarded chargeback must not lock")
	}
}

// =============================================================================
// LOCKED ACCOUNTS
// =============================================================================

func TestLocked_DiscardsEveryOperation(t *testing.T) {
	// GIVEN: A client locked by a chargeback, with a second disputable
	// deposit still in the log
	eng := newEngine()
	processAll(t, eng,
		deposit(1, 1, "100"),
		deposit(1, 2, "50"),
		dispute(1, 1),
		chargeback(1, 1),
	)
	before := balance(t, eng, 1)
	if !before.Locked {
		t.Fatal("setup: account should be locked")
	}

	// WHEN: Every operation type is attempted against the locked client
	ops := []payments.Record{
		deposit(1, 10, "5"),
		withdrawal(1, 11, "5"),
		dispute(1, 2),
		resolve(1, 2),
		chargeback(1, 2),
	}

	// THEN: Each is discarded as locked and the balance never moves
	for _, rec := range ops {
		res := process(t, eng, rec)
		assertDiscarded(t, res, payments.ReasonAccountLocked)
	}
	after := balance(t, eng, 1)
	assertAmount(t, "available", after.Available, before.Available.String())
	assertAmount(t, "held", after.Held, before.Held.String())
}

func TestLocked_WinsOverDuplicateCheck(t *testing.T) {
	// The locked gate runs before duplicate detection, so replaying an old
	// tx id against a locked account reports account_locked.
	eng := newEngine()
	processAll(t, eng, deposit(1, 1, "100"), dispute(1, 1), chargeback(1, 1))

	res := process(t, eng, deposit(1, 1, "100"))

	assertDiscarded(t, res, payments.ReasonAccountLocked)
}

func TestLocked_OtherClientsUnaffected(t *testing.T) {
	eng := newEngine()
	processAll(t, eng,
		deposit(1, 1, "100"),
		dispute(1, 1),
		chargeback(1, 1),
	)

	res := process(t, eng, deposit(2, 2, "10"))

	if !res.Applied() {
		t.Fatalf("unrelated client discarded: %v", res.Reason)
	}
	assertAmount(t, "available", balance(t, eng, 2).Available, "10")
}

// =============================================================================
// END-TO-END SCENARIOS
// =============================================================================

func TestScenario_BasicFlow(t *testing.T) {
	// GIVEN: Two clients trading deposits and withdrawals
	eng := newEngine()

	// WHEN: One withdrawal is covered and one is not
	processAll(t, eng,
		deposit(1, 1, "1.0"),
		deposit(2, 2, "2.0"),
		deposit(1, 3, "2.0"),
		withdrawal(1, 4, "1.5"),
		withdrawal(2, 5, "3.0"),
	)

	// THEN: The uncovered withdrawal left no trace
	b1 := balance(t, eng, 1)
	assertAmount(t, "client 1 available", b1.Available, "1.5")
	assertAmount(t, "client 1 total", b1.Total(), "1.5")
	if b1.Locked {
		t.Error("client 1 should be unlocked")
	}

	b2 := balance(t, eng, 2)
	assertAmount(t, "client 2 available", b2.Available, "2.0")
	assertAmount(t, "client 2 total", b2.Total(), "2.0")
	if b2.Locked {
		t.Error("client 2 should be unlocked")
	}
}

func TestScenario_DisputeResolveRoundTrip(t *testing.T) {
	// GIVEN: A deposit disputed and then resolved
	eng := newEngine()
	processAll(t, eng, deposit(1, 1, "100.0"), dispute(1, 1), resolve(1, 1))

	// THEN: Funds are fully restored
	b := balance(t, eng, 1)
	assertAmount(t, "available", b.Available, "100.0")
	assertAmount(t, "held", b.Held, "0")
	if b.Locked {
		t.Error("account should be unlocked")
	}

	// AND: The lifecycle is terminal, a second dispute finds no entry
	res := process(t, eng, dispute(1, 1))
	assertDiscarded(t, res, payments.ReasonUnknownTx)
}

func TestScenario_ChargebackAfterWithdrawal(t *testing.T) {
	// GIVEN: A client who withdrew most of a deposit that is then disputed
	eng := newEngine()
	processAll(t, eng,
		deposit(1, 1, "100.0"),
		withdrawal(1, 2, "80.0"),
	)

	// WHEN: The deposit is disputed
	process(t, eng, dispute(1, 1))

	// THEN: Available goes negative; the full deposit is held
	mid := balance(t, eng, 1)
	assertAmount(t, "available under dispute", mid.Available, "-80.0")
	assertAmount(t, "held under dispute", mid.Held, "100.0")
	assertAmount(t, "total under dispute", mid.Total(), "20.0")

	// WHEN: The dispute becomes a chargeback
	process(t, eng, chargeback(1, 1))

	// THEN: Held funds leave, the debt remains, the account is frozen
	b := balance(t, eng, 1)
	assertAmount(t, "available", b.Available, "-80.0")
	assertAmount(t, "held", b.Held, "0")
	assertAmount(t, "total", b.Total(), "-80.0")
	if !b.Locked {
		t.Error("account should be locked")
	}
}

func TestScenario_DisputeChainAcrossDeposits(t *testing.T) {
	// GIVEN: Two deposits, the first resolved, the second charged back
	eng := newEngine()
	processAll(t, eng,
		deposit(1, 1, "10"),
		dispute(1, 1),
		resolve(1, 1),
		deposit(1, 2, "10"),
		dispute(1, 2),
		chargeback(1, 2),
	)

	// THEN: Only the resolved deposit's funds remain, and the client is locked
	b := balance(t, eng, 1)
	assertAmount(t, "available", b.Available, "10")
	assertAmount(t, "held", b.Held, "0")
	if !b.Locked {
		t.Error("account should be locked")
	}
}

// =============================================================================
// STATS
// =============================================================================

func TestStats_CountsOutcomes(t *testing.T) {
	eng := newEngine()
	processAll(t, eng,
		deposit(1, 1, "10"),    // applied
		deposit(1, 1, "10"),    // duplicate
		withdrawal(1, 2, "1"),  // applied
		withdrawal(1, 3, "99"), // invalid: insufficient funds
		dispute(1, 42),         // invalid: unknown tx
	)

	stats := eng.Stats()
	if stats.Processed != 5 {
		t.Errorf("processed = %d, want 5", stats.Processed)
	}
	if stats.Applied != 2 {
		t.Errorf("applied = %d, want 2", stats.Applied)
	}
	if stats.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", stats.Duplicates)
	}
	if stats.Invalid != 2 {
		t.Errorf("invalid = %d, want 2", stats.Invalid)
	}
	if stats.Reasons[payments.ReasonInsufficientFunds] != 1 {
		t.Errorf("insufficient_funds count = %d, want 1", stats.Reasons[payments.ReasonInsufficientFunds])
	}
}
