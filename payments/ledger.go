/*
ledger.go - Per-client balance store

PURPOSE:
  The Ledger owns every client Balance. Accounts come into existence the
  first time any record references their client id and live until the
  process ends. All mutation flows through the engine's single call path;
  the ledger itself only hands out the account to mutate.

CRITICAL INVARIANTS:
  1. DERIVED TOTAL: total = available + held, recomputed on every read.
     No operation may produce a state where the equality is violated.
  2. MONOTONIC LOCK: once a client is locked it stays locked. No unlock
     operation exists.
  3. NEGATIVE AVAILABLE IS LEGAL: a dispute decreases available
     unconditionally, so a client who withdrew disputed funds goes negative.
     Held never goes negative by construction.

OUTPUT ORDERING:
  Summaries returns rows in ascending client id so two runs over the same
  input produce byte-identical output.

SEE ALSO:
  - engine.go: The only mutator
  - stream/writer.go: Renders Summaries as the output document
*/
package payments

import "sort"

// =============================================================================
// LEDGER - Client id -> account state
// =============================================================================

// Ledger maps client ids to their balance state. Not safe for concurrent
// use; the engine is single-threaded and callers with concurrent surfaces
// serialize around the engine.
type Ledger struct {
	accounts map[ClientID]*Balance
}

func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[ClientID]*Balance)}
}

// GetOrCreate returns the mutable account for a client, creating a zeroed
// unlocked account on first reference.
func (l *Ledger) GetOrCreate(id ClientID) *Balance {
	if acct, ok := l.accounts[id]; ok {
		return acct
	}
	acct := &Balance{
		Client:    id,
		Available: ZeroAmount(),
		Held:      ZeroAmount(),
	}
	l.accounts[id] = acct
	return acct
}

// Get returns the account for a client if it was ever referenced.
func (l *Ledger) Get(id ClientID) (*Balance, bool) {
	acct, ok := l.accounts[id]
	return acct, ok
}

// Len returns the number of clients ever referenced.
func (l *Ledger) Len() int { return len(l.accounts) }

// ClientIDs returns every referenced client id in ascending order.
func (l *Ledger) ClientIDs() []ClientID {
	ids := make([]ClientID, 0, len(l.accounts))
	for id := range l.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Summaries returns a copy of every account in ascending client id order.
func (l *Ledger) Summaries() []Balance {
	ids := l.ClientIDs()
	out := make([]Balance, 0, len(ids))
	for _, id := range ids {
		out = append(out, *l.accounts[id])
	}
	return out
}
