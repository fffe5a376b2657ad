/*
store.go - Dispute log and seen-set contracts

PURPOSE:
  Two pieces of per-transaction state back the engine, both injected at
  construction so backends can be swapped (in-memory by default, scratch
  SQLite for runs whose deposit count exceeds RAM):

  DisputeLog  minimal deposit state kept until a dispute lifecycle ends
  SeenSet     every tx id ever accepted, for global duplicate rejection

WHY TWO STRUCTURES:
  Dispute log entries are destroyed when a dispute resolves or charges
  back. Seen-set membership is permanent. Keeping them separate means a
  resolved deposit's tx id can never be re-deposited even though its log
  entry is long gone.

ERROR CONVENTION:
  Methods return error only for backend failures (a scratch store losing
  its file, for example). Backend failures are fatal to the run; they are
  never business discards. The in-memory implementations never fail.

SEE ALSO:
  - store/memory.go: Default map-backed implementations
  - store/sqlite: Scratch SQLite implementation of both contracts
  - retention.go: Uses EvictUndisputed to bound log growth
*/
package payments

// =============================================================================
// DISPUTE LOG - Deposit state awaiting a possible dispute
// =============================================================================

// DisputeLog stores one entry per accepted deposit until that deposit's
// dispute lifecycle reaches a terminal resolution.
//
// INVARIANTS:
//   - Insert is called only for accepted deposits and is a no-op when the
//     tx id is already present.
//   - Remove is terminal: resolve and chargeback both erase the entry, and
//     an erased tx id can never be disputed again.
//   - Eviction (retention sweeps) only ever removes undisputed entries, in
//     insertion order; an open dispute must stay resolvable.
type DisputeLog interface {
	// Insert records an accepted deposit. No-op if tx is already present.
	Insert(tx TxID, client ClientID, amount Amount) error

	// Get returns the entry for tx, or nil when absent.
	Get(tx TxID) (*DisputeEntry, error)

	// MarkDisputed flips the entry's disputed flag. No-op when absent.
	MarkDisputed(tx TxID) error

	// Remove erases the entry. Called when a dispute resolves or charges
	// back. No-op when absent.
	Remove(tx TxID) error

	// Len returns the number of live entries.
	Len() (int, error)

	// EvictUndisputed removes up to n of the oldest entries whose disputed
	// flag is false, returning how many were evicted.
	EvictUndisputed(n int) (int, error)
}

// =============================================================================
// SEEN SET - Accepted tx ids, forever
// =============================================================================

// SeenSet is the set of tx ids already accepted as new deposits or
// withdrawals. It grows monotonically and never shrinks, independent of
// dispute log cleanup.
type SeenSet interface {
	// Has reports whether tx was ever accepted.
	Has(tx TxID) (bool, error)

	// Add marks tx as accepted. No-op if already present.
	Add(tx TxID) error

	// Len returns the number of accepted tx ids.
	Len() (int, error)
}
