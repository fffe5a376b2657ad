/*
retention.go - Optional bound on dispute log growth

PURPOSE:
  An un-disputed deposit's log entry is otherwise retained for the whole
  run, so worst-case log size is proportional to total deposit count.
  Retention layers a window on top: when the log exceeds MaxEntries, the
  oldest undisputed entries are evicted until it fits. A deposit whose
  entry was evicted can no longer be disputed; its record is simply
  discarded as unknown, the same as any tx id the log never held.

WHAT A SWEEP NEVER TOUCHES:
  - Disputed entries: an open dispute must stay resolvable.
  - The seen set: duplicate rejection stays global and permanent.

USAGE:
  ret := &payments.Retention{Log: eng.Disputes(), MaxEntries: 1_000_000}
  evicted, err := ret.Sweep()   // call every N records, or from a ticker

SEE ALSO:
  - store.go: EvictUndisputed contract the sweep relies on
  - api: runs sweeps from a background ticker in server mode
*/
package payments

import "fmt"

// Retention caps the dispute log at MaxEntries by evicting the oldest
// undisputed entries. Zero or negative MaxEntries disables sweeping.
type Retention struct {
	Log        DisputeLog
	MaxEntries int
}

// Sweep evicts until the log is within MaxEntries and reports how many
// entries were removed. When every excess entry is disputed, the log may
// legitimately stay above the cap.
func (r *Retention) Sweep() (int, error) {
	if r == nil || r.MaxEntries <= 0 {
		return 0, nil
	}
	n, err := r.Log.Len()
	if err != nil {
		return 0, fmt.Errorf("dispute log len: %w", err)
	}
	if n <= r.MaxEntries {
		return 0, nil
	}
	evicted, err := r.Log.EvictUndisputed(n - r.MaxEntries)
	if err != nil {
		return 0, fmt.Errorf("dispute log evict: %w", err)
	}
	return evicted, nil
}
