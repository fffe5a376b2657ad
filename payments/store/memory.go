// Package store provides the default in-memory dispute log and seen set.
//
// Both types are plain maps with no locking: the engine is single-threaded
// and concurrent surfaces serialize above it, so the store never sees two
// writers. Neither type ever returns an error.
package store

import (
	"github.com/warp/payments-engine/payments"
)

// =============================================================================
// DISPUTE LOG - map keyed by tx id, insertion order kept for eviction
// =============================================================================

// DisputeLog is the map-backed payments.DisputeLog.
type DisputeLog struct {
	entries map[payments.TxID]*payments.DisputeEntry

	// Insertion-order queue consumed by EvictUndisputed. head marks the
	// first position not yet ruled out; everything before it is removed,
	// disputed, or evicted and never needs another look.
	order []payments.TxID
	head  int
}

var _ payments.DisputeLog = (*DisputeLog)(nil)

func NewDisputeLog() *DisputeLog {
	return &DisputeLog{entries: make(map[payments.TxID]*payments.DisputeEntry)}
}

func (d *DisputeLog) Insert(tx payments.TxID, client payments.ClientID, amount payments.Amount) error {
	if _, ok := d.entries[tx]; ok {
		return nil
	}
	d.entries[tx] = &payments.DisputeEntry{Tx: tx, Client: client, Amount: amount}
	d.order = append(d.order, tx)
	return nil
}

func (d *DisputeLog) Get(tx payments.TxID) (*payments.DisputeEntry, error) {
	return d.entries[tx], nil
}

func (d *DisputeLog) MarkDisputed(tx payments.TxID) error {
	if e, ok := d.entries[tx]; ok {
		e.Disputed = true
	}
	return nil
}

func (d *DisputeLog) Remove(tx payments.TxID) error {
	delete(d.entries, tx)
	return nil
}

func (d *DisputeLog) Len() (int, error) {
	return len(d.entries), nil
}

// EvictUndisputed removes up to n of the oldest undisputed entries.
// Disputed entries are skipped permanently: a disputed entry either stays
// disputed or is removed outright, it never becomes evictable again.
func (d *DisputeLog) EvictUndisputed(n int) (int, error) {
	evicted := 0
	for d.head < len(d.order) && evicted < n {
		tx := d.order[d.head]
		d.head++
		e, ok := d.entries[tx]
		if !ok || e.Disputed {
			continue
		}
		delete(d.entries, tx)
		evicted++
	}
	d.compact()
	return evicted, nil
}

// compact reclaims the consumed front of the order queue once it dominates
// the slice, keeping queue memory proportional to live entries.
func (d *DisputeLog) compact() {
	if d.head < len(d.order)/2 || d.head < 1024 {
		return
	}
	d.order = append([]payments.TxID(nil), d.order[d.head:]...)
	d.head = 0
}

// =============================================================================
// SEEN SET - membership only, grows forever
// =============================================================================

// SeenSet is the map-backed payments.SeenSet.
type SeenSet struct {
	ids map[payments.TxID]struct{}
}

var _ payments.SeenSet = (*SeenSet)(nil)

func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[payments.TxID]struct{})}
}

func (s *SeenSet) Has(tx payments.TxID) (bool, error) {
	_, ok := s.ids[tx]
	return ok, nil
}

func (s *SeenSet) Add(tx payments.TxID) error {
	s.ids[tx] = struct{}{}
	return nil
}

func (s *SeenSet) Len() (int, error) {
	return len(s.ids), nil
}
