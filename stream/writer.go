/*
writer.go - Balance Summary CSV Output

PURPOSE:
  Renders the final state of a ledger as CSV: one row per client ever
  referenced, ascending client id, every amount with exactly four digits
  after the decimal point.

  client,available,held,total,locked
  1,1.5000,0.0000,1.5000,false
*/
package stream

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/warp/payments-engine/payments"
)

var summaryHeader = []string{"client", "available", "held", "total", "locked"}

// WriteSummary streams the ledger's balances to w. Rows are written one at
// a time; only the sorted id slice is materialized.
func WriteSummary(w io.Writer, ledger *payments.Ledger) error {
	out := csv.NewWriter(w)
	if err := out.Write(summaryHeader); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, id := range ledger.ClientIDs() {
		b, ok := ledger.Get(id)
		if !ok {
			continue
		}
		row := []string{
			strconv.FormatUint(uint64(id), 10),
			b.Available.StringFixed(),
			b.Held.StringFixed(),
			b.Total().StringFixed(),
			strconv.FormatBool(b.Locked),
		}
		if err := out.Write(row); err != nil {
			return errors.Wrapf(err, "write client %d", id)
		}
	}
	out.Flush()
	return errors.Wrap(out.Error(), "flush summary")
}
