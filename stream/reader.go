/*
reader.go - Streaming CSV Record Source

PURPOSE:
  Decodes transaction records from a CSV stream one row at a time, so input
  size never dictates memory use. The reader owns the line between fatal
  input corruption and business-rule rejection:

  - Structural damage is FATAL: wrong field count, an operation name that
    is not one of the five, a client or tx id that does not parse or does
    not fit its integer width, amount text that is not a decimal number.
    These surface as *DecodeError and abort the run.
  - Well-formed but unacceptable records are NOT the reader's problem: a
    missing or negative amount on a deposit decodes fine and the engine
    discards it with a reason.

FORMAT:
  type, client, tx, amount
  deposit, 1, 1, 1.0
  dispute, 1, 1,

  The first row is always consumed as a header. Whitespace around any field
  is insignificant. Lifecycle rows (dispute/resolve/chargeback) carry three
  fields, or four with the amount left empty; amount text on them is
  ignored.

SEE ALSO:
  - writer.go: the output side
  - payments/engine.go: where decoded records are applied
*/
package stream

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/warp/payments-engine/payments"
)

// =============================================================================
// DECODE ERRORS
// =============================================================================

// DecodeError reports a fatal input flaw: which data row (1-based, header
// excluded), which field, and the underlying cause.
type DecodeError struct {
	Row   int
	Field string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("row %d: bad %s: %v", e.Row, e.Field, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// =============================================================================
// READER
// =============================================================================

// Reader yields payments.Record values from CSV text.
type Reader struct {
	csv        *csv.Reader
	row        int
	headerDone bool
}

func NewReader(src io.Reader) *Reader {
	c := csv.NewReader(src)
	c.TrimLeadingSpace = true
	c.FieldsPerRecord = -1 // rows legitimately carry 3 or 4 fields
	c.ReuseRecord = true   // decode copies what it keeps
	return &Reader{csv: c}
}

// Row reports the number of data rows read so far.
func (r *Reader) Row() int { return r.row }

// Next returns the next record. io.EOF ends the stream; any other error is
// fatal and the reader should not be used again.
func (r *Reader) Next() (payments.Record, error) {
	if !r.headerDone {
		r.headerDone = true
		if _, err := r.csv.Read(); err != nil {
			if err == io.EOF {
				return payments.Record{}, io.EOF
			}
			return payments.Record{}, errors.Wrap(err, "read header")
		}
	}

	fields, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return payments.Record{}, io.EOF
		}
		return payments.Record{}, errors.Wrap(err, "read record")
	}
	r.row++
	return r.decode(fields)
}

func (r *Reader) decode(fields []string) (payments.Record, error) {
	if len(fields) < 3 || len(fields) > 4 {
		return payments.Record{}, &DecodeError{
			Row:   r.row,
			Field: "fields",
			Cause: errors.Errorf("got %d fields, want 3 or 4", len(fields)),
		}
	}

	op, err := payments.ParseOperation(fields[0])
	if err != nil {
		return payments.Record{}, &DecodeError{Row: r.row, Field: "type", Cause: err}
	}

	client, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 16)
	if err != nil {
		return payments.Record{}, &DecodeError{Row: r.row, Field: "client", Cause: err}
	}

	tx, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 32)
	if err != nil {
		return payments.Record{}, &DecodeError{Row: r.row, Field: "tx", Cause: err}
	}

	rec := payments.Record{
		Op:     op,
		Client: payments.ClientID(client),
		Tx:     payments.TxID(tx),
	}

	// Amount applies to deposits and withdrawals only. An empty column
	// stays nil so the engine can reject it as a business rule, not a
	// parse failure.
	if op.HasAmount() && len(fields) == 4 {
		raw := strings.TrimSpace(fields[3])
		if raw != "" {
			a, err := payments.ParseAmount(raw)
			if err != nil {
				return payments.Record{}, &DecodeError{Row: r.row, Field: "amount", Cause: err}
			}
			rec.Amount = &a
		}
	}
	return rec, nil
}

// =============================================================================
// FEED
// =============================================================================

// Feed drains src through the engine and reports what happened to this
// batch alone, independent of the engine's lifetime counters. Stops at the
// first fatal error; records applied before it stay applied.
func Feed(eng *payments.Engine, src io.Reader) (payments.Stats, error) {
	var stats payments.Stats
	r := NewReader(src)
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		res, err := eng.Process(rec)
		if err != nil {
			return stats, errors.Wrapf(err, "row %d", r.Row())
		}
		stats.Count(res)
	}
}
