/*
errors.go - Sentinel errors for the payments engine

PURPOSE:
  Errors in this package mark FATAL conditions only: input that cannot be
  decoded into a Record, or a dispute log / seen set backend failing.
  Business rule rejections are never errors; they are Result outcomes
  (see outcome.go) and processing continues past them.

USAGE:
  op, err := payments.ParseOperation(field)
  if errors.Is(err, payments.ErrUnknownOperation) {
      // fatal: the run terminates, no partial output is implied
  }

SEE ALSO:
  - outcome.go: Non-fatal discard outcomes
  - stream/reader.go: Wraps these into DecodeError with record position
*/
package payments

import "errors"

var (
	// ErrUnknownOperation is returned when an operation name is not one of
	// the five recognized kinds. Fatal at the decode boundary.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidAmount is returned when an amount column is present but not
	// a decimal number. Fatal at the decode boundary. Absent or empty amount
	// columns are not decode errors; they become missing-amount discards.
	ErrInvalidAmount = errors.New("invalid amount")
)
