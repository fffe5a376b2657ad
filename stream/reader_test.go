package stream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payments-engine/payments"
	"github.com/warp/payments-engine/payments/store"
)

const header = "type,client,tx,amount\n"

func readOne(t *testing.T, row string) (payments.Record, error) {
	t.Helper()
	r := NewReader(strings.NewReader(header + row + "\n"))
	return r.Next()
}

func TestReader_DecodesRecords(t *testing.T) {
	amount := func(s string) *payments.Amount {
		a := payments.MustParseAmount(s)
		return &a
	}

	tests := []struct {
		name string
		row  string
		want payments.Record
	}{
		{
			name: "deposit",
			row:  "deposit,1,1,1.0",
			want: payments.Record{Op: payments.OpDeposit, Client: 1, Tx: 1, Amount: amount("1.0")},
		},
		{
			name: "whitespace around every field",
			row:  " withdrawal , 42 , 7 , 1.5 ",
			want: payments.Record{Op: payments.OpWithdrawal, Client: 42, Tx: 7, Amount: amount("1.5")},
		},
		{
			name: "operation name case-insensitive",
			row:  "Deposit,1,2,3",
			want: payments.Record{Op: payments.OpDeposit, Client: 1, Tx: 2, Amount: amount("3")},
		},
		{
			name: "dispute with three fields",
			row:  "dispute,1,1",
			want: payments.Record{Op: payments.OpDispute, Client: 1, Tx: 1},
		},
		{
			name: "resolve with empty amount column",
			row:  "resolve,1,1,",
			want: payments.Record{Op: payments.OpResolve, Client: 1, Tx: 1},
		},
		{
			name: "chargeback ignores spurious amount",
			row:  "chargeback,1,1,99.0",
			want: payments.Record{Op: payments.OpChargeback, Client: 1, Tx: 1},
		},
		{
			name: "deposit with empty amount decodes to nil",
			row:  "deposit,1,1,",
			want: payments.Record{Op: payments.OpDeposit, Client: 1, Tx: 1},
		},
		{
			name: "negative amount decodes fine",
			row:  "deposit,1,1,-3",
			want: payments.Record{Op: payments.OpDeposit, Client: 1, Tx: 1, Amount: amount("-3")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readOne(t, tt.row)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Op, got.Op)
			assert.Equal(t, tt.want.Client, got.Client)
			assert.Equal(t, tt.want.Tx, got.Tx)
			if tt.want.Amount == nil {
				assert.Nil(t, got.Amount)
			} else {
				require.NotNil(t, got.Amount)
				assert.True(t, got.Amount.Equal(*tt.want.Amount),
					"amount = %s, want %s", got.Amount, tt.want.Amount)
			}
		})
	}
}

func TestReader_FatalRows(t *testing.T) {
	tests := []struct {
		name      string
		row       string
		wantField string
	}{
		{name: "too few fields", row: "deposit,1", wantField: "fields"},
		{name: "too many fields", row: "deposit,1,1,1.0,excess", wantField: "fields"},
		{name: "unknown operation", row: "transfer,1,1,1.0", wantField: "type"},
		{name: "non-numeric client", row: "deposit,alice,1,1.0", wantField: "client"},
		{name: "client over 16 bits", row: "deposit,70000,1,1.0", wantField: "client"},
		{name: "negative tx", row: "deposit,1,-5,1.0", wantField: "tx"},
		{name: "tx over 32 bits", row: "deposit,1,5000000000,1.0", wantField: "tx"},
		{name: "malformed amount", row: "deposit,1,1,1.2.3", wantField: "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readOne(t, tt.row)
			require.Error(t, err)

			var de *DecodeError
			require.True(t, errors.As(err, &de), "error %T is not a DecodeError", err)
			assert.Equal(t, tt.wantField, de.Field)
			assert.Equal(t, 1, de.Row)
		})
	}
}

func TestReader_EmptyInput(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, err := r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReader_HeaderOnly(t *testing.T) {
	r := NewReader(strings.NewReader(header))
	_, err := r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReader_FirstRowAlwaysConsumedAsHeader(t *testing.T) {
	// No header in the input: the first record is eaten in its place.
	r := NewReader(strings.NewReader("deposit,1,1,1.0\ndeposit,2,2,2.0\n"))

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, payments.ClientID(2), rec.Client)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReader_CountsRows(t *testing.T) {
	input := header +
		"deposit,1,1,1.0\n" +
		"deposit,2,2,2.0\n" +
		"deposit,bad,3,3.0\n"
	r := NewReader(strings.NewReader(input))

	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, r.Row())

	_, err = r.Next()
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 3, de.Row)
}

func TestFeed_AppliesBatchAndCounts(t *testing.T) {
	eng := payments.NewEngine(store.NewDisputeLog(), store.NewSeenSet(), nil)
	input := header +
		"deposit,1,1,5.0\n" +
		"withdrawal,1,2,2.0\n" +
		"withdrawal,1,3,100.0\n" + // insufficient, discarded
		"deposit,1,1,5.0\n"        // duplicate, discarded

	stats, err := Feed(eng, strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, uint64(4), stats.Processed)
	assert.Equal(t, uint64(2), stats.Applied)
	assert.Equal(t, uint64(1), stats.Duplicates)
	assert.Equal(t, uint64(1), stats.Invalid)
	assert.Equal(t, uint64(1), stats.Reasons[payments.ReasonInsufficientFunds])

	b, ok := eng.Ledger().Get(1)
	require.True(t, ok)
	assert.Equal(t, "3.0000", b.Available.StringFixed())
}

func TestFeed_StopsAtFirstFatalRow(t *testing.T) {
	eng := payments.NewEngine(store.NewDisputeLog(), store.NewSeenSet(), nil)
	input := header +
		"deposit,1,1,5.0\n" +
		"deposit,one,2,1.0\n" + // fatal
		"deposit,1,3,7.0\n"     // never reached

	stats, err := Feed(eng, strings.NewReader(input))
	require.Error(t, err)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 2, de.Row)

	// The record before the fatal row stays applied.
	assert.Equal(t, uint64(1), stats.Processed)
	b, ok := eng.Ledger().Get(1)
	require.True(t, ok)
	assert.Equal(t, "5.0000", b.Available.StringFixed())
}
