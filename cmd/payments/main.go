/*
main.go - Batch CLI entry point

PURPOSE:
  Streams a transactions CSV through the engine and writes the final
  balance summary CSV to stdout. Logs go to stderr, so the output can be
  piped or redirected cleanly:

      payments transactions.csv > accounts.csv

PROCESSING MODEL:
  One pass, one record at a time. Business rejections (duplicates,
  overdraws, bad dispute references) are silently discarded and the run
  continues; a structurally damaged row or a scratch store failure ends
  the run with a non-zero exit.

COMMAND-LINE FLAGS:
  -output      Write the summary CSV to a file instead of stdout
  -scratch     Keep the dispute log and seen set in a temp SQLite file
               instead of memory (constant-memory runs on huge inputs)
  -retention   Cap the dispute log at N entries (0 = unbounded)
  -sweep-every Sweep the cap after every M records (default: 10000)
  -debug       Per-discard logging and startup config

  -gen         Emit a synthetic transactions CSV to stdout and exit
  -rows        -gen: number of records (default: 1000)
  -clients     -gen: size of the client id space (default: 8)
  -seed        -gen: generator seed; same seed, same output (default: 1)

EXAMPLES:
  # Process a file
  payments transactions.csv > accounts.csv

  # Bounded memory for a huge input
  payments -scratch -retention 1000000 transactions.csv > accounts.csv

  # Generate then process ten million synthetic records
  payments -gen -rows 10000000 -clients 500 -seed 7 > big.csv
  payments -scratch big.csv > accounts.csv

SEE ALSO:
  - stream/reader.go: CSV decoding and the fatal/non-fatal split
  - payments/retention.go: What a sweep may and may not evict
  - cmd/server/main.go: The HTTP surface over the same engine
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/warp/payments-engine/payments"
	"github.com/warp/payments-engine/payments/store"
	"github.com/warp/payments-engine/store/sqlite"
	"github.com/warp/payments-engine/stream"
)

func main() {
	// Flags
	output := flag.String("output", "", "write the summary CSV here instead of stdout")
	scratch := flag.Bool("scratch", false, "use a temp SQLite file for the dispute log and seen set")
	retention := flag.Int("retention", 0, "cap the dispute log at N entries (0 = unbounded)")
	sweepEvery := flag.Int("sweep-every", 10000, "with -retention, sweep after every M records")
	gen := flag.Bool("gen", false, "emit a synthetic transactions CSV to stdout and exit")
	rows := flag.Int("rows", 1000, "with -gen, number of records to emit")
	clients := flag.Int("clients", 8, "with -gen, size of the client id space")
	seed := flag.Int64("seed", 1, "with -gen, generator seed")
	debug := flag.Bool("debug", false, "per-discard logging and startup config")
	flag.Parse()

	level := zapcore.InfoLevel
	if *debug {
		level = zapcore.DebugLevel
	}
	logger := newLogger(level)
	defer logger.Sync()

	// Generator mode: emit and exit, nothing is processed.
	if *gen {
		g := stream.NewGenerator(*rows, uint16(*clients), *seed)
		if _, err := io.Copy(os.Stdout, g); err != nil {
			logger.Fatal("failed to write generated records", zap.Error(err))
		}
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: payments [flags] transactions.csv")
		flag.PrintDefaults()
		os.Exit(2)
	}
	inputPath := flag.Arg(0)

	start := time.Now()

	input, err := os.Open(inputPath)
	if err != nil {
		logger.Fatal("failed to open input", zap.String("path", inputPath), zap.Error(err))
	}
	defer input.Close()

	// Scratch stores
	var (
		disputes payments.DisputeLog
		seen     payments.SeenSet
	)
	if *scratch {
		tmp, err := os.CreateTemp("", "payments-scratch-*.db")
		if err != nil {
			logger.Fatal("failed to create scratch file", zap.Error(err))
		}
		tmp.Close()
		st, err := sqlite.New(tmp.Name())
		if err != nil {
			logger.Fatal("failed to open scratch store", zap.String("path", tmp.Name()), zap.Error(err))
		}
		defer os.Remove(tmp.Name())
		defer st.Close()
		disputes, seen = st.DisputeLog(), st.SeenSet()
	} else {
		disputes, seen = store.NewDisputeLog(), store.NewSeenSet()
	}

	eng := payments.NewEngine(disputes, seen, logger)

	var ret *payments.Retention
	if *retention > 0 {
		ret = &payments.Retention{Log: eng.Disputes(), MaxEntries: *retention}
	}

	logger.Debug("starting",
		zap.String("input", inputPath),
		zap.Bool("scratch", *scratch),
		zap.Int("retention", *retention),
		zap.Int("sweep_every", *sweepEvery))

	// Stream records through the engine, sweeping the dispute log on cadence.
	rd := stream.NewReader(input)
	var recs int
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Fatal("input is damaged", zap.Int("row", rd.Row()), zap.Error(err))
		}

		if _, err := eng.Process(rec); err != nil {
			logger.Fatal("scratch store failure", zap.Int("row", rd.Row()), zap.Error(err))
		}

		recs++
		if ret != nil && *sweepEvery > 0 && recs%*sweepEvery == 0 {
			evicted, err := ret.Sweep()
			if err != nil {
				logger.Fatal("retention sweep failed", zap.Error(err))
			}
			if evicted > 0 {
				logger.Debug("retention sweep", zap.Int("evicted", evicted))
			}
		}
	}

	// Summary
	var out io.Writer = os.Stdout
	if *output != "" {
		dst, err := os.Create(*output)
		if err != nil {
			logger.Fatal("failed to create output", zap.String("path", *output), zap.Error(err))
		}
		defer dst.Close()
		out = dst
	}
	if err := stream.WriteSummary(out, eng.Ledger()); err != nil {
		logger.Fatal("failed to write summary", zap.Error(err))
	}

	st := eng.Stats()
	logger.Info("run complete",
		zap.Uint64("processed", st.Processed),
		zap.Uint64("applied", st.Applied),
		zap.Uint64("duplicates", st.Duplicates),
		zap.Uint64("invalid", st.Invalid),
		zap.Int("accounts", eng.Ledger().Len()),
		zap.Duration("elapsed", time.Since(start)))
}

// newLogger writes structured logs to stderr, keeping stdout clean for
// the summary CSV.
func newLogger(level zapcore.Level) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
