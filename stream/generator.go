/*
generator.go - Synthetic Transaction Stream

PURPOSE:
  Fabricates a CSV transaction stream on the fly, for load runs and for
  streaming tests that want a large input without a file on disk. The
  stream is deterministic per seed.

SHAPE:
  Mostly deposits and withdrawals, with a tail of dispute/resolve/
  chargeback rows referencing earlier deposits. Withdrawals may exceed the
  balance and chargebacks lock clients mid-stream; the engine is expected
  to discard accordingly, the generator does not coordinate.

EXAMPLE:
  gen := stream.NewGenerator(1_000_000, 200, 42)
  stats, err := stream.Feed(eng, gen)
*/
package stream

import (
	"fmt"
	"io"
	"math/rand"
)

// Eligible deposits tracked for lifecycle rows. Bounded so the generator
// itself stays constant-memory on long runs.
const maxTracked = 1024

type genDeposit struct {
	tx     uint32
	client uint16
}

// Generator is an io.Reader producing CSV text: a header row, then exactly
// the configured number of records.
type Generator struct {
	rng     *rand.Rand
	rows    int
	clients uint16

	emitted    int
	headerDone bool
	nextTx     uint32
	open       []genDeposit // applied deposits, not yet disputed
	disputed   []genDeposit // currently under dispute
	buf        []byte
}

// NewGenerator builds a stream of rows records spread over client ids
// 1..clients. clients of 0 is treated as 1.
func NewGenerator(rows int, clients uint16, seed int64) *Generator {
	if clients == 0 {
		clients = 1
	}
	return &Generator{
		rng:     rand.New(rand.NewSource(seed)),
		rows:    rows,
		clients: clients,
		nextTx:  1,
	}
}

func (g *Generator) Read(p []byte) (int, error) {
	for len(g.buf) == 0 {
		line := g.nextLine()
		if line == nil {
			return 0, io.EOF
		}
		g.buf = line
	}
	n := copy(p, g.buf)
	g.buf = g.buf[n:]
	return n, nil
}

func (g *Generator) nextLine() []byte {
	if !g.headerDone {
		g.headerDone = true
		return []byte("type,client,tx,amount\n")
	}
	if g.emitted >= g.rows {
		return nil
	}
	g.emitted++

	// Field padding varies so consumers get exercised on whitespace.
	sep := ","
	if g.rng.Intn(8) == 0 {
		sep = ", "
	}

	switch roll := g.rng.Intn(100); {
	case roll < 55:
		return g.deposit(sep)
	case roll < 80:
		return g.withdrawal(sep)
	case roll < 90:
		return g.dispute(sep)
	case roll < 95:
		return g.lifecycle("resolve", sep)
	default:
		return g.lifecycle("chargeback", sep)
	}
}

func (g *Generator) deposit(sep string) []byte {
	client := g.pickClient()
	tx := g.nextTx
	g.nextTx++

	if len(g.open) >= maxTracked {
		g.open = g.open[1:]
	}
	g.open = append(g.open, genDeposit{tx: tx, client: client})

	cents := g.rng.Intn(1_000_000) // up to 9999.99
	return []byte(fmt.Sprintf("deposit%s%d%s%d%s%d.%02d\n", sep, client, sep, tx, sep, cents/100, cents%100))
}

func (g *Generator) withdrawal(sep string) []byte {
	client := g.pickClient()
	tx := g.nextTx
	g.nextTx++
	cents := g.rng.Intn(100_000) // up to 999.99, small enough to usually clear
	return []byte(fmt.Sprintf("withdrawal%s%d%s%d%s%d.%02d\n", sep, client, sep, tx, sep, cents/100, cents%100))
}

func (g *Generator) dispute(sep string) []byte {
	if len(g.open) == 0 {
		return g.deposit(sep)
	}
	i := g.rng.Intn(len(g.open))
	d := g.open[i]
	g.open = append(g.open[:i], g.open[i+1:]...)
	g.disputed = append(g.disputed, d)
	return []byte(fmt.Sprintf("dispute%s%d%s%d%s\n", sep, d.client, sep, d.tx, sep))
}

func (g *Generator) lifecycle(op string, sep string) []byte {
	if len(g.disputed) == 0 {
		return g.deposit(sep)
	}
	i := g.rng.Intn(len(g.disputed))
	d := g.disputed[i]
	g.disputed = append(g.disputed[:i], g.disputed[i+1:]...)
	return []byte(fmt.Sprintf("%s%s%d%s%d%s\n", op, sep, d.client, sep, d.tx, sep))
}

func (g *Generator) pickClient() uint16 {
	return uint16(g.rng.Intn(int(g.clients))) + 1
}
