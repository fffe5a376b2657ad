/*
Package sqlite provides a SQLite-backed dispute log and seen-transaction set.

PURPOSE:
  Scratch storage for runs whose deposit volume outgrows RAM. The engine's
  per-deposit state (dispute-log entries, seen tx ids) moves to a SQLite
  file while account balances stay in memory; nothing here survives the
  run on purpose. The CLI creates the file under the temp dir and removes
  it on exit.

INTERFACES IMPLEMENTED:
  payments.DisputeLog: via Store.DisputeLog()
  payments.SeenSet:    via Store.SeenSet()

  Both views share one Store because the two contracts each declare Len;
  a single receiver cannot carry both meanings.

KEY TABLES:
  dispute_log: one row per accepted deposit; seq (AUTOINCREMENT) preserves
               insertion order for oldest-first eviction; amount is the
               exact decimal string, never a float
  seen_tx:     bare tx_id membership, monotone

CONCURRENCY:
  None added here. The engine is single-writer; anything concurrent (the
  HTTP layer) serializes above the engine. The connection pool is pinned
  to one connection so SQLite sees a single session.

USAGE:
  st, err := sqlite.New(filepath.Join(os.TempDir(), "payments.db"))
  if err != nil { ... }
  defer st.Close()
  eng := payments.NewEngine(st.DisputeLog(), st.SeenSet(), logger)

SEE ALSO:
  - payments/store.go: interface contracts
  - payments/store/memory.go: the default map-backed backend
*/
package sqlite

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/warp/payments-engine/payments"
)

// Store owns the database handle behind both views.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=OFF")
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// Scratch data, single writer: one session keeps SQLite simple.
	db.SetMaxOpenConns(1)

	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate database")
	}
	return st, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Accepted deposits eligible for dispute. seq orders eviction.
	CREATE TABLE IF NOT EXISTS dispute_log (
		seq       INTEGER PRIMARY KEY AUTOINCREMENT,
		tx_id     INTEGER NOT NULL UNIQUE,
		client_id INTEGER NOT NULL,
		amount    TEXT NOT NULL,
		disputed  INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_dispute_log_undisputed
		ON dispute_log(seq) WHERE disputed = 0;

	-- Every tx id ever accepted. Rows are never deleted.
	CREATE TABLE IF NOT EXISTS seen_tx (
		tx_id INTEGER PRIMARY KEY
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Reset clears both tables (for the demo surface; a fresh engine needs a
// fresh backend).
func (s *Store) Reset() error {
	for _, table := range []string{"dispute_log", "seen_tx"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return errors.Wrapf(err, "clear %s", table)
		}
	}
	return nil
}

// DisputeLog returns the payments.DisputeLog view of this store.
func (s *Store) DisputeLog() *DisputeLog { return &DisputeLog{db: s.db} }

// SeenSet returns the payments.SeenSet view of this store.
func (s *Store) SeenSet() *SeenSet { return &SeenSet{db: s.db} }

// =============================================================================
// DISPUTE LOG (payments.DisputeLog interface)
// =============================================================================

type DisputeLog struct {
	db *sql.DB
}

var _ payments.DisputeLog = (*DisputeLog)(nil)

func (d *DisputeLog) Insert(tx payments.TxID, client payments.ClientID, amount payments.Amount) error {
	_, err := d.db.Exec(
		"INSERT OR IGNORE INTO dispute_log (tx_id, client_id, amount) VALUES (?, ?, ?)",
		tx, client, amount.String(),
	)
	return errors.Wrapf(err, "insert tx %d", tx)
}

func (d *DisputeLog) Get(tx payments.TxID) (*payments.DisputeEntry, error) {
	var (
		client   uint16
		raw      string
		disputed bool
	)
	err := d.db.QueryRow(
		"SELECT client_id, amount, disputed FROM dispute_log WHERE tx_id = ?", tx,
	).Scan(&client, &raw, &disputed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get tx %d", tx)
	}

	amount, err := payments.ParseAmount(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "stored amount for tx %d", tx)
	}
	return &payments.DisputeEntry{
		Tx:       tx,
		Client:   payments.ClientID(client),
		Amount:   amount,
		Disputed: disputed,
	}, nil
}

func (d *DisputeLog) MarkDisputed(tx payments.TxID) error {
	_, err := d.db.Exec("UPDATE dispute_log SET disputed = 1 WHERE tx_id = ?", tx)
	return errors.Wrapf(err, "mark tx %d", tx)
}

func (d *DisputeLog) Remove(tx payments.TxID) error {
	_, err := d.db.Exec("DELETE FROM dispute_log WHERE tx_id = ?", tx)
	return errors.Wrapf(err, "remove tx %d", tx)
}

func (d *DisputeLog) Len() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM dispute_log").Scan(&n)
	return n, errors.Wrap(err, "count dispute log")
}

func (d *DisputeLog) EvictUndisputed(n int) (int, error) {
	res, err := d.db.Exec(`
		DELETE FROM dispute_log WHERE seq IN (
			SELECT seq FROM dispute_log WHERE disputed = 0 ORDER BY seq LIMIT ?
		)`, n)
	if err != nil {
		return 0, errors.Wrap(err, "evict undisputed")
	}
	evicted, err := res.RowsAffected()
	return int(evicted), errors.Wrap(err, "evicted count")
}

// =============================================================================
// SEEN SET (payments.SeenSet interface)
// =============================================================================

type SeenSet struct {
	db *sql.DB
}

var _ payments.SeenSet = (*SeenSet)(nil)

func (s *SeenSet) Has(tx payments.TxID) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM seen_tx WHERE tx_id = ?", tx).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "lookup tx %d", tx)
	}
	return true, nil
}

func (s *SeenSet) Add(tx payments.TxID) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO seen_tx (tx_id) VALUES (?)", tx)
	return errors.Wrapf(err, "add tx %d", tx)
}

func (s *SeenSet) Len() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM seen_tx").Scan(&n)
	return n, errors.Wrap(err, "count seen set")
}
