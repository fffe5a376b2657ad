/*
handlers.go - HTTP API handlers for the transaction engine

PURPOSE:
  Exposes the transaction engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Transactions:
    POST   /api/transactions           Process one record
    POST   /api/transactions/import    Process a CSV stream

  Accounts:
    GET    /api/accounts               List all balance summaries
    GET    /api/accounts/{clientID}    Get one balance summary
    GET    /api/report                 Download the CSV summary

  Operations:
    GET    /api/stats                  Engine counters and store sizes
    POST   /api/reset                  Discard all state, start fresh

  Scenarios (scenarios.go):
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario

CONCURRENCY:
  The engine is strictly single-writer: it consumes one record at a time
  and its stores carry no internal locking. The Handler preserves that by
  serializing every engine touch behind one mutex. An import holds the
  mutex for its whole stream, so concurrent submissions queue behind it.

ERROR MODEL:
  Business rejections (duplicate tx, insufficient funds, locked account)
  are HTTP 200 with a discarded outcome in the body; the engine treats
  them as data, not failures. HTTP error statuses are reserved for
  malformed requests (400), unknown resources (404), and backend faults
  (500).

SEE ALSO:
  - dto.go: Request/response types
  - server.go: Route wiring
  - sweeper.go: Background retention sweeps
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/warp/payments-engine/config"
	"github.com/warp/payments-engine/payments"
	"github.com/warp/payments-engine/payments/store"
	"github.com/warp/payments-engine/store/sqlite"
	"github.com/warp/payments-engine/stream"
)

// Handler holds the engine and its backing stores for all API endpoints.
type Handler struct {
	mu  sync.Mutex
	eng *payments.Engine

	// sqliteStore is nil when the memory backend is configured.
	sqliteStore *sqlite.Store
	retention   *payments.Retention
	maxEntries  int
	backend     string

	logger  *zap.Logger
	started time.Time
}

// NewHandler builds the engine and stores described by cfg.
// Call Close when done; it releases the sqlite store if one was opened.
func NewHandler(cfg config.Config, logger *zap.Logger) (*Handler, error) {
	h := &Handler{
		backend:    cfg.StoreBackend,
		maxEntries: cfg.RetentionMaxEntries,
		logger:     logger,
		started:    time.Now(),
	}

	if cfg.StoreBackend == config.BackendSQLite {
		path := cfg.StorePath
		if path == "" {
			path = filepath.Join(os.TempDir(), "payments-engine.db")
		}
		st, err := sqlite.New(path)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "open sqlite store %q", path)
		}
		h.sqliteStore = st
	}

	h.eng = h.newEngine()
	if h.maxEntries > 0 {
		h.retention = &payments.Retention{Log: h.eng.Disputes(), MaxEntries: h.maxEntries}
	}
	return h, nil
}

// newEngine builds an engine over the configured backend.
func (h *Handler) newEngine() *payments.Engine {
	if h.sqliteStore != nil {
		return payments.NewEngine(h.sqliteStore.DisputeLog(), h.sqliteStore.SeenSet(), h.logger)
	}
	return payments.NewEngine(store.NewDisputeLog(), store.NewSeenSet(), h.logger)
}

// freshEngine discards all engine state. Caller must hold h.mu.
func (h *Handler) freshEngine() error {
	if h.sqliteStore != nil {
		if err := h.sqliteStore.Reset(); err != nil {
			return pkgerrors.Wrap(err, "reset sqlite store")
		}
	}
	h.eng = h.newEngine()
	if h.retention != nil {
		h.retention.Log = h.eng.Disputes()
	}
	return nil
}

// Close releases the backing store.
func (h *Handler) Close() error {
	if h.sqliteStore == nil {
		return nil
	}
	return pkgerrors.Wrap(h.sqliteStore.Close(), "close sqlite store")
}

// =============================================================================
// TRANSACTION ENDPOINTS
// =============================================================================

// SubmitTransaction processes a single record.
// POST /api/transactions
func (h *Handler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	op, err := payments.ParseOperation(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction type", err)
		return
	}

	var amount *payments.Amount
	if req.Amount != nil && strings.TrimSpace(*req.Amount) != "" {
		a, err := payments.ParseAmount(*req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
		amount = &a
	}

	rec := payments.Record{
		Op:     op,
		Client: payments.ClientID(req.Client),
		Tx:     payments.TxID(req.Tx),
		Amount: amount,
	}

	h.mu.Lock()
	res, err := h.eng.Process(rec)
	h.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to process transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, toResultDTO(res))
}

// ImportTransactions processes the request body as a CSV stream.
// POST /api/transactions/import
//
// Record-level rejections are tallied and the import continues; a
// structurally broken row aborts with 400. Records applied before the
// broken row stay applied, same as the CLI on a damaged file.
func (h *Handler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	importID := uuid.NewString()

	h.mu.Lock()
	stats, err := stream.Feed(h.eng, r.Body)
	h.mu.Unlock()

	if err != nil {
		var decodeErr *stream.DecodeError
		if pkgerrors.As(err, &decodeErr) {
			writeError(w, http.StatusBadRequest, "Import aborted on malformed record", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Import failed", err)
		return
	}

	h.logger.Info("import complete",
		zap.String("import_id", importID),
		zap.Uint64("processed", stats.Processed),
		zap.Uint64("applied", stats.Applied),
		zap.Uint64("duplicates", stats.Duplicates),
		zap.Uint64("invalid", stats.Invalid))

	writeJSON(w, http.StatusOK, toImportResultDTO(importID, stats))
}

// =============================================================================
// ACCOUNT ENDPOINTS
// =============================================================================

// ListAccounts returns every client balance summary, ascending client id.
// GET /api/accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	summaries := h.eng.Summaries()
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, toAccountDTOs(summaries))
}

// GetAccount returns one client's balance summary.
// GET /api/accounts/{clientID}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "clientID")
	id, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid client id", err)
		return
	}

	h.mu.Lock()
	b, ok := h.eng.Ledger().Get(payments.ClientID(id))
	var balance payments.Balance
	if ok {
		balance = *b
	}
	h.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Account not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toAccountDTO(balance))
}

// GetReport streams the CSV balance summary as a download.
// GET /api/report
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	// Render under the lock into a buffer so client I/O never stalls the engine.
	var buf bytes.Buffer
	h.mu.Lock()
	err := stream.WriteSummary(&buf, h.eng.Ledger())
	h.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render report", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="accounts.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// OPERATIONS ENDPOINTS
// =============================================================================

// GetStats returns engine counters, store sizes, and uptime.
// GET /api/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	st := h.eng.Stats()
	accounts := h.eng.Ledger().Len()
	logSize, logErr := h.eng.Disputes().Len()
	seenSize, seenErr := h.eng.Seen().Len()
	h.mu.Unlock()

	if logErr != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read dispute log", logErr)
		return
	}
	if seenErr != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read seen set", seenErr)
		return
	}

	writeJSON(w, http.StatusOK, StatsDTO{
		Processed:      st.Processed,
		Applied:        st.Applied,
		Duplicates:     st.Duplicates,
		Invalid:        st.Invalid,
		ByReason:       reasonCounts(st),
		Accounts:       accounts,
		DisputeLogSize: logSize,
		SeenTxSize:     seenSize,
		Backend:        h.backend,
		UptimeSeconds:  time.Since(h.started).Seconds(),
	})
}

// Reset discards the engine and starts a fresh one.
// POST /api/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	err := h.freshEngine()
	h.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset engine", err)
		return
	}

	h.logger.Info("engine reset", zap.String("backend", h.backend))
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
