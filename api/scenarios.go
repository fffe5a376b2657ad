/*
scenarios.go - Demo scenarios for testing and demonstrations

PURPOSE:

	Provides pre-built record sequences that exercise specific engine
	behaviors. Each scenario resets the engine, feeds a fixed CSV batch,
	and returns the resulting balance summaries, so a client (or a curl
	session) can watch one rule fire in isolation.

AVAILABLE SCENARIOS:

	basic-flow:        Deposits and withdrawals, one insufficient-funds discard
	dispute-resolve:   Full dispute round trip, funds held then released
	chargeback:        Disputed deposit charged back, available goes negative
	locked-account:    Post-chargeback records discarded, other clients fine
	duplicate-replay:  Reused tx ids rejected, even after a resolved dispute

HOW SCENARIOS WORK:
 1. Reset the engine (discard all state)
 2. Feed the scenario's CSV through the stream reader
 3. Return batch stats plus every account summary

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "chargeback"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add the CSV fixture to scenarioFeed

NOTE:

	Scenarios reset the engine. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Reset, writeJSON/writeError
  - stream/reader.go: The CSV decoding these fixtures go through
*/
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/payments-engine/stream"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "basic-flow",
		Name:        "Basic Flow",
		Description: "Deposits and withdrawals across two clients, one overdraw rejected",
	},
	{
		ID:          "dispute-resolve",
		Name:        "Dispute and Resolve",
		Description: "Disputed deposit held, then released and withdrawn to the cent",
	},
	{
		ID:          "chargeback",
		Name:        "Chargeback",
		Description: "Dispute after spending drives available negative, chargeback locks",
	},
	{
		ID:          "locked-account",
		Name:        "Locked Account",
		Description: "Records after a chargeback bounce off the frozen account",
	},
	{
		ID:          "duplicate-replay",
		Name:        "Duplicate Replay",
		Description: "A tx id accepted once never applies again, dispute lifecycle or not",
	},
}

// scenarioFeed returns the CSV batch behind a scenario id.
func scenarioFeed(id string) (string, bool) {
	switch id {
	case "basic-flow":
		return `type,client,tx,amount
deposit,1,1,100.0
deposit,2,2,55.5
deposit,1,3,42.25
withdrawal,1,4,60.0
withdrawal,2,5,100.0
`, true
	case "dispute-resolve":
		return `type,client,tx,amount
deposit,1,1,120.0
deposit,1,2,30.0
dispute,1,1,
resolve,1,1,
withdrawal,1,3,150.0
`, true
	case "chargeback":
		return `type,client,tx,amount
deposit,1,1,100.0
withdrawal,1,2,80.0
dispute,1,1,
chargeback,1,1,
`, true
	case "locked-account":
		return `type,client,tx,amount
deposit,1,1,50.0
dispute,1,1,
chargeback,1,1,
deposit,1,2,25.0
withdrawal,1,3,10.0
deposit,2,4,75.0
`, true
	case "duplicate-replay":
		return `type,client,tx,amount
deposit,1,1,60.0
deposit,1,1,60.0
deposit,1,2,40.0
dispute,1,2,
resolve,1,2,
deposit,1,2,40.0
`, true
	default:
		return "", false
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario resets the engine and feeds a predefined record batch.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	feed, ok := scenarioFeed(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	if err := h.freshEngine(); err != nil {
		h.mu.Unlock()
		writeError(w, http.StatusInternalServerError, "Failed to reset engine", err)
		return
	}
	batch, err := stream.Feed(h.eng, strings.NewReader(feed))
	summaries := h.eng.Summaries()
	h.mu.Unlock()
	if err != nil {
		// Fixtures are static and known-good; a failure here is a backend fault.
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.logger.Info("scenario loaded",
		zap.String("scenario", req.ScenarioID),
		zap.Uint64("processed", batch.Processed),
		zap.Int("accounts", len(summaries)))

	writeJSON(w, http.StatusOK, ScenarioResultDTO{
		Scenario:   req.ScenarioID,
		Processed:  batch.Processed,
		Applied:    batch.Applied,
		Duplicates: batch.Duplicates,
		Invalid:    batch.Invalid,
		ByReason:   reasonCounts(batch),
		Accounts:   toAccountDTOs(summaries),
	})
}
