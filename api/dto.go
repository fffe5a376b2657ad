/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Transactions:
    RecordRequest, ResultDTO, ImportResultDTO

  Accounts:
    AccountDTO

  Operations:
    StatsDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest, ScenarioResultDTO

AMOUNT ENCODING:
  Amounts cross the API as decimal strings, never JSON numbers. Request
  amounts are parsed exactly; response amounts use the same four-decimal
  rendering as the CSV report, so a client diffing the two sees no drift.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - payments/types.go: The domain types these mirror
*/
package api

import (
	"github.com/warp/payments-engine/payments"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// RecordRequest is one transaction record submitted as JSON. Amount is a
// decimal string; it is required for deposit and withdrawal and ignored for
// the dispute lifecycle operations, mirroring the CSV column rules.
type RecordRequest struct {
	Type   string  `json:"type"`
	Client uint16  `json:"client"`
	Tx     uint32  `json:"tx"`
	Amount *string `json:"amount,omitempty"`
}

// ResultDTO reports what the engine did with one record.
type ResultDTO struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
	Applied bool   `json:"applied"`
}

// AccountDTO represents one client balance summary in API responses.
type AccountDTO struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

// ImportResultDTO summarizes one CSV import.
type ImportResultDTO struct {
	ImportID   string            `json:"import_id"`
	Processed  uint64            `json:"processed"`
	Applied    uint64            `json:"applied"`
	Duplicates uint64            `json:"duplicates"`
	Invalid    uint64            `json:"invalid"`
	ByReason   map[string]uint64 `json:"by_reason,omitempty"`
}

// StatsDTO reports engine counters and store sizes since the last reset.
type StatsDTO struct {
	Processed      uint64            `json:"processed"`
	Applied        uint64            `json:"applied"`
	Duplicates     uint64            `json:"duplicates"`
	Invalid        uint64            `json:"invalid"`
	ByReason       map[string]uint64 `json:"by_reason,omitempty"`
	Accounts       int               `json:"accounts"`
	DisputeLogSize int               `json:"dispute_log_size"`
	SeenTxSize     int               `json:"seen_tx_size"`
	Backend        string            `json:"backend"`
	UptimeSeconds  float64           `json:"uptime_seconds"`
}

// ScenarioDTO describes one canned demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ScenarioResultDTO is the state of the engine right after a scenario loads.
type ScenarioResultDTO struct {
	Scenario   string            `json:"scenario"`
	Processed  uint64            `json:"processed"`
	Applied    uint64            `json:"applied"`
	Duplicates uint64            `json:"duplicates"`
	Invalid    uint64            `json:"invalid"`
	ByReason   map[string]uint64 `json:"by_reason,omitempty"`
	Accounts   []AccountDTO      `json:"accounts"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toResultDTO(res payments.Result) ResultDTO {
	return ResultDTO{
		Outcome: res.Outcome.String(),
		Reason:  string(res.Reason),
		Applied: res.Applied(),
	}
}

func toAccountDTO(b payments.Balance) AccountDTO {
	return AccountDTO{
		Client:    uint16(b.Client),
		Available: b.Available.StringFixed(),
		Held:      b.Held.StringFixed(),
		Total:     b.Total().StringFixed(),
		Locked:    b.Locked,
	}
}

func toAccountDTOs(summaries []payments.Balance) []AccountDTO {
	dtos := make([]AccountDTO, 0, len(summaries))
	for _, b := range summaries {
		dtos = append(dtos, toAccountDTO(b))
	}
	return dtos
}

func toImportResultDTO(importID string, st payments.Stats) ImportResultDTO {
	return ImportResultDTO{
		ImportID:   importID,
		Processed:  st.Processed,
		Applied:    st.Applied,
		Duplicates: st.Duplicates,
		Invalid:    st.Invalid,
		ByReason:   reasonCounts(st),
	}
}

// reasonCounts re-keys the per-reason tallies as plain strings for JSON.
// Returns nil when nothing was discarded, so the field is omitted.
func reasonCounts(st payments.Stats) map[string]uint64 {
	if len(st.Reasons) == 0 {
		return nil
	}
	out := make(map[string]uint64, len(st.Reasons))
	for reason, n := range st.Reasons {
		out[string(reason)] = n
	}
	return out
}
