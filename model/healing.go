package model

import "encoding/json"

// Issue severities, ordered. Critical and high severities trigger full
// healing on startup; medium and low are reported only.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Issue is one finding from the integrity check or one repair action taken
// during healing. Every repair is recorded, never silently dropped.
type Issue struct {
	PinID    string `json:"pinId,omitempty"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// HealSummary aggregates what a healing pass did.
type HealSummary struct {
	Processed  int `json:"processed"`
	Healed     int `json:"healed"`
	Repaired   int `json:"repaired"`
	Removed    int `json:"removed"`
	Migrated   int `json:"migrated"`
	Duplicates int `json:"duplicates"`
}

// HealResult is the outcome of a full healing pass over a collection.
// Removed entries keep their original raw bytes so no user data is thrown
// away without a trace.
type HealResult struct {
	HealedPins  []*Pin            `json:"healedPins"`
	RemovedPins []json.RawMessage `json:"removedPins"`
	Issues      []Issue           `json:"issues"`
	Summary     HealSummary       `json:"summary"`
}

// IntegrityReport is the non-mutating counterpart of HealResult: findings
// and recommendations without any data change.
type IntegrityReport struct {
	TotalPins       int            `json:"totalPins"`
	Issues          []Issue        `json:"issues"`
	SeverityCounts  map[string]int `json:"severityCounts"`
	Recommendations []string       `json:"recommendations"`
	NeedsHealing    bool           `json:"needsHealing"`
}
