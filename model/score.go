package model

import "time"

// Score event types. Weights for each live in usecase/scoring.go.
const (
	EventEndorsement = "endorsement"
	EventRenewal     = "renewal"
	EventDownvote    = "downvote"
	EventCreation    = "creation"
)

// ScoreEvent is a single weighted interaction used as scoring provenance.
// Events are synthesized from the pin's summary counters, not replayed
// from a true ledger.
type ScoreEvent struct {
	Type      string    `bson:"type" json:"type"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Weight    float64   `bson:"weight" json:"weight"`
	DaysAgo   float64   `bson:"days_ago" json:"daysAgo"`
}

// ScoreBreakdown is the full result of scoring one pin.
type ScoreBreakdown struct {
	PinID          string       `json:"pinId"`
	CurrentScore   float64      `json:"currentScore"`
	PreviousScore  float64      `json:"previousScore"`
	Change         float64      `json:"change"`
	Events         []ScoreEvent `json:"events"`
	LastCalculated time.Time    `json:"lastCalculated"`
}

// TierSet is the non-exclusive tier membership of a pin. Hidden is an
// overriding flag, not a tier: a hidden pin is excluded from every listing.
type TierSet struct {
	Recent   bool `json:"recent"`
	Trending bool `json:"trending"`
	Classics bool `json:"classics"`
	Hidden   bool `json:"hidden"`
}
