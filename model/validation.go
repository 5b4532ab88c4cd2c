package model

// ValidationResult is the outcome of validating a single pin. Errors are
// disqualifying; warnings are advisory. Callers branch on IsValid, nothing
// here is ever raised as a panic.
type ValidationResult struct {
	PinID    string   `json:"pinId,omitempty"`
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// CollectionValidationResult partitions a batch of pins into valid and
// invalid sets with per-record detail.
type CollectionValidationResult struct {
	Valid        []*Pin             `json:"valid"`
	Invalid      []*Pin             `json:"invalid"`
	Results      []ValidationResult `json:"results"`
	ValidCount   int                `json:"validCount"`
	InvalidCount int                `json:"invalidCount"`
	WarningCount int                `json:"warningCount"`
}

// ConsistencyReport holds cross-record findings over a collection.
type ConsistencyReport struct {
	IsConsistent      bool                `json:"isConsistent"`
	DuplicatePlaceIDs map[string][]string `json:"duplicatePlaceIds,omitempty"` // placeId -> pin ids sharing it
	OrphanedPlaceIDs  []string            `json:"orphanedPlaceIds,omitempty"`  // pin ids referencing a blank-derived placeId
	TypeIssues        []string            `json:"typeIssues,omitempty"`
}
