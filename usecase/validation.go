package usecase

import (
	"fmt"
	"math"
	"net/url"
	"time"

	"main/config"
	"main/model"
)

// ValidationRules marks which optional fields the active rule set requires.
// Structural invariants are always enforced regardless of rules.
type ValidationRules struct {
	RequirePlaceID           bool
	RequireCategory          bool
	RequireScore             bool
	RequireTotalEndorsements bool
}

// DefaultRules is what healing validates against: structural invariants
// only, so legacy records get a chance to be migrated rather than removed.
func DefaultRules() ValidationRules {
	return ValidationRules{}
}

// StrictRules additionally requires every migrated-era field.
func StrictRules() ValidationRules {
	return ValidationRules{
		RequirePlaceID:           true,
		RequireCategory:          true,
		RequireScore:             true,
		RequireTotalEndorsements: true,
	}
}

// Categories the product understands. Anything else is a warning, never an
// error: categories are free-form by contract.
var KnownCategories = map[string]bool{
	"food":      true,
	"cafe":      true,
	"bar":       true,
	"outdoors":  true,
	"culture":   true,
	"shopping":  true,
	"lodging":   true,
	"transit":   true,
	"viewpoint": true,
	"general":   true,
}

// Warning thresholds. These flag suspicious but acceptable data.
const (
	maxTitleChars       = 200
	maxDescriptionChars = 2000
	maxPlausibleScore   = 100
	maxPlausibleAgeDays = 3650
)

// ValidationService runs structural, business-rule and cross-record checks.
// Failures come back as structured results, never as panics.
type ValidationService struct {
	Config config.Config
	Now    func() time.Time
}

func NewValidationService(cfg config.Config) *ValidationService {
	return &ValidationService{Config: cfg, Now: time.Now}
}

func (v *ValidationService) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// ValidatePin checks a single pin against the structural invariants and the
// active rule set. Errors disqualify; warnings do not.
func (v *ValidationService) ValidatePin(pin *model.Pin, rules ValidationRules) model.ValidationResult {
	now := v.now()
	res := model.ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}
	if pin == nil {
		res.Errors = append(res.Errors, "pin is nil")
		return res
	}
	res.PinID = pin.ID

	// Structural errors.
	if pin.ID == "" {
		res.Errors = append(res.Errors, "missing id")
	}
	if math.IsNaN(pin.Latitude) || math.IsNaN(pin.Longitude) ||
		math.IsInf(pin.Latitude, 0) || math.IsInf(pin.Longitude, 0) {
		res.Errors = append(res.Errors, "coordinates are not finite numbers")
	} else {
		if pin.Latitude < -90 || pin.Latitude > 90 {
			res.Errors = append(res.Errors, fmt.Sprintf("latitude %v out of range [-90,90]", pin.Latitude))
		}
		if pin.Longitude < -180 || pin.Longitude > 180 {
			res.Errors = append(res.Errors, fmt.Sprintf("longitude %v out of range [-180,180]", pin.Longitude))
		}
	}
	if pin.DisplayName() == "" {
		res.Errors = append(res.Errors, "missing title and location name")
	}
	if pin.Timestamp.IsZero() {
		res.Errors = append(res.Errors, "missing timestamp")
	} else if pin.Timestamp.After(now) {
		res.Errors = append(res.Errors, "timestamp is in the future")
	}
	if !pin.LastEndorsedAt.IsZero() && !pin.Timestamp.IsZero() &&
		pin.LastEndorsedAt.Before(pin.Timestamp) {
		res.Errors = append(res.Errors, "lastEndorsedAt precedes creation timestamp")
	}
	if pin.TotalEndorsements < 0 || pin.RecentEndorsements < 0 {
		res.Errors = append(res.Errors, "endorsement counters must be non-negative")
	}
	if pin.RecentEndorsements > pin.TotalEndorsements {
		res.Errors = append(res.Errors, fmt.Sprintf("recentEndorsements (%d) exceeds totalEndorsements (%d)",
			pin.RecentEndorsements, pin.TotalEndorsements))
	}
	if pin.Downvotes < 0 {
		res.Errors = append(res.Errors, "downvotes must be non-negative")
	}
	if pin.Downvotes > v.Config.DownvoteHideThreshold && !pin.IsHidden {
		res.Errors = append(res.Errors, fmt.Sprintf("downvotes (%d) over the hide threshold (%d) without the hidden flag",
			pin.Downvotes, v.Config.DownvoteHideThreshold))
	}
	if pin.Score < 0 || math.IsNaN(pin.Score) {
		res.Errors = append(res.Errors, "score must be a non-negative number")
	}

	// Rule-set requirements.
	if rules.RequirePlaceID && pin.PlaceID == "" {
		res.Errors = append(res.Errors, "placeId is required by the active rule set")
	}
	if rules.RequireCategory && pin.Category == "" {
		res.Errors = append(res.Errors, "category is required by the active rule set")
	}
	if rules.RequireScore && pin.Score == 0 && pin.TotalEndorsements > 0 {
		res.Errors = append(res.Errors, "score is required by the active rule set")
	}
	if rules.RequireTotalEndorsements && pin.TotalEndorsements == 0 {
		res.Errors = append(res.Errors, "totalEndorsements is required by the active rule set")
	}

	// Warnings.
	if !pin.Timestamp.IsZero() && pin.AgeDays(now) > maxPlausibleAgeDays {
		res.Warnings = append(res.Warnings, "timestamp is unusually old")
	}
	if pin.Score > maxPlausibleScore {
		res.Warnings = append(res.Warnings, fmt.Sprintf("score %v is implausibly high", pin.Score))
	}
	if len(pin.Title) > maxTitleChars {
		res.Warnings = append(res.Warnings, "title is oversized")
	}
	if len(pin.Description) > maxDescriptionChars {
		res.Warnings = append(res.Warnings, "description is oversized")
	}
	if pin.TotalEndorsements > 0 && float64(pin.Downvotes)/float64(pin.TotalEndorsements) > 0.5 {
		res.Warnings = append(res.Warnings, "downvote ratio over 50%")
	}
	if pin.Category != "" && !KnownCategories[pin.Category] {
		res.Warnings = append(res.Warnings, fmt.Sprintf("unrecognized category %q", pin.Category))
	}
	if pin.MediaURL != "" {
		if u, err := url.Parse(pin.MediaURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			res.Warnings = append(res.Warnings, "media reference URL is malformed")
		}
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

// ValidatePinCollection partitions a batch into valid and invalid pins with
// per-record detail and aggregate counts.
func (v *ValidationService) ValidatePinCollection(pins []*model.Pin, rules ValidationRules) model.CollectionValidationResult {
	out := model.CollectionValidationResult{
		Valid:   []*model.Pin{},
		Invalid: []*model.Pin{},
		Results: make([]model.ValidationResult, 0, len(pins)),
	}
	for _, pin := range pins {
		res := v.ValidatePin(pin, rules)
		out.Results = append(out.Results, res)
		out.WarningCount += len(res.Warnings)
		if res.IsValid {
			out.Valid = append(out.Valid, pin)
		} else {
			out.Invalid = append(out.Invalid, pin)
		}
	}
	out.ValidCount = len(out.Valid)
	out.InvalidCount = len(out.Invalid)
	return out
}

// ValidateDataConsistency runs cross-record checks over the collection:
// duplicate placeIds, orphaned placeId references, and mixed-generation
// records.
func (v *ValidationService) ValidateDataConsistency(pins []*model.Pin) model.ConsistencyReport {
	report := model.ConsistencyReport{
		DuplicatePlaceIDs: map[string][]string{},
		OrphanedPlaceIDs:  []string{},
		TypeIssues:        []string{},
	}

	byPlace := map[string][]string{}
	legacy, migrated := 0, 0
	for _, pin := range pins {
		if pin == nil {
			report.TypeIssues = append(report.TypeIssues, "collection contains a nil record")
			continue
		}
		if pin.PlaceID == "" {
			legacy++
		} else {
			migrated++
			byPlace[pin.PlaceID] = append(byPlace[pin.PlaceID], pin.ID)
			if !validPlaceIDShape(pin.PlaceID) {
				report.OrphanedPlaceIDs = append(report.OrphanedPlaceIDs, pin.ID)
			}
		}
		if math.IsNaN(pin.Latitude) || math.IsNaN(pin.Longitude) {
			report.TypeIssues = append(report.TypeIssues,
				fmt.Sprintf("pin %s has non-numeric coordinates", pin.ID))
		}
		if math.IsNaN(pin.Score) || math.IsInf(pin.Score, 0) {
			report.TypeIssues = append(report.TypeIssues,
				fmt.Sprintf("pin %s has a non-finite score", pin.ID))
		}
	}

	// Sharing a placeId is legal (several pins of one place) but reported
	// so dedup decisions stay visible.
	for placeID, ids := range byPlace {
		if len(ids) > 1 {
			report.DuplicatePlaceIDs[placeID] = ids
		}
	}
	if legacy > 0 && migrated > 0 {
		report.TypeIssues = append(report.TypeIssues,
			fmt.Sprintf("mixed generations: %d legacy records without placeId alongside %d migrated", legacy, migrated))
	}

	report.IsConsistent = len(report.OrphanedPlaceIDs) == 0 && len(report.TypeIssues) == 0
	return report
}

// validPlaceIDShape rejects placeIds that are blank or contain whitespace.
func validPlaceIDShape(placeID string) bool {
	if placeID == "" {
		return false
	}
	for _, r := range placeID {
		if r == ' ' || r == '\t' || r == '\n' {
			return false
		}
	}
	return true
}
