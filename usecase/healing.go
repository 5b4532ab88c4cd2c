package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"main/config"
	"main/model"
	"main/utils"
)

// HealingService repairs or quarantines structurally broken pin records.
// It works on raw persisted records rather than decoded pins, because the
// damage it exists to fix (wrong types, missing fields, garbage entries)
// would never survive a strict decode.
type HealingService struct {
	Config     config.Config
	Validation *ValidationService
	Migration  *MigrationService
	Now        func() time.Time
}

func NewHealingService(cfg config.Config, validation *ValidationService, migration *MigrationService) *HealingService {
	return &HealingService{
		Config:     cfg,
		Validation: validation,
		Migration:  migration,
		Now:        time.Now,
	}
}

func (h *HealingService) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// healOutcome is the per-record result of one healing attempt.
type healOutcome struct {
	pin      *model.Pin
	issues   []model.Issue
	repaired bool
	migrated bool
	removed  bool
}

// healRecord attempts to repair one raw record. Each record is handled in
// isolation; nothing here can abort the batch.
func (h *HealingService) healRecord(raw json.RawMessage) healOutcome {
	var out healOutcome
	now := h.now()

	addIssue := func(pinID, severity, msg string) {
		out.issues = append(out.issues, model.Issue{PinID: pinID, Severity: severity, Message: msg})
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		addIssue("", model.SeverityCritical, "entry is not a pin record; removed")
		out.removed = true
		return out
	}

	pin := &model.Pin{}

	// Identity. A lost id is synthesized so the record survives.
	pin.ID = asString(fields["id"])
	if pin.ID == "" {
		pin.ID = utils.GeneratePinID()
		addIssue(pin.ID, model.SeverityHigh, "missing id; synthesized a new one")
		out.repaired = true
	}

	// Coordinates. Present but out of domain is a format problem and gets
	// clamped; missing or non-numeric means the location is unrecoverable.
	lat, latOK := asFloat(fields["latitude"])
	lng, lngOK := asFloat(fields["longitude"])
	if !latOK || !lngOK {
		addIssue(pin.ID, model.SeverityCritical, "missing or non-numeric coordinates; removed")
		out.removed = true
		return out
	}
	if lat < -90 || lat > 90 {
		clamped := clamp(lat, -90, 90)
		addIssue(pin.ID, model.SeverityMedium,
			fmt.Sprintf("latitude %v out of range; clamped to %v", lat, clamped))
		lat = clamped
		out.repaired = true
	}
	if lng < -180 || lng > 180 {
		clamped := clamp(lng, -180, 180)
		addIssue(pin.ID, model.SeverityMedium,
			fmt.Sprintf("longitude %v out of range; clamped to %v", lng, clamped))
		lng = clamped
		out.repaired = true
	}
	pin.Latitude, pin.Longitude = lat, lng

	// Timestamps. Missing, unparseable or future creation times are
	// synthesized to "now".
	ts, tsOK := asTime(fields["timestamp"])
	if !tsOK {
		pin.Timestamp = now
		addIssue(pin.ID, model.SeverityHigh, "missing or invalid timestamp; synthesized")
		out.repaired = true
	} else if ts.After(now) {
		pin.Timestamp = now
		addIssue(pin.ID, model.SeverityHigh, "timestamp in the future; reset to now")
		out.repaired = true
	} else {
		pin.Timestamp = ts
	}
	if lastAt, ok := asTime(fields["lastEndorsedAt"]); ok {
		pin.LastEndorsedAt = lastAt
	}

	// Naming. A pin with no name at all gets a placeholder.
	pin.Title = asString(fields["title"])
	pin.LocationName = asString(fields["locationName"])
	if pin.DisplayName() == "" {
		pin.Title = "Untitled Pin"
		addIssue(pin.ID, model.SeverityMedium, "missing title and location name; placeholder assigned")
		out.repaired = true
	}
	pin.Description = asString(fields["description"])
	pin.Category = asString(fields["category"])
	pin.MediaURL = asString(fields["mediaUrl"])

	// Tags. A malformed tag field is normalized to an empty list.
	if rawTags, present := fields["tags"]; present {
		tags, ok := asStringList(rawTags)
		if !ok {
			addIssue(pin.ID, model.SeverityLow, "malformed tag field; normalized to empty list")
			tags = []string{}
			out.repaired = true
		}
		pin.Tags = tags
	}

	// Engagement counters. A counter that is negative, fractional or not a
	// number at all is a repair, never a quiet coercion.
	readCounter := func(field string) int {
		v, present := fields[field]
		if !present {
			return 0
		}
		f, ok := v.(float64)
		if !ok || f < 0 || f != math.Trunc(f) {
			addIssue(pin.ID, model.SeverityMedium,
				fmt.Sprintf("malformed %s counter; reset to 0", field))
			out.repaired = true
			return 0
		}
		return int(f)
	}
	pin.PlaceID = asString(fields["placeId"])
	pin.TotalEndorsements = readCounter("totalEndorsements")
	pin.RecentEndorsements = readCounter("recentEndorsements")
	pin.Downvotes = readCounter("downvotes")
	if score, ok := asFloat(fields["score"]); ok {
		pin.Score = score
	}
	pin.IsHidden = asBool(fields["isHidden"])

	// Legacy records get migrated before the final check.
	if pin.PlaceID == "" {
		migrated, changed := h.Migration.MigratePin(pin)
		if changed {
			pin = migrated
			out.migrated = true
			addIssue(pin.ID, model.SeverityLow, "legacy record migrated to current schema")
		}
	}

	// Whatever still fails validation is beyond repair.
	res := h.Validation.ValidatePin(pin, DefaultRules())
	if !res.IsValid {
		for _, e := range res.Errors {
			addIssue(pin.ID, model.SeverityHigh, "failed final validation: "+e)
		}
		out.removed = true
		return out
	}

	out.pin = pin
	return out
}

// HealPinData repairs or removes each record of a raw collection. It never
// aborts on a bad record, and duplicate ids are collapsed first occurrence
// wins.
func (h *HealingService) HealPinData(records []json.RawMessage) model.HealResult {
	result := model.HealResult{
		HealedPins:  []*model.Pin{},
		RemovedPins: []json.RawMessage{},
		Issues:      []model.Issue{},
	}
	result.Summary.Processed = len(records)

	seen := map[string]bool{}
	for _, raw := range records {
		out := h.healRecord(raw)
		result.Issues = append(result.Issues, out.issues...)
		if out.removed {
			result.RemovedPins = append(result.RemovedPins, raw)
			result.Summary.Removed++
			continue
		}
		if seen[out.pin.ID] {
			result.Summary.Duplicates++
			continue
		}
		seen[out.pin.ID] = true
		if out.repaired {
			result.Summary.Repaired++
		}
		if out.migrated {
			result.Summary.Migrated++
		}
		result.HealedPins = append(result.HealedPins, out.pin)
	}
	result.Summary.Healed = len(result.HealedPins)
	return result
}

// CheckDataIntegrity is the non-mutating counterpart of HealPinData: the
// same per-record analysis, reported without changing anything.
func (h *HealingService) CheckDataIntegrity(records []json.RawMessage) model.IntegrityReport {
	report := model.IntegrityReport{
		TotalPins:      len(records),
		Issues:         []model.Issue{},
		SeverityCounts: map[string]int{},
	}

	seen := map[string]bool{}
	for _, raw := range records {
		out := h.healRecord(raw)
		report.Issues = append(report.Issues, out.issues...)
		if out.pin != nil {
			if seen[out.pin.ID] {
				report.Issues = append(report.Issues, model.Issue{
					PinID:    out.pin.ID,
					Severity: model.SeverityHigh,
					Message:  "duplicate id; later occurrence would be dropped",
				})
			}
			seen[out.pin.ID] = true
		}
	}

	for _, issue := range report.Issues {
		report.SeverityCounts[issue.Severity]++
	}
	report.NeedsHealing = report.SeverityCounts[model.SeverityCritical] > 0 ||
		report.SeverityCounts[model.SeverityHigh] > 0

	report.Recommendations = integrityRecommendations(report)
	return report
}

func integrityRecommendations(report model.IntegrityReport) []string {
	recs := []string{}
	if report.SeverityCounts[model.SeverityCritical] > 0 {
		recs = append(recs, "collection contains unrecoverable records; run healing to quarantine them")
	}
	if report.SeverityCounts[model.SeverityHigh] > 0 {
		recs = append(recs, "records with repairable structural damage found; run healing")
	}
	if report.SeverityCounts[model.SeverityMedium] > 0 {
		recs = append(recs, "format issues present; healing will clamp or normalize them")
	}
	if report.SeverityCounts[model.SeverityLow] > 0 {
		recs = append(recs, "legacy or cosmetic issues present; migration during healing will resolve them")
	}
	if len(recs) == 0 {
		recs = append(recs, "collection is healthy; no healing required")
	}
	return recs
}

// Tolerant field extraction for raw records. JSON numbers arrive as
// float64; anything else is treated as the wrong type, never coerced from
// strings.

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil || parsed.IsZero() {
			return time.Time{}, false
		}
		return parsed, true
	case float64:
		if t <= 0 {
			return time.Time{}, false
		}
		// Epoch milliseconds past ~2001, plain seconds otherwise.
		if t > 1e12 {
			return time.UnixMilli(int64(t)).UTC(), true
		}
		return time.Unix(int64(t), 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

func asStringList(v interface{}) ([]string, bool) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
