package usecase

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"main/config"
	"main/model"
)

func newTestHealing() *HealingService {
	cfg := config.DefaultConfig()
	svc := NewHealingService(cfg, newTestValidation(), newTestMigration())
	svc.Now = fixedClock
	return svc
}

func rawRecord(t *testing.T, fields map[string]interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("failed to build raw record: %v", err)
	}
	return data
}

func goodRawRecord(t *testing.T, id string) json.RawMessage {
	return rawRecord(t, map[string]interface{}{
		"id":                 id,
		"latitude":           45.0,
		"longitude":          9.0,
		"title":              "Trattoria",
		"placeId":            "place-" + id,
		"category":           "food",
		"timestamp":          daysAgo(20).Format("2006-01-02T15:04:05Z07:00"),
		"lastEndorsedAt":     daysAgo(5).Format("2006-01-02T15:04:05Z07:00"),
		"totalEndorsements":  3,
		"recentEndorsements": 2,
		"score":              1.5,
	})
}

func issueContaining(issues []model.Issue, keyword string) bool {
	for _, issue := range issues {
		if strings.Contains(issue.Message, keyword) {
			return true
		}
	}
	return false
}

func TestHealPinDataCleanCollection(t *testing.T) {
	svc := newTestHealing()

	records := []json.RawMessage{
		goodRawRecord(t, "h1"),
		goodRawRecord(t, "h2"),
	}
	result := svc.HealPinData(records)

	if len(result.HealedPins) != 2 || len(result.RemovedPins) != 0 {
		t.Fatalf("clean collection: %d healed / %d removed, want 2/0",
			len(result.HealedPins), len(result.RemovedPins))
	}
	if result.Summary.Repaired != 0 {
		t.Errorf("nothing to repair, summary says %d", result.Summary.Repaired)
	}
}

func TestHealPinDataRejectsNonRecords(t *testing.T) {
	svc := newTestHealing()

	records := []json.RawMessage{
		json.RawMessage(`"just a string"`),
		json.RawMessage(`42`),
		json.RawMessage(`null`),
		goodRawRecord(t, "h3"),
	}
	result := svc.HealPinData(records)

	if len(result.HealedPins) != 1 {
		t.Errorf("healed = %d, want 1", len(result.HealedPins))
	}
	if len(result.RemovedPins) != 3 {
		t.Errorf("removed = %d, want 3", len(result.RemovedPins))
	}
	if !issueContaining(result.Issues, "not a pin record") {
		t.Error("non-record removal must be logged")
	}
}

func TestHealPinDataSynthesizesIdentity(t *testing.T) {
	svc := newTestHealing()

	records := []json.RawMessage{
		rawRecord(t, map[string]interface{}{
			"latitude":  10.0,
			"longitude": 10.0,
			"title":     "Lost Identity",
		}),
	}
	result := svc.HealPinData(records)

	if len(result.HealedPins) != 1 {
		t.Fatalf("record should be repaired, removed instead: %+v", result.Issues)
	}
	pin := result.HealedPins[0]
	if pin.ID == "" {
		t.Error("id not synthesized")
	}
	if pin.Timestamp.IsZero() {
		t.Error("timestamp not synthesized")
	}
	if !issueContaining(result.Issues, "missing id") {
		t.Error("id synthesis must be logged")
	}
	if !issueContaining(result.Issues, "invalid timestamp") {
		t.Error("timestamp synthesis must be logged")
	}
	if result.Summary.Repaired != 1 {
		t.Errorf("repaired = %d, want 1", result.Summary.Repaired)
	}
}

func TestHealPinDataClampsCoordinates(t *testing.T) {
	svc := newTestHealing()

	record := rawRecord(t, map[string]interface{}{
		"id":        "clamped",
		"latitude":  120.0,
		"longitude": -200.0,
		"title":     "Off the Map",
		"timestamp": daysAgo(10).Format("2006-01-02T15:04:05Z07:00"),
	})
	result := svc.HealPinData([]json.RawMessage{record})

	if len(result.HealedPins) != 1 {
		t.Fatalf("out-of-range coordinates must be clamped, not removed: %+v", result.Issues)
	}
	pin := result.HealedPins[0]
	if pin.Latitude != 90 {
		t.Errorf("latitude = %v, want clamped to 90", pin.Latitude)
	}
	if pin.Longitude != -180 {
		t.Errorf("longitude = %v, want clamped to -180", pin.Longitude)
	}
	if !issueContaining(result.Issues, "clamped") {
		t.Error("clamping must be logged as a format issue")
	}
}

func TestHealPinDataRemovesNonNumericCoordinates(t *testing.T) {
	svc := newTestHealing()

	tests := []map[string]interface{}{
		{"id": "bad1", "latitude": "not-a-number", "longitude": 5.0, "title": "Broken"},
		{"id": "bad2", "longitude": 5.0, "title": "Missing Lat"},
	}
	for _, fields := range tests {
		result := svc.HealPinData([]json.RawMessage{rawRecord(t, fields)})
		if len(result.RemovedPins) != 1 {
			t.Errorf("record %v should be removed", fields["id"])
		}
		if !issueContaining(result.Issues, "non-numeric coordinates") {
			t.Error("coordinate removal must be logged")
		}
	}
}

func TestHealPinDataNormalizesTags(t *testing.T) {
	svc := newTestHealing()

	record := rawRecord(t, map[string]interface{}{
		"id":        "tags",
		"latitude":  1.0,
		"longitude": 1.0,
		"title":     "Tagged",
		"timestamp": daysAgo(3).Format("2006-01-02T15:04:05Z07:00"),
		"tags":      "food,cafe", // string instead of list
	})
	result := svc.HealPinData([]json.RawMessage{record})

	if len(result.HealedPins) != 1 {
		t.Fatalf("malformed tags must be normalized, not fatal: %+v", result.Issues)
	}
	pin := result.HealedPins[0]
	if pin.Tags == nil || len(pin.Tags) != 0 {
		t.Errorf("tags = %v, want empty list", pin.Tags)
	}
	if !issueContaining(result.Issues, "malformed tag field") {
		t.Error("tag normalization must be logged")
	}
}

func TestHealPinDataResetsBadCounters(t *testing.T) {
	svc := newTestHealing()

	record := rawRecord(t, map[string]interface{}{
		"id":                 "counters",
		"latitude":           1.0,
		"longitude":          1.0,
		"title":              "Disputed Diner",
		"placeId":            "place-counters",
		"category":           "food",
		"timestamp":          daysAgo(8).Format("2006-01-02T15:04:05Z07:00"),
		"totalEndorsements":  -7,
		"recentEndorsements": -3,
		"downvotes":          -2,
	})
	result := svc.HealPinData([]json.RawMessage{record})

	if len(result.HealedPins) != 1 {
		t.Fatalf("record should survive with reset counters: %+v", result.Issues)
	}
	pin := result.HealedPins[0]
	if pin.TotalEndorsements != 0 || pin.RecentEndorsements != 0 || pin.Downvotes != 0 {
		t.Errorf("counters = %d/%d/%d, want 0/0/0",
			pin.TotalEndorsements, pin.RecentEndorsements, pin.Downvotes)
	}
	// Every counter reset is an audited repair, never a quiet coercion.
	resets := 0
	for _, issue := range result.Issues {
		if strings.Contains(issue.Message, "reset to 0") {
			resets++
		}
	}
	if resets != 3 {
		t.Errorf("logged %d counter repairs, want 3: %+v", resets, result.Issues)
	}
	if result.Summary.Repaired != 1 {
		t.Errorf("repaired = %d, want 1", result.Summary.Repaired)
	}

	// Fractional counters are malformed too.
	fractional := rawRecord(t, map[string]interface{}{
		"id":                "frac",
		"latitude":          1.0,
		"longitude":         1.0,
		"title":             "Half Counted",
		"placeId":           "place-frac",
		"timestamp":         daysAgo(8).Format("2006-01-02T15:04:05Z07:00"),
		"totalEndorsements": 2.5,
	})
	result = svc.HealPinData([]json.RawMessage{fractional})
	if len(result.HealedPins) != 1 || result.HealedPins[0].TotalEndorsements != 0 {
		t.Fatalf("fractional counter should reset to 0: %+v", result.Issues)
	}
	if !issueContaining(result.Issues, "malformed totalEndorsements counter") {
		t.Error("fractional counter repair must be logged")
	}
}

func TestHealPinDataMigratesLegacyRecords(t *testing.T) {
	svc := newTestHealing()

	record := rawRecord(t, map[string]interface{}{
		"id":        "legacy",
		"latitude":  2.0,
		"longitude": 2.0,
		"title":     "Old Coffee House",
		"timestamp": daysAgo(50).Format("2006-01-02T15:04:05Z07:00"),
	})
	result := svc.HealPinData([]json.RawMessage{record})

	if len(result.HealedPins) != 1 {
		t.Fatalf("legacy record should survive: %+v", result.Issues)
	}
	pin := result.HealedPins[0]
	if pin.PlaceID == "" {
		t.Error("legacy record not migrated during healing")
	}
	if pin.Category != "cafe" {
		t.Errorf("category = %q, want cafe", pin.Category)
	}
	if result.Summary.Migrated != 1 {
		t.Errorf("migrated = %d, want 1", result.Summary.Migrated)
	}
}

func TestHealPinDataDeduplicates(t *testing.T) {
	svc := newTestHealing()

	records := []json.RawMessage{
		goodRawRecord(t, "dup"),
		goodRawRecord(t, "dup"),
		goodRawRecord(t, "unique"),
	}
	result := svc.HealPinData(records)

	if len(result.HealedPins) != 2 {
		t.Errorf("healed = %d, want 2 (first duplicate wins)", len(result.HealedPins))
	}
	if result.Summary.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", result.Summary.Duplicates)
	}
	if result.HealedPins[0].ID != "dup" {
		t.Errorf("first occurrence should survive, got %s", result.HealedPins[0].ID)
	}
}

func TestHealPinDataNeverLosesRecordsSilently(t *testing.T) {
	svc := newTestHealing()

	// A grab bag of garbage and good data; healed + removed must account
	// for everything except true duplicates.
	records := []json.RawMessage{
		goodRawRecord(t, "k1"),
		json.RawMessage(`[]`),
		rawRecord(t, map[string]interface{}{"id": "k2", "latitude": 95.0, "longitude": 10.0, "title": "Clampable"}),
		rawRecord(t, map[string]interface{}{"id": "k3", "latitude": "zero", "longitude": 10.0}),
		goodRawRecord(t, "k1"), // duplicate
	}
	result := svc.HealPinData(records)

	accounted := len(result.HealedPins) + len(result.RemovedPins) + result.Summary.Duplicates
	if accounted != len(records) {
		t.Errorf("accounted for %d of %d records", accounted, len(records))
	}
	if len(result.HealedPins)+len(result.RemovedPins) > len(records) {
		t.Error("healed + removed exceeds input length")
	}
}

func TestHealPinDataFinalValidationRemoves(t *testing.T) {
	svc := newTestHealing()

	// Counters that violate the invariant are not among the repairable
	// issues, so the record falls to final validation.
	record := rawRecord(t, map[string]interface{}{
		"id":                 "inconsistent",
		"latitude":           1.0,
		"longitude":          1.0,
		"title":              "Bad Counters",
		"placeId":            "place-x",
		"timestamp":          daysAgo(10).Format("2006-01-02T15:04:05Z07:00"),
		"totalEndorsements":  2,
		"recentEndorsements": 9,
	})
	result := svc.HealPinData([]json.RawMessage{record})

	if len(result.RemovedPins) != 1 {
		t.Fatalf("invariant-breaking record must be removed, got %d healed", len(result.HealedPins))
	}
	if !issueContaining(result.Issues, "failed final validation") {
		t.Error("final validation removal must be logged")
	}
}

func TestCheckDataIntegrityDoesNotMutate(t *testing.T) {
	svc := newTestHealing()

	records := []json.RawMessage{
		goodRawRecord(t, "i1"),
		json.RawMessage(`"garbage"`),
	}
	snapshot := make([]string, len(records))
	for i, r := range records {
		snapshot[i] = string(r)
	}

	report := svc.CheckDataIntegrity(records)

	for i, r := range records {
		if string(r) != snapshot[i] {
			t.Fatal("integrity check mutated the raw records")
		}
	}
	if !report.NeedsHealing {
		t.Error("garbage entry must flag the collection for healing")
	}
	if report.SeverityCounts[model.SeverityCritical] == 0 {
		t.Error("garbage entry should count as critical")
	}
	if len(report.Recommendations) == 0 {
		t.Error("expected recommendations")
	}
}

func TestCheckDataIntegrityHealthy(t *testing.T) {
	svc := newTestHealing()

	report := svc.CheckDataIntegrity([]json.RawMessage{
		goodRawRecord(t, "ok1"),
		goodRawRecord(t, "ok2"),
	})
	if report.NeedsHealing {
		t.Errorf("healthy collection flagged for healing: %+v", report.Issues)
	}
}

func TestHealPinDataLargeBatchIsolation(t *testing.T) {
	svc := newTestHealing()

	// One poison record per ten good ones; the good ones all survive.
	var records []json.RawMessage
	for i := 0; i < 50; i++ {
		if i%10 == 0 {
			records = append(records, json.RawMessage(`false`))
			continue
		}
		records = append(records, goodRawRecord(t, fmt.Sprintf("bulk-%d", i)))
	}
	result := svc.HealPinData(records)

	if len(result.HealedPins) != 45 {
		t.Errorf("healed = %d, want 45", len(result.HealedPins))
	}
	if len(result.RemovedPins) != 5 {
		t.Errorf("removed = %d, want 5", len(result.RemovedPins))
	}
}
