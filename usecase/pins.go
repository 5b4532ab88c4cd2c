package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"main/config"
	"main/model"
	"main/repository"
	"main/services"
	"main/utils"
)

// Activity actions a client can record against a pin.
const (
	ActionEndorse  = "endorse"
	ActionRenew    = "renew"
	ActionDownvote = "downvote"
)

// ErrPinNotFound is returned when the requested pin is not in the
// collection.
var ErrPinNotFound = errors.New("pin not found")

// ValidationError carries a structured validation result up to the caller,
// which branches on it instead of treating it as an internal failure.
type ValidationError struct {
	Result model.ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pin failed validation with %d errors", len(e.Result.Errors))
}

// PinService orchestrates the lifecycle engines over the persisted
// collection: scoring and tiering at read time, validation, migration and
// healing around loads and writes.
type PinService struct {
	Store      repository.PinStore
	Scoring    *ScoringService
	Tiering    *TierService
	Validation *ValidationService
	Migration  *MigrationService
	Healing    *HealingService
	Cache      *services.RankingCache // optional
	Config     config.Config
	Now        func() time.Time
}

// NewPinService wires the engines over one store with one config and a
// shared clock.
func NewPinService(store repository.PinStore, cfg config.Config) *PinService {
	scoring := NewScoringService(cfg)
	validation := NewValidationService(cfg)
	migration := NewMigrationService(cfg)
	return &PinService{
		Store:      store,
		Scoring:    scoring,
		Tiering:    NewTierService(cfg, scoring),
		Validation: validation,
		Migration:  migration,
		Healing:    NewHealingService(cfg, validation, migration),
		Config:     cfg,
		Now:        time.Now,
	}
}

func (s *PinService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SetClock pins "now" across every engine, for deterministic tests.
func (s *PinService) SetClock(now func() time.Time) {
	s.Now = now
	s.Scoring.Now = now
	s.Tiering.Now = now
	s.Validation.Now = now
	s.Migration.Now = now
	s.Healing.Now = now
}

func (s *PinService) load(ctx context.Context) ([]*model.Pin, error) {
	pins, found, err := s.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return []*model.Pin{}, nil
	}
	return pins, nil
}

// ListVisible returns the collection with hidden pins excluded.
func (s *PinService) ListVisible(ctx context.Context) ([]*model.Pin, error) {
	pins, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.Tiering.Visible(pins), nil
}

// ListTier returns the visible members of the named tier, served from the
// ranking cache when it holds a fresh listing.
func (s *PinService) ListTier(ctx context.Context, tier string) ([]*model.Pin, error) {
	if s.Cache != nil {
		if cached, ok, err := s.Cache.GetListing(ctx, tier); err == nil && ok {
			return cached, nil
		}
	}

	pins, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	listing := s.Tiering.ListTier(tier, pins)

	if s.Cache != nil {
		if err := s.Cache.SetListing(ctx, tier, listing); err != nil {
			log.Printf("ranking cache: failed to store %s listing: %v", tier, err)
		}
	}
	return listing, nil
}

// GetPin finds one pin by id.
func (s *PinService) GetPin(ctx context.Context, id string) (*model.Pin, error) {
	pins, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pins {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrPinNotFound
}

// CreatePin saves a new pin with the initial engagement state. The pin is
// born on the current schema: placeId derived, category inferred.
func (s *PinService) CreatePin(ctx context.Context, pin *model.Pin) error {
	now := s.now()
	if pin.ID == "" {
		pin.ID = utils.GeneratePinID()
	}
	pin.Timestamp = now
	pin.LastEndorsedAt = now
	pin.TotalEndorsements = 1
	pin.RecentEndorsements = 1
	pin.Score = 1.0
	pin.Downvotes = 0
	pin.IsHidden = false
	pin.PlaceID = utils.DerivePlaceID(pin.ID)
	if pin.Category == "" {
		pin.Category = s.Migration.inferCategory(pin)
	}

	if res := s.Validation.ValidatePin(pin, StrictRules()); !res.IsValid {
		return &ValidationError{Result: res}
	}

	pins, err := s.load(ctx)
	if err != nil {
		return err
	}
	pins = append(pins, pin)
	if err := s.Store.Save(ctx, pins); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// RecordActivity applies one endorsement, renewal or downvote to a pin,
// refreshes its score and persists the collection. The platform label is
// recorded in the audit log only.
func (s *PinService) RecordActivity(ctx context.Context, id, action, platform string) (*model.Pin, error) {
	pins, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var updated *model.Pin
	for i, p := range pins {
		if p.ID != id {
			continue
		}
		changed := *p
		switch action {
		case ActionEndorse, ActionRenew:
			changed.TotalEndorsements++
			changed.RecentEndorsements++
			changed.LastEndorsedAt = now
		case ActionDownvote:
			changed.Downvotes++
		default:
			return nil, fmt.Errorf("unknown activity action %q", action)
		}
		if changed.Downvotes >= s.Config.DownvoteHideThreshold {
			changed.IsHidden = true
		}
		updated = s.Scoring.UpdatePinScore(&changed)
		pins[i] = updated
		break
	}
	if updated == nil {
		return nil, ErrPinNotFound
	}

	if err := s.Store.Save(ctx, pins); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	log.Printf("activity: %s on pin %s from %s", action, id, platform)
	return updated, nil
}

// ScoreBreakdown computes the pin's current score detail plus its standing
// in the population. Read-only: nothing is persisted.
func (s *PinService) ScoreBreakdown(ctx context.Context, id string) (*model.ScoreBreakdown, float64, bool, error) {
	pins, err := s.load(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	for _, p := range pins {
		if p.ID == id {
			breakdown := s.Scoring.CalculatePinScore(p)
			percentile := s.Scoring.ScorePercentile(p, pins)
			trending := percentile <= s.Config.TrendingPercentile
			return &breakdown, percentile, trending, nil
		}
	}
	return nil, 0, false, ErrPinNotFound
}

// Forecast predicts the pin's score the given number of days out.
func (s *PinService) Forecast(ctx context.Context, id string, days float64) (float64, error) {
	pin, err := s.GetPin(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.Scoring.PredictFutureScore(pin, days), nil
}

// Recommendations returns advisory strings for the pin.
func (s *PinService) Recommendations(ctx context.Context, id string) ([]string, error) {
	pin, err := s.GetPin(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Scoring.ScoreRecommendations(pin), nil
}

// RefreshScores is the explicit commit path: it recomputes every pin's
// score and hidden flag and persists the result.
func (s *PinService) RefreshScores(ctx context.Context) (int, error) {
	pins, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	for i, p := range pins {
		updated := s.Scoring.UpdatePinScore(p)
		if updated.Downvotes >= s.Config.DownvoteHideThreshold {
			updated.IsHidden = true
		}
		pins[i] = updated
	}
	if err := s.Store.Save(ctx, pins); err != nil {
		return 0, err
	}
	s.invalidateCache(ctx)
	return len(pins), nil
}

// Integrity runs the non-mutating integrity check over the raw collection.
func (s *PinService) Integrity(ctx context.Context) (*model.IntegrityReport, error) {
	records, found, err := s.Store.LoadRaw(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		records = nil
	}
	report := s.Healing.CheckDataIntegrity(records)
	return &report, nil
}

// Heal snapshots the raw collection, runs the full healing pass and
// persists the healed set. The primary collection is only overwritten
// after the snapshot write is confirmed.
func (s *PinService) Heal(ctx context.Context) (*model.HealResult, error) {
	records, found, err := s.Store.LoadRaw(ctx)
	if err != nil {
		// Top-level failure: the caller keeps the last-known-good state.
		return nil, fmt.Errorf("refusing to heal: %v", err)
	}
	if !found {
		records = nil
	}

	if err := s.Store.SaveSnapshot(ctx, records); err != nil {
		return nil, fmt.Errorf("refusing to heal without a snapshot: %v", err)
	}

	result := s.Healing.HealPinData(records)
	if err := s.Store.Save(ctx, result.HealedPins); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)

	for _, issue := range result.Issues {
		log.Printf("healing [%s] pin=%s %s", issue.Severity, issue.PinID, issue.Message)
	}
	return &result, nil
}

// AutoHealOnStartup checks integrity and runs full healing only when
// critical or high severity issues exist.
func (s *PinService) AutoHealOnStartup(ctx context.Context) (*model.IntegrityReport, *model.HealResult, error) {
	report, err := s.Integrity(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !report.NeedsHealing {
		return report, nil, nil
	}
	result, err := s.Heal(ctx)
	if err != nil {
		return report, nil, err
	}
	return report, result, nil
}

// MigrateAll migrates every legacy record and persists the collection.
func (s *PinService) MigrateAll(ctx context.Context) (int, error) {
	pins, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	migrated, count := s.Migration.MigrateAll(pins)
	if count == 0 {
		return 0, nil
	}
	if err := s.Store.Save(ctx, migrated); err != nil {
		return 0, err
	}
	s.invalidateCache(ctx)
	return count, nil
}

// CollectionStats summarizes the collection for the stats endpoint.
type CollectionStats struct {
	TotalPins    int     `json:"totalPins"`
	VisiblePins  int     `json:"visiblePins"`
	HiddenPins   int     `json:"hiddenPins"`
	RecentPins   int     `json:"recentPins"`
	TrendingPins int     `json:"trendingPins"`
	ClassicPins  int     `json:"classicPins"`
	LegacyPins   int     `json:"legacyPins"`
	AverageScore float64 `json:"averageScore"`
}

// Stats computes collection-level statistics.
func (s *PinService) Stats(ctx context.Context) (*CollectionStats, error) {
	pins, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	stats := &CollectionStats{TotalPins: len(pins)}
	scores := s.Scoring.PopulationScores(pins)
	var scoreSum float64
	for i, p := range pins {
		if s.Tiering.IsHidden(p) {
			stats.HiddenPins++
			continue
		}
		stats.VisiblePins++
		set := s.Tiering.classify(p, scores)
		if set.Recent {
			stats.RecentPins++
		}
		if set.Trending {
			stats.TrendingPins++
		}
		if set.Classics {
			stats.ClassicPins++
		}
		if p.PlaceID == "" {
			stats.LegacyPins++
		}
		scoreSum += scores[i]
	}
	if stats.VisiblePins > 0 {
		stats.AverageScore = scoreSum / float64(stats.VisiblePins)
	}
	return stats, nil
}

func (s *PinService) invalidateCache(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		log.Printf("ranking cache: invalidation failed: %v", err)
	}
}
