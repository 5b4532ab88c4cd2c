package usecase

import (
	"fmt"
	"math"
	"time"

	"main/config"
	"main/model"
)

// Event weights are fixed. Endorsements count full, renewals are worth a
// bit more than half, downvotes claw back a third of an endorsement.
const (
	WeightEndorsement = 1.0
	WeightRenewal     = 0.6
	WeightDownvote    = -0.3
)

// maxSynthesizedRenewals caps how many renewal events are reconstructed
// from the recent-endorsement counter.
const maxSynthesizedRenewals = 3

// ScoringService computes time-decayed relevance scores. All methods are
// pure for a fixed "now"; nothing here touches persisted state.
type ScoringService struct {
	Config config.Config
	Now    func() time.Time
}

func NewScoringService(cfg config.Config) *ScoringService {
	return &ScoringService{Config: cfg, Now: time.Now}
}

func (s *ScoringService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Decay returns the exponential decay factor for an event daysAgo days in
// the past: 0.5^(daysAgo/halfLife), clamped to 1 for daysAgo <= 0.
func Decay(daysAgo, halfLifeDays float64) float64 {
	if daysAgo <= 0 {
		return 1
	}
	return math.Pow(0.5, daysAgo/halfLifeDays)
}

// ComputeScore sums the decayed weights of a list of events. An empty
// event list scores zero.
func ComputeScore(events []model.ScoreEvent, halfLifeDays float64) float64 {
	var total float64
	for _, ev := range events {
		total += ev.Weight * Decay(ev.DaysAgo, halfLifeDays)
	}
	return total
}

// synthesizeEvents reconstructs a proxy event list from the pin's summary
// counters. This is provenance, not a replay of a true ledger: the counters
// do not record when each interaction happened, so timings are approximated.
func (s *ScoringService) synthesizeEvents(pin *model.Pin, now time.Time) []model.ScoreEvent {
	events := []model.ScoreEvent{}
	ageDays := pin.AgeDays(now)
	trendingWindow := float64(s.Config.TrendingWindowDays)

	// Creation still contributes while the pin is inside the trending window.
	if ageDays <= trendingWindow {
		events = append(events, model.ScoreEvent{
			Type:      model.EventCreation,
			Timestamp: pin.Timestamp,
			Weight:    WeightEndorsement,
			DaysAgo:   math.Max(ageDays, 0),
		})
	}

	// The most recent endorsement, when distinct from creation.
	if !pin.LastEndorsedAt.IsZero() && !pin.LastEndorsedAt.Equal(pin.Timestamp) {
		daysAgo := now.Sub(pin.LastEndorsedAt).Hours() / 24
		events = append(events, model.ScoreEvent{
			Type:      model.EventEndorsement,
			Timestamp: pin.LastEndorsedAt,
			Weight:    WeightEndorsement,
			DaysAgo:   math.Max(daysAgo, 0),
		})
	}

	// Repeated recent endorsements become renewal events spaced evenly
	// across recent history.
	if pin.RecentEndorsements > 1 {
		n := pin.RecentEndorsements - 1
		if n > maxSynthesizedRenewals {
			n = maxSynthesizedRenewals
		}
		span := math.Min(math.Max(ageDays, 0), trendingWindow)
		for i := 1; i <= n; i++ {
			daysAgo := span * float64(i) / float64(n+1)
			events = append(events, model.ScoreEvent{
				Type:      model.EventRenewal,
				Timestamp: now.Add(-time.Duration(daysAgo * 24 * float64(time.Hour))),
				Weight:    WeightRenewal,
				DaysAgo:   daysAgo,
			})
		}
	}

	// Downvotes collapse into one recent negative event.
	if pin.Downvotes > 0 {
		events = append(events, model.ScoreEvent{
			Type:      model.EventDownvote,
			Timestamp: now,
			Weight:    WeightDownvote,
			DaysAgo:   0,
		})
	}

	return events
}

// CalculatePinScore synthesizes the pin's proxy event list and scores it.
// The result never goes below zero.
func (s *ScoringService) CalculatePinScore(pin *model.Pin) model.ScoreBreakdown {
	now := s.now()
	events := s.synthesizeEvents(pin, now)
	current := ComputeScore(events, s.Config.DecayHalfLifeDays)
	if current < 0 {
		current = 0
	}
	return model.ScoreBreakdown{
		PinID:          pin.ID,
		CurrentScore:   current,
		PreviousScore:  pin.Score,
		Change:         current - pin.Score,
		Events:         events,
		LastCalculated: now,
	}
}

// UpdatePinScore returns a copy of the pin with refreshed score fields.
// It never mutates its argument, and with an unchanged "now" it is
// idempotent: applying it to its own output yields the same pin.
func (s *ScoringService) UpdatePinScore(pin *model.Pin) *model.Pin {
	breakdown := s.CalculatePinScore(pin)
	updated := *pin
	updated.Score = breakdown.CurrentScore
	if math.Abs(breakdown.CurrentScore-pin.Score) > 1e-9 {
		updated.ScoreChange = breakdown.Change
	}
	updated.ScoreEvents = breakdown.Events
	return &updated
}

// PopulationScores computes every pin's current score in one pass. Rankings
// over a whole collection reuse this instead of rescoring the population
// per pin.
func (s *ScoringService) PopulationScores(pins []*model.Pin) []float64 {
	scores := make([]float64, 0, len(pins))
	for _, p := range pins {
		scores = append(scores, s.CalculatePinScore(p).CurrentScore)
	}
	return scores
}

// percentileAgainst ranks a score against precomputed population scores:
// the share of the population scoring strictly higher, 0-100. The top score
// is at percentile 0; an empty population yields 100.
func percentileAgainst(score float64, scores []float64) float64 {
	if len(scores) == 0 {
		return 100
	}
	rank := 0
	for _, sc := range scores {
		if sc > score {
			rank++
		}
	}
	return float64(rank) / float64(len(scores)) * 100
}

// ScorePercentile ranks a pin's freshly computed score against the
// population.
func (s *ScoringService) ScorePercentile(pin *model.Pin, allPins []*model.Pin) float64 {
	return percentileAgainst(s.CalculatePinScore(pin).CurrentScore, s.PopulationScores(allPins))
}

// IsPinTrending reports whether the pin's score sits inside the configured
// top percentile of the population. Tier membership adds age and burst
// requirements on top of this.
func (s *ScoringService) IsPinTrending(pin *model.Pin, allPins []*model.Pin) bool {
	return s.ScorePercentile(pin, allPins) <= s.Config.TrendingPercentile
}

// PredictFutureScore forecasts the pin's score the given number of days
// from now by decaying the current score. Forecasting only; no state is
// touched.
func (s *ScoringService) PredictFutureScore(pin *model.Pin, days float64) float64 {
	current := s.CalculatePinScore(pin).CurrentScore
	return current * Decay(days, s.Config.DecayHalfLifeDays)
}

// ScoreRecommendations returns rule-based advisory strings for the pin's
// owner. Advisory only; nothing here affects classification.
func (s *ScoringService) ScoreRecommendations(pin *model.Pin) []string {
	now := s.now()
	recs := []string{}

	ageDays := pin.AgeDays(now)
	daysSinceEndorsed := ageDays
	if !pin.LastEndorsedAt.IsZero() {
		daysSinceEndorsed = now.Sub(pin.LastEndorsedAt).Hours() / 24
	}

	if daysSinceEndorsed > float64(s.Config.TrendingWindowDays) {
		recs = append(recs, "needs more recent endorsements to stay relevant")
	}
	if pin.RecentEndorsements > 0 && pin.RecentEndorsements < s.Config.TrendingMinBurst &&
		ageDays <= float64(s.Config.TrendingWindowDays) {
		recs = append(recs, fmt.Sprintf("within %d more endorsements of the trending burst threshold",
			s.Config.TrendingMinBurst-pin.RecentEndorsements))
	}
	if pin.TotalEndorsements > 0 && float64(pin.Downvotes)/float64(pin.TotalEndorsements) > 0.5 {
		recs = append(recs, "high downvote ratio is dragging the score down")
	}
	if pin.Downvotes > 0 && pin.Downvotes >= s.Config.DownvoteHideThreshold-2 &&
		pin.Downvotes < s.Config.DownvoteHideThreshold {
		recs = append(recs, "close to the downvote limit; further downvotes will hide this pin")
	}
	if ageDays >= float64(s.Config.ClassicsMinAgeDays) &&
		pin.TotalEndorsements < s.Config.ClassicsMinTotalEndorsement {
		recs = append(recs, fmt.Sprintf("%d more total endorsements would qualify this pin as a classic",
			s.Config.ClassicsMinTotalEndorsement-pin.TotalEndorsements))
	}
	if len(recs) == 0 {
		recs = append(recs, "pin is healthy; keep endorsements coming")
	}
	return recs
}
