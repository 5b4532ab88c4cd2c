package usecase

import (
	"time"

	"main/config"
	"main/model"
)

// Tier names used for listings and cache keys.
const (
	TierRecent   = "recent"
	TierTrending = "trending"
	TierClassics = "classics"
)

// TierService classifies scored pins into Recent / Trending / Classics
// membership. Tiers are non-exclusive; Hidden overrides all of them.
type TierService struct {
	Config  config.Config
	Scoring *ScoringService
	Now     func() time.Time
}

func NewTierService(cfg config.Config, scoring *ScoringService) *TierService {
	return &TierService{Config: cfg, Scoring: scoring, Now: time.Now}
}

func (t *TierService) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// IsHidden reports whether the pin is excluded from every listing. The
// stored flag and the live downvote count both count, so a pin crossing
// the threshold disappears even before its flag is committed.
func (t *TierService) IsHidden(pin *model.Pin) bool {
	return pin.IsHidden || pin.Downvotes >= t.Config.DownvoteHideThreshold
}

// Classify returns the pin's full tier membership against the population.
func (t *TierService) Classify(pin *model.Pin, allPins []*model.Pin) model.TierSet {
	return t.classify(pin, t.Scoring.PopulationScores(allPins))
}

// classify is Classify against precomputed population scores, so callers
// ranking a whole collection score it once instead of once per pin.
func (t *TierService) classify(pin *model.Pin, scores []float64) model.TierSet {
	now := t.now()
	ageDays := pin.AgeDays(now)

	set := model.TierSet{
		Hidden: t.IsHidden(pin),
	}
	set.Recent = ageDays <= float64(t.Config.RecentWindowDays)
	set.Trending = ageDays <= float64(t.Config.TrendingWindowDays) &&
		pin.RecentEndorsements >= t.Config.TrendingMinBurst &&
		percentileAgainst(t.Scoring.CalculatePinScore(pin).CurrentScore, scores) <= t.Config.TrendingPercentile
	set.Classics = ageDays >= float64(t.Config.ClassicsMinAgeDays) &&
		pin.TotalEndorsements >= t.Config.ClassicsMinTotalEndorsement
	return set
}

// Visible filters out hidden pins.
func (t *TierService) Visible(pins []*model.Pin) []*model.Pin {
	out := make([]*model.Pin, 0, len(pins))
	for _, p := range pins {
		if !t.IsHidden(p) {
			out = append(out, p)
		}
	}
	return out
}

// ListTier returns the visible pins belonging to the named tier. The
// population is scored once for the whole listing.
func (t *TierService) ListTier(tier string, pins []*model.Pin) []*model.Pin {
	scores := t.Scoring.PopulationScores(pins)
	out := []*model.Pin{}
	for _, p := range pins {
		if t.IsHidden(p) {
			continue
		}
		set := t.classify(p, scores)
		switch tier {
		case TierRecent:
			if set.Recent {
				out = append(out, p)
			}
		case TierTrending:
			if set.Trending {
				out = append(out, p)
			}
		case TierClassics:
			if set.Classics {
				out = append(out, p)
			}
		}
	}
	return out
}
