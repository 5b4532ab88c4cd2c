package usecase

import (
	"strings"
	"time"

	"main/config"
	"main/model"
	"main/utils"
)

// categoryRule maps keywords to a category. The table is ordered and
// evaluated first match wins, so precedence is auditable.
type categoryRule struct {
	category string
	keywords []string
}

var categoryRules = []categoryRule{
	{"food", []string{"restaurant", "food", "dinner", "lunch", "pizza", "sushi", "taco"}},
	{"cafe", []string{"cafe", "coffee", "espresso", "bakery", "brunch"}},
	{"bar", []string{"bar", "pub", "brewery", "cocktail", "wine"}},
	{"outdoors", []string{"park", "trail", "hike", "beach", "lake", "mountain", "garden"}},
	{"culture", []string{"museum", "gallery", "theater", "theatre", "concert", "historic"}},
	{"shopping", []string{"shop", "store", "market", "mall", "boutique"}},
	{"lodging", []string{"hotel", "hostel", "inn", "resort", "camp"}},
	{"transit", []string{"station", "airport", "terminal", "ferry", "metro"}},
	{"viewpoint", []string{"view", "lookout", "overlook", "vista", "sunset"}},
}

// DefaultCategory is assigned when no inference rule matches.
const DefaultCategory = "general"

// MigrationService upgrades legacy pin records to the current schema.
// Migration is one-way and idempotent: an already-migrated pin passes
// through unchanged.
type MigrationService struct {
	Config config.Config
	Now    func() time.Time
}

func NewMigrationService(cfg config.Config) *MigrationService {
	return &MigrationService{Config: cfg, Now: time.Now}
}

func (m *MigrationService) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// MigratePin upgrades a legacy record. The returned bool reports whether a
// migration actually happened. Pins that already carry a placeId come back
// untouched.
func (m *MigrationService) MigratePin(pin *model.Pin) (*model.Pin, bool) {
	if pin.PlaceID != "" {
		return pin, false
	}

	migrated := *pin
	migrated.PlaceID = utils.DerivePlaceID(pin.ID)
	migrated.Category = m.inferCategory(pin)

	// Seed engagement state the legacy schema never tracked. Existing
	// endorsement counters, if any, are kept; downvotes predate nothing in
	// the legacy schema, so any stray value is dropped with the hidden flag.
	if migrated.TotalEndorsements == 0 {
		migrated.TotalEndorsements = 1
		if pin.AgeDays(m.now()) <= float64(m.Config.RecentWindowDays) {
			migrated.RecentEndorsements = 1
		} else {
			migrated.RecentEndorsements = 0
		}
	}
	if migrated.Score == 0 {
		migrated.Score = 1.0
	}
	migrated.Downvotes = 0
	migrated.IsHidden = false
	if migrated.LastEndorsedAt.IsZero() {
		migrated.LastEndorsedAt = migrated.Timestamp
	}
	return &migrated, true
}

// inferCategory resolves a category with fixed precedence: an explicit
// recognized category on the record, then a recognized keyword in its tags,
// then keyword search over title and description, then the default.
func (m *MigrationService) inferCategory(pin *model.Pin) string {
	if pin.Category != "" && KnownCategories[strings.ToLower(pin.Category)] {
		return strings.ToLower(pin.Category)
	}

	for _, tag := range pin.Tags {
		if c := matchCategory(tag); c != "" {
			return c
		}
	}

	if c := matchCategory(pin.Title + " " + pin.LocationName + " " + pin.Description); c != "" {
		return c
	}

	return DefaultCategory
}

// matchCategory runs the ordered rule table against a piece of text.
func matchCategory(text string) string {
	lowered := strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.category
			}
		}
	}
	return ""
}

// MigrateAll migrates every legacy record in the collection, returning the
// new collection and how many records changed.
func (m *MigrationService) MigrateAll(pins []*model.Pin) ([]*model.Pin, int) {
	out := make([]*model.Pin, 0, len(pins))
	count := 0
	for _, pin := range pins {
		migrated, changed := m.MigratePin(pin)
		if changed {
			count++
		}
		out = append(out, migrated)
	}
	return out, count
}
