package model

import (
	"time"
)

// Pin is a user-saved location record. The JSON tags are the persisted
// schema: the collection is stored as an ordered JSON array of these.
type Pin struct {
	ID                 string    `bson:"_id,omitempty" json:"id"`
	PlaceID            string    `bson:"place_id,omitempty" json:"placeId,omitempty"`
	Latitude           float64   `bson:"latitude" json:"latitude"`
	Longitude          float64   `bson:"longitude" json:"longitude"`
	Title              string    `bson:"title,omitempty" json:"title,omitempty"`
	LocationName       string    `bson:"location_name,omitempty" json:"locationName,omitempty"`
	Description        string    `bson:"description,omitempty" json:"description,omitempty"`
	Tags               []string  `bson:"tags,omitempty" json:"tags,omitempty"`
	Category           string    `bson:"category,omitempty" json:"category,omitempty"`
	MediaURL           string    `bson:"media_url,omitempty" json:"mediaUrl,omitempty"`
	Timestamp          time.Time `bson:"timestamp" json:"timestamp"`
	LastEndorsedAt     time.Time `bson:"last_endorsed_at" json:"lastEndorsedAt"`
	TotalEndorsements  int       `bson:"total_endorsements" json:"totalEndorsements"`
	RecentEndorsements int       `bson:"recent_endorsements" json:"recentEndorsements"`
	Downvotes          int       `bson:"downvotes" json:"downvotes"`

	// Derived fields, recomputed by the scoring engine, never hand-edited.
	Score       float64      `bson:"score" json:"score"`
	ScoreChange float64      `bson:"score_change" json:"scoreChange"`
	ScoreEvents []ScoreEvent `bson:"score_events,omitempty" json:"scoreEvents,omitempty"`
	IsHidden    bool         `bson:"is_hidden" json:"isHidden"`
}

// DisplayName returns the pin's title, falling back to its location name.
func (p *Pin) DisplayName() string {
	if p.Title != "" {
		return p.Title
	}
	return p.LocationName
}

// AgeDays is the number of days since the pin was created, as of now.
func (p *Pin) AgeDays(now time.Time) float64 {
	return now.Sub(p.Timestamp).Hours() / 24
}

// NewPin creates a freshly saved pin with the initial engagement state:
// one endorsement by its creator and a score of 1.0.
func NewPin(id string, lat, lng float64, title string, now time.Time) *Pin {
	return &Pin{
		ID:                 id,
		Latitude:           lat,
		Longitude:          lng,
		Title:              title,
		Timestamp:          now,
		LastEndorsedAt:     now,
		TotalEndorsements:  1,
		RecentEndorsements: 1,
		Score:              1.0,
	}
}
