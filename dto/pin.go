package dto

import (
	"main/model"
)

// CreatePinRequest is what the client sends to save a new pin. Engagement
// counters and derived fields are never accepted from the wire.
type CreatePinRequest struct {
	Latitude     float64  `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude    float64  `json:"longitude" binding:"required,gte=-180,lte=180"`
	Title        string   `json:"title" binding:"required_without=LocationName,max=200"`
	LocationName string   `json:"locationName" binding:"max=200"`
	Description  string   `json:"description" binding:"max=2000"`
	Tags         []string `json:"tags" binding:"max=50,dive,max=60,pintag"`
	Category     string   `json:"category" binding:"max=60"`
	MediaURL     string   `json:"mediaUrl" binding:"omitempty,url"`
}

// ToPin builds the domain record; identity and engagement state are filled
// in by the service.
func (r *CreatePinRequest) ToPin() *model.Pin {
	return &model.Pin{
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Title:        r.Title,
		LocationName: r.LocationName,
		Description:  r.Description,
		Tags:         r.Tags,
		Category:     r.Category,
		MediaURL:     r.MediaURL,
	}
}

// ScoreResponse bundles a pin's score breakdown with its standing in the
// population.
type ScoreResponse struct {
	Breakdown  *model.ScoreBreakdown `json:"breakdown"`
	Percentile float64               `json:"percentile"`
	Trending   bool                  `json:"trending"`
}

// ForecastResponse is the projected score for a pin some days out.
type ForecastResponse struct {
	PinID          string  `json:"pinId"`
	Days           float64 `json:"days"`
	CurrentScore   float64 `json:"currentScore"`
	PredictedScore float64 `json:"predictedScore"`
}
