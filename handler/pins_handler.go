package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"main/dto"
	"main/middleware"
	"main/usecase"
	"main/utils"
)

func ListPinsHandler(c *gin.Context, pinService *usecase.PinService) {
	pins, err := pinService.ListVisible(c.Request.Context())
	if err != nil {
		middleware.TrackError("store")
		utils.InternalError(c, "Failed to load pins")
		return
	}
	utils.Success(c, pins)
}

func ListTierHandler(tier string) func(c *gin.Context, pinService *usecase.PinService) {
	return func(c *gin.Context, pinService *usecase.PinService) {
		pins, err := pinService.ListTier(c.Request.Context(), tier)
		if err != nil {
			middleware.TrackError("store")
			utils.InternalError(c, "Failed to load "+tier+" pins")
			return
		}
		utils.Success(c, gin.H{
			"tier": tier,
			"pins": pins,
		})
	}
}

func CreatePinHandler(c *gin.Context, pinService *usecase.PinService) {
	var req dto.CreatePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	pin := req.ToPin()
	if err := pinService.CreatePin(c.Request.Context(), pin); err != nil {
		var verr *usecase.ValidationError
		if errors.As(err, &verr) {
			middleware.TrackError("validation")
			utils.UnprocessableEntity(c, "Pin failed validation", verr.Result)
			return
		}
		middleware.TrackError("store")
		utils.InternalError(c, "Failed to save pin")
		return
	}

	utils.Created(c, gin.H{
		"message": "Pin created successfully",
		"pinID":   pin.ID,
		"placeID": pin.PlaceID,
	})
}

func GetPinHandler(c *gin.Context, pinService *usecase.PinService) {
	pin, err := pinService.GetPin(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrPinNotFound) {
			utils.NotFound(c, "Pin not found")
			return
		}
		middleware.TrackError("store")
		utils.InternalError(c, "Failed to load pin")
		return
	}
	utils.Success(c, pin)
}

func GetPinScoreHandler(c *gin.Context, pinService *usecase.PinService) {
	breakdown, percentile, trending, err := pinService.ScoreBreakdown(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrPinNotFound) {
			utils.NotFound(c, "Pin not found")
			return
		}
		middleware.TrackError("store")
		utils.InternalError(c, "Failed to score pin")
		return
	}
	utils.Success(c, dto.ScoreResponse{
		Breakdown:  breakdown,
		Percentile: percentile,
		Trending:   trending,
	})
}

func ForecastPinHandler(c *gin.Context, pinService *usecase.PinService) {
	days, err := strconv.ParseFloat(c.DefaultQuery("days", "7"), 64)
	if err != nil || days < 0 {
		utils.BadRequest(c, "days must be a non-negative number")
		return
	}

	pinID := c.Param("id")
	predicted, err := pinService.Forecast(c.Request.Context(), pinID, days)
	if err != nil {
		if errors.Is(err, usecase.ErrPinNotFound) {
			utils.NotFound(c, "Pin not found")
			return
		}
		middleware.TrackError("store")
		utils.InternalError(c, "Failed to forecast score")
		return
	}

	current, err := pinService.Forecast(c.Request.Context(), pinID, 0)
	if err != nil {
		middleware.TrackError("store")
		utils.InternalError(c, "Failed to forecast score")
		return
	}

	utils.Success(c, dto.ForecastResponse{
		PinID:          pinID,
		Days:           days,
		CurrentScore:   current,
		PredictedScore: predicted,
	})
}

func PinRecommendationsHandler(c *gin.Context, pinService *usecase.PinService) {
	recs, err := pinService.Recommendations(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrPinNotFound) {
			utils.NotFound(c, "Pin not found")
			return
		}
		middleware.TrackError("store")
		utils.InternalError(c, "Failed to build recommendations")
		return
	}
	utils.Success(c, gin.H{"recommendations": recs})
}

func RefreshScoresHandler(c *gin.Context, pinService *usecase.PinService) {
	count, err := pinService.RefreshScores(c.Request.Context())
	if err != nil {
		middleware.TrackError("store")
		utils.InternalError(c, "Failed to refresh scores")
		return
	}
	middleware.ScoreComputationsTotal.Add(float64(count))
	utils.Success(c, gin.H{
		"message": "Scores refreshed",
		"updated": count,
	})
}
