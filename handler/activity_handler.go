package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"main/middleware"
	"main/usecase"
	"main/utils"
)

// ActivityHandler records one endorsement, renewal or downvote. The client
// platform is parsed from the User-Agent for the audit trail and metrics.
func ActivityHandler(action string) func(c *gin.Context, pinService *usecase.PinService) {
	return func(c *gin.Context, pinService *usecase.PinService) {
		platform := utils.ClientPlatform(c.Request.UserAgent())

		pin, err := pinService.RecordActivity(c.Request.Context(), c.Param("id"), action, platform)
		if err != nil {
			if errors.Is(err, usecase.ErrPinNotFound) {
				utils.NotFound(c, "Pin not found")
				return
			}
			middleware.TrackError("store")
			utils.InternalError(c, "Failed to record activity")
			return
		}

		middleware.TrackActivity(action, platform)
		utils.Success(c, gin.H{
			"message": "Activity recorded",
			"pin":     pin,
		})
	}
}
