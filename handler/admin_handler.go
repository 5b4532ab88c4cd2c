package handler

import (
	"github.com/gin-gonic/gin"

	"main/middleware"
	"main/model"
	"main/usecase"
	"main/utils"
)

func IntegrityCheckHandler(c *gin.Context, pinService *usecase.PinService) {
	report, err := pinService.Integrity(c.Request.Context())
	if err != nil {
		// Unparseable blob: report the failure, leave state untouched.
		middleware.TrackError("store")
		utils.InternalError(c, "Integrity check failed: "+err.Error())
		return
	}
	middleware.TrackIntegrity(report.SeverityCounts)
	utils.Success(c, report)
}

func HealHandler(c *gin.Context, pinService *usecase.PinService) {
	result, err := pinService.Heal(c.Request.Context())
	if err != nil {
		middleware.TrackError("healing")
		utils.InternalError(c, "Healing failed: "+err.Error())
		return
	}
	middleware.TrackHealResult(result.Summary.Healed, result.Summary.Removed, result.Summary.Migrated)
	utils.Success(c, result)
}

func MigrateHandler(c *gin.Context, pinService *usecase.PinService) {
	count, err := pinService.MigrateAll(c.Request.Context())
	if err != nil {
		middleware.TrackError("store")
		utils.InternalError(c, "Migration failed: "+err.Error())
		return
	}
	middleware.PinsMigratedTotal.Add(float64(count))
	utils.Success(c, gin.H{
		"message":  "Migration complete",
		"migrated": count,
	})
}

// ValidateCollectionHandler validates a client-supplied batch without
// touching persisted state. Useful for dry-running imports.
func ValidateCollectionHandler(c *gin.Context, pinService *usecase.PinService) {
	var pins []*model.Pin
	if err := c.ShouldBindJSON(&pins); err != nil {
		utils.BadRequest(c, "Request body must be a JSON array of pins")
		return
	}

	rules := usecase.DefaultRules()
	if c.Query("strict") == "true" {
		rules = usecase.StrictRules()
	}

	result := pinService.Validation.ValidatePinCollection(pins, rules)
	consistency := pinService.Validation.ValidateDataConsistency(pins)
	utils.Success(c, gin.H{
		"validation":  result,
		"consistency": consistency,
	})
}
