package handler

import (
	"log"

	"github.com/gin-gonic/gin"

	"main/middleware"
	"main/usecase"
	"main/utils"
)

type StatsHandler struct {
	pinService *usecase.PinService
}

func NewStatsHandler(pinService *usecase.PinService) *StatsHandler {
	return &StatsHandler{pinService: pinService}
}

// GetStats reports collection statistics alongside host resource usage.
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.pinService.Stats(c.Request.Context())
	if err != nil {
		log.Printf("Error computing collection stats: %v", err)
		middleware.TrackError("store")
		utils.InternalError(c, "Failed to compute stats")
		return
	}

	cpuUsage := utils.GetCPUUsage()
	memUsage := utils.GetMemoryUsage()
	middleware.SystemCPUUsage.Set(cpuUsage)
	middleware.SystemMemoryUsage.Set(memUsage)

	utils.Success(c, gin.H{
		"collection": stats,
		"system": gin.H{
			"cpuPercent":    cpuUsage,
			"memoryPercent": memUsage,
		},
	})
}
