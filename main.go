package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"main/config"
	"main/handler"
	"main/middleware"
	"main/repository"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Printf("No .env file loaded: %v", err)
	}

	requiredEnvVars := []string{
		"JWT_SECRET_KEY",
	}
	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" && os.Getenv("GO_ENV") != "test" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}
	utils.InitValidator()
}

func setupRouter(pinService *usecase.PinService) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.RequestSizeLimiter(1 << 20))

	statsHandler := handler.NewStatsHandler(pinService)

	// Public endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected routes (externally issued token required)
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	{
		pins := protected.Group("/pins")
		{
			pins.GET("/", func(c *gin.Context) {
				handler.ListPinsHandler(c, pinService)
			})
			pins.POST("/", func(c *gin.Context) {
				handler.CreatePinHandler(c, pinService)
			})

			// Tier listings
			listings := pins.Group("")
			listings.Use(middleware.CacheControlMiddleware("30"))
			{
				listings.GET("/recent", func(c *gin.Context) {
					handler.ListTierHandler(usecase.TierRecent)(c, pinService)
				})
				listings.GET("/trending", func(c *gin.Context) {
					handler.ListTierHandler(usecase.TierTrending)(c, pinService)
				})
				listings.GET("/classics", func(c *gin.Context) {
					handler.ListTierHandler(usecase.TierClassics)(c, pinService)
				})
			}

			// Per-pin reads
			pins.GET("/:id", func(c *gin.Context) {
				handler.GetPinHandler(c, pinService)
			})
			pins.GET("/:id/score", func(c *gin.Context) {
				handler.GetPinScoreHandler(c, pinService)
			})
			pins.GET("/:id/forecast", func(c *gin.Context) {
				handler.ForecastPinHandler(c, pinService)
			})
			pins.GET("/:id/recommendations", func(c *gin.Context) {
				handler.PinRecommendationsHandler(c, pinService)
			})

			// Activity recording
			pins.POST("/:id/endorse", func(c *gin.Context) {
				handler.ActivityHandler(usecase.ActionEndorse)(c, pinService)
			})
			pins.POST("/:id/renew", func(c *gin.Context) {
				handler.ActivityHandler(usecase.ActionRenew)(c, pinService)
			})
			pins.POST("/:id/downvote", func(c *gin.Context) {
				handler.ActivityHandler(usecase.ActionDownvote)(c, pinService)
			})

			// Explicit score commit
			pins.POST("/scores/refresh", func(c *gin.Context) {
				handler.RefreshScoresHandler(c, pinService)
			})
		}

		admin := protected.Group("/admin")
		{
			admin.GET("/integrity", func(c *gin.Context) {
				handler.IntegrityCheckHandler(c, pinService)
			})
			admin.POST("/heal", func(c *gin.Context) {
				handler.HealHandler(c, pinService)
			})
			admin.POST("/migrate", func(c *gin.Context) {
				handler.MigrateHandler(c, pinService)
			})
			admin.POST("/validate", func(c *gin.Context) {
				handler.ValidateCollectionHandler(c, pinService)
			})
			admin.GET("/stats", statsHandler.GetStats)
		}
	}

	return router
}

func main() {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	storeCfg := config.LoadStoreConfig()

	ctx := context.Background()
	store, err := repository.NewPinStore(ctx, storeCfg)
	if err != nil {
		log.Fatalf("Failed to initialize pin store: %v", err)
	}

	pinService := usecase.NewPinService(store, cfg)

	// The ranking cache is optional; the service degrades to uncached
	// listings if redis is unavailable.
	if cache, err := services.NewRankingCache(storeCfg.RedisURL, storeCfg.ListingCacheTTL); err != nil {
		log.Printf("Ranking cache disabled: %v", err)
	} else {
		pinService.Cache = cache
		defer cache.Close()
	}

	// Startup integrity pass: heal only when the damage warrants it, and
	// never overwrite state that could not be read.
	report, healResult, err := pinService.AutoHealOnStartup(ctx)
	if err != nil {
		log.Printf("Startup healing skipped, keeping last known good state: %v", err)
	} else {
		middleware.TrackIntegrity(report.SeverityCounts)
		if healResult != nil {
			middleware.TrackHealResult(healResult.Summary.Healed,
				healResult.Summary.Removed, healResult.Summary.Migrated)
			log.Printf("Startup healing: %d healed, %d removed, %d migrated",
				healResult.Summary.Healed, healResult.Summary.Removed, healResult.Summary.Migrated)
		}
	}

	router := setupRouter(pinService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	serverAddr := fmt.Sprintf(":%s", port)
	log.Printf("Server starting on %s", serverAddr)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
