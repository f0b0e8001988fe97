package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ethanbaker/recruiter/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	analysis_module "github.com/ethanbaker/recruiter/internal/api/modules/analysis"
	health_module "github.com/ethanbaker/recruiter/internal/api/modules/health"
)

// Start configures the gin engine, registers all modules, and serves until
// the process exits
func Start(cfg *utils.Config, analysisService *analysis_module.Service) {
	// Initialized configuration settings
	port := cfg.GetWithDefault("API_PORT", "8080")

	// Add app level settings/routes
	engine := gin.Default()
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:     []string{"OPTIONS", "GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	// Adding custom modules
	health_module.RegisterRoutes(baseGroup)

	analysis_module.Init(analysisService)
	analysis_module.RegisterRoutes(baseGroup, cfg)

	// Then after performing initial setup, start the server
	if err := engine.Run(":" + port); err != nil {
		log.Fatal("[API-MAIN]: Failed to start server: ", err)
	}
}
