package analysis

import (
	"net/http"

	"github.com/ethanbaker/recruiter/pkg/sdk"
	"github.com/ethanbaker/recruiter/pkg/utils"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the routes for the analysis module. When API_KEY
// is configured, requests must carry it in the X-API-KEY header.
func RegisterRoutes(g *gin.RouterGroup, cfg *utils.Config) {
	group := g.Group("/analysis")

	if apiKey := cfg.Get("API_KEY"); apiKey != "" {
		group.Use(apiKeyHandler(apiKey))
	}

	group.POST("", SubmitAnalysis)   // Submit a new recruiting analysis
	group.GET("/:uuid", GetAnalysis) // Get a session's status or result
}

// apiKeyHandler rejects requests without the configured API key
func apiKeyHandler(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-API-KEY") != apiKey {
			c.AbortWithStatusJSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Invalid API key", nil).AsGinResponse())
			return
		}
		c.Next()
	}
}
