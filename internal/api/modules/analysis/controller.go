package analysis

import (
	"errors"
	"net/http"

	"github.com/ethanbaker/recruiter/pkg/sdk"
	"github.com/ethanbaker/recruiter/pkg/workflow"
	"github.com/gin-gonic/gin"
)

// SubmitAnalysis handles POST requests to start a new recruiting analysis
func SubmitAnalysis(c *gin.Context) {
	// Parse request body
	var req sdk.SubmitAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	rec, err := analysisService.Submit(c.Request.Context(), req)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Failed to submit analysis", err.Error()).AsGinResponse())
		return
	}

	resp := sdk.SubmitAnalysisResponse{
		SessionID: rec.SessionID.String(),
		Status:    "processing",
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusAccepted, "Request accepted for processing", resp).AsGinResponse())
}

// GetAnalysis handles GET requests to retrieve a session's status or result
func GetAnalysis(c *gin.Context) {
	id := c.Param("uuid")

	resp, err := analysisService.Status(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", err.Error()).AsGinResponse())
			return
		}
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Failed to retrieve session", err.Error()).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(http.StatusOK, "Session retrieved successfully", *resp).AsGinResponse())
}
