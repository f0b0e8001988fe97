package sdk

import (
	"encoding/json"
	"time"

	"github.com/ethanbaker/recruiter/pkg/workflow"
)

// StatusType labels an API response envelope
type StatusType string

const (
	StatusSuccess StatusType = "success"
	StatusError   StatusType = "error"
)

// ApiResponse represents a standard API response structure
type ApiResponse[T any] struct {
	Status  StatusType `json:"status"`          // Status message
	Code    int        `json:"code"`            // Status code
	Message string     `json:"message"`         // Human-readable message
	Data    T          `json:"data,omitempty"`  // Optional data field for successful responses
	Error   any        `json:"error,omitempty"` // Optional errors field for error responses
}

// AsGinResponse converts the ApiResponse to a format suitable for Gin framework
func (r ApiResponse[T]) AsGinResponse() (int, any) {
	return r.Code, r
}

// AsJSON converts the ApiResponse to a format suitable for JSON responses
func (r ApiResponse[T]) AsJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func NewSuccessResponse[T any](code int, message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  StatusSuccess,
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(code int, message string, err any) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  StatusError,
		Code:    code,
		Message: message,
		Error:   err,
	}
}

/** Requests */

// SubmitAnalysisRequest represents the request body for submitting a new
// recruiting analysis
type SubmitAnalysisRequest struct {
	TaskDescription string `json:"task_description" binding:"required"`
	Limit           int    `json:"limit"`
}

/** Responses */

// SubmitAnalysisResponse is returned immediately on submission; processing
// continues asynchronously
type SubmitAnalysisResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// AnalysisStatusResponse reports a session's current stage and, once
// terminal, its aggregate result or structured error
type AnalysisStatusResponse struct {
	SessionID string                    `json:"session_id"`
	Stage     workflow.Stage            `json:"stage"`
	Done      bool                      `json:"done"`
	UpdatedAt time.Time                 `json:"updated_at"`
	Result    *workflow.AggregateResult `json:"result,omitempty"`
	Error     *workflow.StageError      `json:"error,omitempty"`
}
