package analysis

import (
	"context"
	"fmt"
	"log"

	"github.com/ethanbaker/recruiter/pkg/sdk"
	"github.com/ethanbaker/recruiter/pkg/workflow"
	"github.com/google/uuid"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// Package-level service instance used by the controllers
var analysisService *Service

// Init wires the module's service instance. Must be called before the
// routes serve traffic.
func Init(svc *Service) {
	analysisService = svc
}

// Service owns analysis submission and status retrieval. Submissions return
// immediately; the orchestrator drives the session in the background.
type Service struct {
	orchestrator *workflow.Orchestrator
	store        workflow.StateStore
}

// NewService creates an analysis service
func NewService(orchestrator *workflow.Orchestrator, store workflow.StateStore) *Service {
	return &Service{
		orchestrator: orchestrator,
		store:        store,
	}
}

// Submit creates a new session for the recruiting request and starts
// processing it asynchronously
func (s *Service) Submit(ctx context.Context, req sdk.SubmitAnalysisRequest) (*workflow.StateRecord, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	if limit < 1 || limit > maxLimit {
		return nil, fmt.Errorf("limit must be between 1 and %d", maxLimit)
	}

	rec, err := s.orchestrator.StartSession(ctx, req.TaskDescription, limit)
	if err != nil {
		return nil, err
	}

	// Processing continues past the request lifetime, so it gets its own
	// context; the orchestrator applies the session deadline itself
	go func() {
		if err := s.orchestrator.Run(context.Background(), rec.SessionID); err != nil {
			log.Printf("[ANALYSIS]: Session %s run failed: %v", rec.SessionID, err)
		}
	}()

	return rec, nil
}

// Status reports the session's current stage and, once terminal, its result
// or structured error
func (s *Service) Status(ctx context.Context, id string) (*sdk.AnalysisStatusResponse, error) {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", id, err)
	}

	latest, err := s.store.Latest(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	resp := &sdk.AnalysisStatusResponse{
		SessionID: latest.SessionID.String(),
		Stage:     latest.Stage,
		Done:      latest.Stage.Terminal(),
		UpdatedAt: latest.CreatedAt,
	}

	if latest.Stage.Terminal() {
		// Partial results are returned even when a stage failed
		resp.Result = latest.Payload.Result
		resp.Error = latest.Payload.Error
	}

	return resp, nil
}
