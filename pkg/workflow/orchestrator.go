package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// RepositoryResolver extracts a repository identifier from a free-text
// recruiting request.
type RepositoryResolver interface {
	Resolve(ctx context.Context, task string) (string, error)
}

// ContributorSource collects contributor activity for a repository. Per-key
// fetch failures are recorded inside the returned records; only a failure of
// the whole collection returns an error.
type ContributorSource interface {
	Contributors(ctx context.Context, repository string, limit int) ([]ContributorRecord, error)
}

// ProfileMatcher resolves professional-network profiles for the hinted
// contributors. Per-contributor failures are recorded inside the returned
// profiles.
type ProfileMatcher interface {
	Match(ctx context.Context, contributors []ContributorRecord) ([]MatchedProfile, error)
}

// Orchestrator owns the session state machine. It drives each session from
// Initialized to Terminal, persisting a new state record after every
// externally visible change through the store's conditional append.
type Orchestrator struct {
	store    StateStore
	resolver RepositoryResolver
	github   ContributorSource
	linkedin ProfileMatcher
	timeout  time.Duration
}

// NewOrchestrator wires the orchestrator to its store and fetch agents.
// timeout bounds one session's total processing time.
func NewOrchestrator(store StateStore, resolver RepositoryResolver, github ContributorSource, linkedin ProfileMatcher, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Orchestrator{
		store:    store,
		resolver: resolver,
		github:   github,
		linkedin: linkedin,
		timeout:  timeout,
	}
}

// StartSession creates a new session with its initial state record and
// returns it. Processing is started separately via Run.
func (o *Orchestrator) StartSession(ctx context.Context, task string, limit int) (*StateRecord, error) {
	sessionID := uuid.New()

	rec, err := o.store.Append(ctx, sessionID, 0, StageInitialized, Payload{
		Task:  task,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return rec, nil
}

// Run drives the session until it reaches Terminal. Safe to call from
// multiple workers for the same session: racing transitions resolve through
// conditional appends, and a worker that loses a race adopts the winner's
// state instead of reapplying side effects. Every session reaches Terminal
// exactly once.
func (o *Orchestrator) Run(ctx context.Context, sessionID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	latest, err := o.store.Latest(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	for !latest.Stage.Terminal() {
		next, err := o.step(ctx, latest)
		if err != nil {
			if ctx.Err() != nil {
				return o.forceTerminal(sessionID, latest, &StageError{
					Stage:   latest.Stage,
					Message: fmt.Sprintf("stage deadline exceeded: %v", err),
					Timeout: true,
				})
			}

			// Stage-level failure: abort directly to terminal, keeping
			// whatever the payload accumulated so far
			log.Printf("[WORKFLOW]: Session %s failed in stage %s: %v", sessionID, latest.Stage, err)
			payload := latest.Payload
			payload.Error = &StageError{Stage: latest.Stage, Message: err.Error()}

			latest, err = o.advance(ctx, latest, StageTerminal, payload)
			if err != nil {
				return fmt.Errorf("failed to record terminal error for session %s: %w", sessionID, err)
			}
			continue
		}

		latest = next
	}

	return nil
}

// step performs the work of the session's current stage and commits the
// resulting transition. The returned record is the authoritative state
// afterwards, which may have been written by a racing worker.
func (o *Orchestrator) step(ctx context.Context, rec *StateRecord) (*StateRecord, error) {
	switch rec.Stage {
	case StageInitialized:
		repo, err := o.resolver.Resolve(ctx, rec.Payload.Task)
		if err != nil {
			return nil, fmt.Errorf("could not resolve repository: %w", err)
		}

		payload := rec.Payload
		payload.Repository = repo
		return o.advance(ctx, rec, StageGitHub, payload)

	case StageGitHub:
		contributors, err := o.github.Contributors(ctx, rec.Payload.Repository, rec.Payload.Limit)
		if err != nil {
			return nil, fmt.Errorf("contributor collection failed: %w", err)
		}

		payload := rec.Payload
		payload.Contributors = contributors

		// Shortcut to aggregation when nothing is worth matching
		next := StageCompleting
		for _, c := range contributors {
			if c.HasProfileHint() {
				next = StageLinkedIn
				break
			}
		}

		return o.advance(ctx, rec, next, payload)

	case StageLinkedIn:
		hinted := make([]ContributorRecord, 0, len(rec.Payload.Contributors))
		for _, c := range rec.Payload.Contributors {
			if c.HasProfileHint() {
				hinted = append(hinted, c)
			}
		}

		profiles, err := o.linkedin.Match(ctx, hinted)
		if err != nil {
			return nil, fmt.Errorf("profile matching failed: %w", err)
		}

		payload := rec.Payload
		payload.Profiles = profiles
		return o.advance(ctx, rec, StageCompleting, payload)

	case StageCompleting:
		payload := rec.Payload
		payload.Result = Aggregate(payload.Repository, payload.Contributors, payload.Profiles)
		return o.advance(ctx, rec, StageTerminal, payload)

	default:
		return nil, fmt.Errorf("no transition defined from stage %q", rec.Stage)
	}
}

// advance commits one logical transition through a conditional append. On
// conflict it re-reads the latest state: if another worker already applied
// this transition (or a later one) the fresh state is adopted as-is,
// otherwise the append is retried against the new sequence.
func (o *Orchestrator) advance(ctx context.Context, from *StateRecord, next Stage, payload Payload) (*StateRecord, error) {
	for {
		rec, err := o.store.Append(ctx, from.SessionID, from.Sequence, next, payload)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}

		latest, err := o.store.Latest(ctx, from.SessionID)
		if err != nil {
			return nil, err
		}
		if !latest.Stage.Before(next) {
			return latest, nil
		}
		from = latest
	}
}

// forceTerminal records a timeout outcome for the session, preserving the
// partial payload gathered before the deadline. Runs on a fresh context
// because the session context is already dead.
func (o *Orchestrator) forceTerminal(sessionID uuid.UUID, latest *StateRecord, stageErr *StageError) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Re-read in case another worker advanced the session meanwhile
	current, err := o.store.Latest(ctx, sessionID)
	if err != nil {
		current = latest
	}
	if current.Stage.Terminal() {
		return nil
	}

	payload := current.Payload
	payload.Error = stageErr

	_, err = o.advance(ctx, current, StageTerminal, payload)
	if err != nil {
		return fmt.Errorf("failed to force session %s terminal: %w", sessionID, err)
	}

	log.Printf("[WORKFLOW]: Session %s forced terminal after timeout in stage %s", sessionID, stageErr.Stage)
	return nil
}
