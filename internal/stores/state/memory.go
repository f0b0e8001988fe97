package state

import (
	"context"
	"sync"
	"time"

	"github.com/ethanbaker/recruiter/pkg/workflow"
	"github.com/google/uuid"
)

// InMemoryStore provides an in-memory implementation of workflow.StateStore
// with the same conditional-append semantics as the MySQL store. Used for
// tests and local runs. Expiry is enforced lazily on read.
type InMemoryStore struct {
	sessions map[uuid.UUID]map[int64]*workflow.StateRecord
	ttl      time.Duration
	mutex    sync.RWMutex
}

// NewInMemoryStore creates a new in-memory state store
func NewInMemoryStore(sessionTTL time.Duration) *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[uuid.UUID]map[int64]*workflow.StateRecord),
		ttl:      sessionTTL,
	}
}

// Append writes a new record at expectedLastSequence+1, returning
// workflow.ErrConflict if that sequence is already occupied.
func (s *InMemoryStore) Append(ctx context.Context, sessionID uuid.UUID, expectedLastSequence int64, stage workflow.Stage, payload workflow.Payload) (*workflow.StateRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	records := s.sessions[sessionID]
	if records == nil {
		records = make(map[int64]*workflow.StateRecord)
		s.sessions[sessionID] = records
	}

	sequence := expectedLastSequence + 1
	if _, exists := records[sequence]; exists {
		return nil, workflow.ErrConflict
	}

	now := time.Now().UTC()
	rec := &workflow.StateRecord{
		SessionID:  sessionID,
		Sequence:   sequence,
		Stage:      stage,
		Payload:    payload,
		WriteToken: uuid.New(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	records[sequence] = rec

	// Return a copy to avoid external mutations
	out := *rec
	return &out, nil
}

// Latest retrieves the highest-sequence unexpired record for a session.
func (s *InMemoryStore) Latest(ctx context.Context, sessionID uuid.UUID) (*workflow.StateRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var latest *workflow.StateRecord
	now := time.Now().UTC()

	for _, rec := range s.sessions[sessionID] {
		if rec.ExpiresAt.Before(now) {
			continue
		}
		if latest == nil || rec.Sequence > latest.Sequence {
			latest = rec
		}
	}

	if latest == nil {
		return nil, workflow.ErrNotFound
	}

	out := *latest
	return &out, nil
}

// History retrieves all unexpired records for a session in ascending
// sequence order.
func (s *InMemoryStore) History(ctx context.Context, sessionID uuid.UUID) ([]*workflow.StateRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	records := s.sessions[sessionID]
	now := time.Now().UTC()

	var out []*workflow.StateRecord
	for seq := int64(1); ; seq++ {
		rec, exists := records[seq]
		if !exists {
			break
		}
		if rec.ExpiresAt.Before(now) {
			continue
		}
		copied := *rec
		out = append(out, &copied)
	}

	if len(out) == 0 {
		return nil, workflow.ErrNotFound
	}

	return out, nil
}

// PurgeExpired removes expired sessions eagerly. Matches the MySQL store's
// janitor hook.
func (s *InMemoryStore) PurgeExpired(ctx context.Context) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now().UTC()
	var purged int64

	for sessionID, records := range s.sessions {
		for seq, rec := range records {
			if rec.ExpiresAt.Before(now) {
				delete(records, seq)
				purged++
			}
		}
		if len(records) == 0 {
			delete(s.sessions, sessionID)
		}
	}

	return purged, nil
}
