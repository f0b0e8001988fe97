package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethanbaker/recruiter/pkg/workflow"
	"github.com/google/uuid"
)

// RecordModel is the database representation of one state record. The
// composite unique index on (session_id, sequence) is what turns a plain
// insert into a conditional append: a second writer targeting the same
// sequence hits a duplicate-key error.
type RecordModel struct {
	ID         uint      `gorm:"primaryKey"`
	SessionID  string    `gorm:"type:char(36);not null;uniqueIndex:idx_state_session_sequence"`
	Sequence   int64     `gorm:"not null;uniqueIndex:idx_state_session_sequence"`
	Stage      string    `gorm:"size:32;not null"`
	Payload    string    `gorm:"type:text"`
	WriteToken string    `gorm:"type:char(36);not null"`
	CreatedAt  time.Time
	ExpiresAt  time.Time `gorm:"index"`
}

// TableName overrides the default table name
func (RecordModel) TableName() string {
	return "state_records"
}

func toRecord(m *RecordModel) (*workflow.StateRecord, error) {
	sessionID, err := uuid.Parse(m.SessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", m.SessionID, err)
	}

	writeToken, err := uuid.Parse(m.WriteToken)
	if err != nil {
		return nil, fmt.Errorf("invalid write token %q: %w", m.WriteToken, err)
	}

	var payload workflow.Payload
	if err := json.Unmarshal([]byte(m.Payload), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload for session %s sequence %d: %w", m.SessionID, m.Sequence, err)
	}

	return &workflow.StateRecord{
		SessionID:  sessionID,
		Sequence:   m.Sequence,
		Stage:      workflow.Stage(m.Stage),
		Payload:    payload,
		WriteToken: writeToken,
		CreatedAt:  m.CreatedAt,
		ExpiresAt:  m.ExpiresAt,
	}, nil
}
