package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrConflict is returned by Append when another writer already occupied the
// target sequence number. The caller must re-read the latest state and retry
// its transition against it.
var ErrConflict = errors.New("state sequence already written")

// ErrNotFound is returned when a session has no state records, whether it
// never existed or its records have expired.
var ErrNotFound = errors.New("session not found")

// StateStore is the durable, append-only session state store. Conditional
// append is the system's sole concurrency-control primitive: no record is
// ever updated in place.
type StateStore interface {
	// Append writes a new record at expectedLastSequence+1 for the session,
	// failing with ErrConflict if that sequence is already occupied. The
	// store assigns the sequence, write token, timestamps, and expiry.
	Append(ctx context.Context, sessionID uuid.UUID, expectedLastSequence int64, stage Stage, payload Payload) (*StateRecord, error)

	// Latest returns the record with the highest sequence for the session,
	// or ErrNotFound.
	Latest(ctx context.Context, sessionID uuid.UUID) (*StateRecord, error)

	// History returns all records for the session in ascending sequence
	// order. Diagnostics and recovery only, not the hot path.
	History(ctx context.Context, sessionID uuid.UUID) ([]*StateRecord, error)
}
