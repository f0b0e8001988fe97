package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethanbaker/recruiter/pkg/workflow"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

// Store is the MySQL-backed state store. All writes go through the
// conditional append; nothing is ever updated in place.
type Store struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewStore creates a new state store with GORM connection. sessionTTL is the
// absolute expiry applied to every record; expired sessions read as missing
// and are garbage-collected lazily by the janitor.
func NewStore(databaseURL string, sessionTTL time.Duration) (*Store, error) {
	db, err := gorm.Open(gormmysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, ttl: sessionTTL}

	// Auto-migrate tables
	if err := db.AutoMigrate(&RecordModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return store, nil
}

// NewStoreWithDB wraps an existing GORM connection, sharing it with other
// stores.
func NewStoreWithDB(db *gorm.DB, sessionTTL time.Duration) (*Store, error) {
	store := &Store{db: db, ttl: sessionTTL}

	if err := db.AutoMigrate(&RecordModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return store, nil
}

// Append writes a new record at expectedLastSequence+1, returning
// workflow.ErrConflict if another writer got there first.
func (s *Store) Append(ctx context.Context, sessionID uuid.UUID, expectedLastSequence int64, stage workflow.Stage, payload workflow.Payload) (*workflow.StateRecord, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	now := time.Now().UTC()
	model := &RecordModel{
		SessionID:  sessionID.String(),
		Sequence:   expectedLastSequence + 1,
		Stage:      string(stage),
		Payload:    string(data),
		WriteToken: uuid.NewString(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, workflow.ErrConflict
		}
		return nil, fmt.Errorf("failed to append state record: %w", err)
	}

	return toRecord(model)
}

// Latest retrieves the highest-sequence record for a session. Expired
// sessions read as workflow.ErrNotFound, same as sessions that never existed.
func (s *Store) Latest(ctx context.Context, sessionID uuid.UUID) (*workflow.StateRecord, error) {
	var model RecordModel
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND expires_at > ?", sessionID.String(), time.Now().UTC()).
		Order("sequence DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query latest state: %w", err)
	}

	return toRecord(&model)
}

// History retrieves all records for a session in ascending sequence order.
func (s *Store) History(ctx context.Context, sessionID uuid.UUID) ([]*workflow.StateRecord, error) {
	var models []RecordModel
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND expires_at > ?", sessionID.String(), time.Now().UTC()).
		Order("sequence ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query state history: %w", err)
	}

	if len(models) == 0 {
		return nil, workflow.ErrNotFound
	}

	records := make([]*workflow.StateRecord, 0, len(models))
	for i := range models {
		rec, err := toRecord(&models[i])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// PurgeExpired deletes records whose expiry has passed. Called periodically
// by the janitor; correctness does not depend on it running.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now().UTC()).
		Delete(&RecordModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge expired state records: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
