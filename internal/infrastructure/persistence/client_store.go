// Package persistence keeps client-side state (tokens, cached resources) in SQLite.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/orderdesk/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// ClientRecord is one key/value entry of the client store
type ClientRecord struct {
	Key       string    `gorm:"primaryKey;size:191"`
	Value     []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ClientRecord) TableName() string {
	return "client_storage"
}

// OpenSQLite opens (or creates) the SQLite database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 logger.NewGormLogger(log, gormlogger.Warn, 200*time.Millisecond),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// ClientStore is a small key/value table standing in for browser storage
type ClientStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewClientStore migrates the client_storage table and returns a store on db
func NewClientStore(db *gorm.DB) (*ClientStore, error) {
	if err := db.AutoMigrate(&ClientRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate client storage: %w", err)
	}
	return &ClientStore{db: db, now: time.Now}, nil
}

// Get returns the value of key and when it was written.
// found is false when the key does not exist.
func (s *ClientStore) Get(ctx context.Context, key string) (value []byte, updatedAt time.Time, found bool, err error) {
	var rec ClientRecord
	err = s.db.WithContext(ctx).Where("key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("client store get %s: %w", key, err)
	}
	return rec.Value, rec.UpdatedAt, true, nil
}

// Put writes value under key, replacing any previous value
func (s *ClientStore) Put(ctx context.Context, key string, value []byte) error {
	return s.PutAt(ctx, key, value, s.now())
}

// PutAt writes value with an explicit timestamp
func (s *ClientStore) PutAt(ctx context.Context, key string, value []byte, at time.Time) error {
	rec := ClientRecord{Key: key, Value: value, UpdatedAt: at}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("client store put %s: %w", key, err)
	}
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (s *ClientStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("key IN ?", keys).Delete(&ClientRecord{}).Error; err != nil {
		return fmt.Errorf("client store delete: %w", err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix
func (s *ClientStore) DeletePrefix(ctx context.Context, prefix string) error {
	if err := s.db.WithContext(ctx).Where("substr(key, 1, ?) = ?", len(prefix), prefix).Delete(&ClientRecord{}).Error; err != nil {
		return fmt.Errorf("client store delete prefix %s: %w", prefix, err)
	}
	return nil
}
