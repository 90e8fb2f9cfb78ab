package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	sessionDatamodel "github.com/frahmantamala/appraisal-portal/internal/core/datamodel/session"
	"github.com/frahmantamala/appraisal-portal/internal/session"
)

// SessionStorage implements session.Storage on the session_entries table.
// It runs on postgres in production and on sqlite for single-node setups and tests.
type SessionStorage struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSessionStorage(db *gorm.DB) *SessionStorage {
	return &SessionStorage{db: db, now: time.Now}
}

func (r *SessionStorage) Load(ctx context.Context, scope string) (session.Entries, error) {
	var rows []sessionDatamodel.Entry
	if err := r.db.WithContext(ctx).Where("scope = ?", scope).Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make(session.Entries, len(rows))
	for _, row := range rows {
		entries[row.Key] = row.Value
	}
	return entries, nil
}

// Save upserts every entry in one transaction.
func (r *SessionStorage) Save(ctx context.Context, scope string, entries session.Entries) error {
	now := r.now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range entries {
			row := sessionDatamodel.Entry{Scope: scope, Key: key, Value: value, UpdatedAt: now}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "scope"}, {Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("upsert %s: %w", key, err)
			}
		}
		return nil
	})
}

func (r *SessionStorage) Delete(ctx context.Context, scope string) error {
	return r.db.WithContext(ctx).Where("scope = ?", scope).Delete(&sessionDatamodel.Entry{}).Error
}

// Touch bumps updated_at of every entry of scope.
func (r *SessionStorage) Touch(ctx context.Context, scope string) error {
	return r.db.WithContext(ctx).
		Model(&sessionDatamodel.Entry{}).
		Where("scope = ?", scope).
		Update("updated_at", r.now().UTC()).Error
}

// SweepIdle deletes scopes whose newest entry is older than before.
func (r *SessionStorage) SweepIdle(ctx context.Context, before time.Time) ([]string, error) {
	var scopes []string
	err := r.db.WithContext(ctx).
		Model(&sessionDatamodel.Entry{}).
		Group("scope").
		Having("MAX(updated_at) < ?", before.UTC()).
		Order("scope").
		Pluck("scope", &scopes).Error
	if err != nil {
		return nil, err
	}
	if len(scopes) == 0 {
		return nil, nil
	}

	if err := r.db.WithContext(ctx).Where("scope IN ?", scopes).Delete(&sessionDatamodel.Entry{}).Error; err != nil {
		return nil, err
	}
	return scopes, nil
}

// Ping checks the underlying connection for the health endpoint.
func (r *SessionStorage) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
