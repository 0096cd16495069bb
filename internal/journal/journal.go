package journal

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/relistr/mediakit/pkg/config"
	pkgerrors "github.com/relistr/mediakit/pkg/errors"
	"github.com/relistr/mediakit/pkg/logger"
	"github.com/relistr/mediakit/pkg/scope"
)

// Entry is one journaled media operation. Entries are append-only; the
// journal is a local audit trail, not a source of truth.
type Entry struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ScopeKey   string    `gorm:"index;size:255;not null" json:"scopeKey"`
	EntityType string    `gorm:"size:64;not null" json:"entityType"`
	EntityID   int64     `gorm:"not null" json:"entityId"`
	Purpose    string    `gorm:"size:128;not null" json:"purpose"`
	Operation  string    `gorm:"size:32;not null" json:"operation"`
	Detail     string    `gorm:"size:512" json:"detail"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Entry) TableName() string {
	return "media_journal"
}

// Journal records media operations in a local SQLite file. A nil
// Journal is a no-op on every method, so callers can wire it
// unconditionally.
type Journal struct {
	conn *gorm.DB
	logg *logger.Logger
}

// Open creates or opens the journal database at cfg.Path and migrates
// the schema. Returns nil when the journal is not configured.
func Open(ctx context.Context, cfg config.JournalConfig, logg *logger.Logger) (*Journal, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "opening journal database")
	}
	if err := conn.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "migrating journal schema")
	}

	if logg != nil {
		logg.Info(ctx, "operation journal opened")
	}
	return &Journal{conn: conn, logg: logg}, nil
}

// Record appends one entry for the scope.
func (j *Journal) Record(ctx context.Context, sc scope.Scope, operation, detail string) error {
	if j == nil {
		return nil
	}

	entry := Entry{
		ScopeKey:   sc.Key(),
		EntityType: string(sc.EntityType),
		EntityID:   sc.EntityID,
		Purpose:    sc.Purpose,
		Operation:  operation,
		Detail:     detail,
	}
	if err := j.conn.WithContext(ctx).Create(&entry).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing journal entry")
	}
	return nil
}

// Recent returns the scope's newest entries, most recent first.
func (j *Journal) Recent(ctx context.Context, sc scope.Scope, limit int) ([]Entry, error) {
	if j == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var entries []Entry
	err := j.conn.WithContext(ctx).
		Where("scope_key = ?", sc.Key()).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading journal entries")
	}
	return entries, nil
}

// Close releases the underlying connection.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}

	var errs error
	sqlDB, err := j.conn.DB()
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("getting sql db handle: %w", err))
		return errs
	}
	if err := sqlDB.Close(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("closing journal database: %w", err))
	}
	return errs
}
