package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/nozzip/seccional/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqliteScheme = "sqlite://"

// NewDatabase opens the store named by dsn. postgres:// URLs go through pgx and
// get their schema from the SQL migrations; sqlite://path opens a CGO-free
// SQLite file and lets GORM create the tables.
func NewDatabase(dsn string, autoMigrate bool) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	if IsSQLite(dsn) {
		path := strings.TrimPrefix(dsn, sqliteScheme)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		db, err := gorm.Open(sqlite.Open(path), gormCfg)
		if err != nil {
			return nil, err
		}
		if autoMigrate {
			if err := AutoMigrate(db); err != nil {
				return nil, fmt.Errorf("auto migrate: %w", err)
			}
		}
		return db, nil
	}

	if autoMigrate {
		if err := MigrateUp(dsn); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// IsSQLite reports whether dsn points at a local SQLite file.
func IsSQLite(dsn string) bool {
	return strings.HasPrefix(dsn, sqliteScheme)
}

// AutoMigrate creates the tables from the models. Only used for SQLite; the
// postgres schema is owned by the SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Transaction{},
		&model.InventoryItem{},
		&model.InventoryMovement{},
		&model.RosterEntry{},
		&model.LedgerRecord{},
		&model.ArchivedDay{},
	)
}
