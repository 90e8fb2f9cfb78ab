package cmd

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/session"
	"github.com/frahmantamala/appraisal-portal/internal/session/file"
	sessionpg "github.com/frahmantamala/appraisal-portal/internal/session/postgres"
)

// sessionBackend is the storage chosen by session.driver plus what the
// server needs around it.
type sessionBackend struct {
	Storage session.Storage
	Sweeper session.Sweeper
	Pinger  interface{ Ping(ctx context.Context) error }
	Close   func() error
}

func openSessionBackend(cfg internal.SessionConfig) (*sessionBackend, error) {
	switch cfg.Driver {
	case internal.SessionDriverMemory:
		mem := session.NewMemoryStorage()
		return &sessionBackend{Storage: mem, Sweeper: mem, Close: func() error { return nil }}, nil

	case internal.SessionDriverFile:
		fs, err := file.NewStorage(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return &sessionBackend{Storage: fs, Sweeper: fs, Pinger: fs, Close: func() error { return nil }}, nil

	case internal.SessionDriverSQLite:
		db, err := gorm.Open(sqlite.Open(cfg.Source), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
		if err != nil {
			return nil, fmt.Errorf("open sqlite session store: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		store := sessionpg.NewSessionStorage(db)
		return &sessionBackend{Storage: store, Sweeper: store, Pinger: store, Close: sqlDB.Close}, nil

	case internal.SessionDriverPostgres:
		dbConn, err := initDB(cfg)
		if err != nil {
			return nil, err
		}
		db, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("open postgres session store: %w", err)
		}
		store := sessionpg.NewSessionStorage(db)
		return &sessionBackend{Storage: store, Sweeper: store, Pinger: store, Close: dbConn.Close}, nil
	}
	return nil, fmt.Errorf("unknown session driver %q", cfg.Driver)
}

// initDB initializes the postgres connection
func initDB(cfg internal.SessionConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbConn, nil
}
