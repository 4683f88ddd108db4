package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/studyhall-app/studyhall/internal/infrastructure/config"
)

// Open connects to the configured database and returns a gorm handle plus a
// cleanup closing the underlying pool.
func Open(cfg *config.Config, logger *logrus.Logger) (*gorm.DB, func(), error) {
	driver, err := cfg.DatabaseDriver()
	if err != nil {
		return nil, nil, fmt.Errorf("determine database driver: %w", err)
	}

	dsn, err := cfg.DatabaseURL()
	if err != nil {
		return nil, nil, fmt.Errorf("determine database dsn: %w", err)
	}

	rawDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sql db: %w", err)
	}
	cleanup := func() { _ = rawDB.Close() }

	rawDB.SetMaxIdleConns(5)
	rawDB.SetConnMaxLifetime(time.Hour)
	if driver == "sqlite3" {
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY.
		rawDB.SetMaxOpenConns(1)
	} else {
		rawDB.SetMaxOpenConns(10)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rawDB.PingContext(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.New(postgres.Config{Conn: rawDB})
	default:
		dialector = &sqlite.Dialector{DriverName: driver, Conn: rawDB}
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(cfg, logger)})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("open gorm: %w", err)
	}
	return db, cleanup, nil
}

func newGormLogger(cfg *config.Config, logger *logrus.Logger) gormlogger.Interface {
	level := gormlogger.Warn
	if cfg.Database.LogSQL {
		level = gormlogger.Info
	}
	return gormlogger.New(logger, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}
