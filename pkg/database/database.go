package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cafe-stock/internal/config"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Driver picks the store: DB_DRIVER wins, otherwise a DATABASE_URL or
// DB_PASSWORD means PostgreSQL and anything else falls back to a local
// SQLite file.
func Driver(cfg config.DatabaseConfig) string {
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres, "postgresql", "pg":
		return DriverPostgres
	case DriverSQLite, "sqlite3":
		return DriverSQLite
	}
	if cfg.URL != "" || cfg.Password != "" {
		return DriverPostgres
	}
	return DriverSQLite
}

func ConnectDB(cfg config.DatabaseConfig, log *zap.Logger, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gormConfig := &gorm.Config{
		Logger:         gormLogger,
		PrepareStmt:    false,
		TranslateError: true,
	}

	switch Driver(cfg) {
	case DriverPostgres:
		return openPostgres(cfg, gormConfig, log)
	default:
		return openSQLite(cfg, gormConfig, log)
	}
}

func openPostgres(cfg config.DatabaseConfig, gormConfig *gorm.Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.URL
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.TimeZone,
		)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: dsn,
		// Transaction-mode poolers reject implicit prepared statements.
		PreferSimpleProtocol: true,
	}), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("Database connection established", zap.String("driver", DriverPostgres), zap.String("db_name", cfg.Name))
	return db, nil
}

func openSQLite(cfg config.DatabaseConfig, gormConfig *gorm.Config, log *zap.Logger) (*gorm.DB, error) {
	path := cfg.SQLitePath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := OpenSQLite(path+"?_foreign_keys=on&_busy_timeout=5000", gormConfig)
	if err != nil {
		return nil, err
	}

	log.Info("Database connection established", zap.String("driver", DriverSQLite), zap.String("path", path))
	return db, nil
}

// OpenSQLite opens dsn with a single connection. SQLite has one writer, so
// transactions that read stock and then insert run one at a time.
func OpenSQLite(dsn string, gormConfig *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
