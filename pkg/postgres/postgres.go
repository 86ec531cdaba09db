package postgres

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Config binds STATS_DATABASE_* variables.
type Config struct {
	URL             string `envconfig:"STATS_DATABASE_URL"`
	MaxOpenConns    int    `envconfig:"STATS_DATABASE_MAX_OPEN_CONNS" default:"5"`
	ConnMaxLifetime string `envconfig:"STATS_DATABASE_CONN_MAX_LIFETIME" default:"30m"`
}

// Enabled reports whether a database URL was provided.
func (c *Config) Enabled() bool {
	return c.URL != ""
}

// Open connects to Postgres through GORM.
func (c *Config) Open() (*gorm.DB, error) {
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(c.URL), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql.DB: %w", err)
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	if d, err := time.ParseDuration(c.ConnMaxLifetime); err == nil {
		sqlDB.SetConnMaxLifetime(d)
	}

	return db, nil
}
