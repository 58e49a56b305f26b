package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	maxOpenConns    = 20
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
	slowQuery       = 200 * time.Millisecond
)

// Open connects to Postgres and sizes the shared connection pool.
func Open(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: NewLogger(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	return gdb, nil
}

// Ping is used by health endpoints.
func Ping(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Logger routes gorm's logging through zerolog.
type Logger struct {
	level logger.LogLevel
}

func NewLogger(level logger.LogLevel) *Logger {
	return &Logger{level: level}
}

func (l *Logger) LogMode(level logger.LogLevel) logger.Interface {
	return &Logger{level: level}
}

func (l *Logger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		log.Info().Msgf(msg, args...)
	}
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		log.Warn().Msgf(msg, args...)
	}
}

func (l *Logger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		log.Error().Msgf(msg, args...)
	}
}

func (l *Logger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	var ev *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		ev = log.Error().Err(err)
	case elapsed > slowQuery && l.level >= logger.Warn:
		ev = log.Warn().Str("kind", "slow_query")
	case l.level >= logger.Info:
		ev = log.Debug()
	default:
		return
	}
	sql, rows := fc()
	ev.Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("gorm")
}
