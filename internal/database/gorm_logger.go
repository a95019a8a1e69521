package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slogGormLogger routes GORM output through slog. SQL statements are logged
// at debug level and only formatted when debug is enabled.
type slogGormLogger struct {
	logger *slog.Logger
}

// NewDatabaseWithLogger creates a Database whose queries are logged to logger.
func NewDatabaseWithLogger(ctx context.Context, url string, logger *slog.Logger) (Database, error) {
	return NewDatabaseWithConfig(ctx, url, &gorm.Config{Logger: slogGormLogger{logger: logger}})
}

func (l slogGormLogger) slog() *slog.Logger {
	if l.logger == nil {
		return slog.Default()
	}
	return l.logger
}

// LogMode is a no-op; level filtering is handled by slog.
func (l slogGormLogger) LogMode(logger.LogLevel) logger.Interface { return l }

// Info logs informational messages from GORM.
func (l slogGormLogger) Info(ctx context.Context, msg string, args ...any) {
	l.slog().InfoContext(ctx, fmt.Sprintf(msg, args...))
}

// Warn logs warning messages from GORM.
func (l slogGormLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.slog().WarnContext(ctx, fmt.Sprintf(msg, args...))
}

// Error logs error messages from GORM.
func (l slogGormLogger) Error(ctx context.Context, msg string, args ...any) {
	l.slog().ErrorContext(ctx, fmt.Sprintf(msg, args...))
}

const maxSQLLength = 200

// truncateSQL keeps the head and tail of long statements.
func truncateSQL(sql string) string {
	if len(sql) <= maxSQLLength {
		return sql
	}
	half := (maxSQLLength - 3) / 2
	return sql[:half] + "..." + sql[len(sql)-half:]
}

// Trace is called by GORM after every SQL operation. ErrRecordNotFound is a
// normal empty result and is logged with successful queries.
func (l slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	log := l.slog()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sql, rows := fc()
		log.ErrorContext(ctx, "database query failed",
			slog.String("sql", truncateSQL(sql)),
			slog.Int64("rows", rows),
			slog.Duration("duration", elapsed),
			slog.Any("error", err),
		)
		return
	}

	if !log.Enabled(ctx, slog.LevelDebug) {
		return
	}

	sql, rows := fc()
	log.DebugContext(ctx, "database query",
		slog.String("sql", truncateSQL(sql)),
		slog.Int64("rows", rows),
		slog.Duration("duration", elapsed),
	)
}
