package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// queryLogger bridges GORM's logger.Interface onto slog. Queries surface at
// Debug, failures at Error. ErrRecordNotFound is the normal empty result of a
// FindOne and stays at Debug with successful queries.
type queryLogger struct {
	logger *slog.Logger
}

func newQueryLogger(logger *slog.Logger) queryLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return queryLogger{logger: logger}
}

// LogMode is a no-op; slog owns level filtering.
func (q queryLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return q }

func (q queryLogger) Info(ctx context.Context, msg string, args ...any) {
	q.logger.InfoContext(ctx, fmt.Sprintf(msg, args...))
}

func (q queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	q.logger.WarnContext(ctx, fmt.Sprintf(msg, args...))
}

func (q queryLogger) Error(ctx context.Context, msg string, args ...any) {
	q.logger.ErrorContext(ctx, fmt.Sprintf(msg, args...))
}

// sqlLogLimit caps how much SQL a single log line carries.
const sqlLogLimit = 200

func clipSQL(sql string) string {
	if len(sql) <= sqlLogLimit {
		return sql
	}
	return fmt.Sprintf("%s... (%d bytes)", sql[:sqlLogLimit], len(sql))
}

// Trace runs after every SQL operation. The SQL formatting callback is only
// invoked when the line will actually be emitted.
func (q queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sql, rows := fc()
		q.logger.ErrorContext(ctx, "query failed",
			slog.String("sql", clipSQL(sql)),
			slog.Int64("rows", rows),
			slog.Duration("duration", time.Since(begin)),
			slog.String("error", err.Error()),
		)
		return
	}

	if !q.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	sql, rows := fc()
	q.logger.DebugContext(ctx, "query",
		slog.String("sql", clipSQL(sql)),
		slog.Int64("rows", rows),
		slog.Duration("duration", time.Since(begin)),
	)
}
