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

// queryLogger routes GORM output through slog so SQL lines carry the same
// request_id and trace_id as the access log.
type queryLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

func newQueryLogger(log *slog.Logger, slow time.Duration) *queryLogger {
	return &queryLogger{log: log, level: logger.Warn, slow: slow}
}

func (l *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *queryLogger) Info(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Info, slog.LevelInfo, msg, args)
}

func (l *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Warn, slog.LevelWarn, msg, args)
}

func (l *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Error, slog.LevelError, msg, args)
}

func (l *queryLogger) printf(ctx context.Context, need logger.LogLevel, level slog.Level, msg string, args []any) {
	if l.level >= need {
		l.log.Log(ctx, level, fmt.Sprintf(msg, args...))
	}
}

// Trace logs failed queries, then slow ones, then everything at Info.
// Record-not-found is a normal lookup miss and never logged.
func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var (
		level slog.Level
		msg   string
	)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		level, msg = slog.LevelError, "query failed"
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		level, msg = slog.LevelWarn, "slow query"
	case l.level >= logger.Info:
		level, msg = slog.LevelInfo, "query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if level == slog.LevelError {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.log.LogAttrs(ctx, level, msg, attrs...)
}
