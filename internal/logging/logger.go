package logging

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/bench-arena/bench-arena/internal/executioncontext"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// ShutdownFunc flushes buffered log entries. Call it on service exit.
type ShutdownFunc func() error

// NewLogger builds the service logger: a production zap core with ISO8601
// timestamps, exposed through the slog interface so the rest of the code
// only depends on *slog.Logger.
func NewLogger() (*slog.Logger, ShutdownFunc, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapLog, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	core := zapLog.Core()
	shutdown := func() error { return core.Sync() }
	// caller attribution is useful when reading tournament tick logs
	return slog.New(zapslog.NewHandler(core, zapslog.WithCaller(true))), shutdown, nil
}

// FallbackLogger is for startup paths that run before NewLogger succeeds,
// and for tests.
func FallbackLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// SkipCallersForInfo emits a record whose source location skips the given
// number of frames, so the request helpers below report the handler as the
// caller rather than this package.
func SkipCallersForInfo(ctx context.Context, logger *slog.Logger, level slog.Level, skip int, msg string, args ...any) {
	if !logger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(skip, pcs[:])
	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(args...)
	_ = logger.Handler().Handle(ctx, record)
}

// The request helpers assume ctx.Logger already carries the request id and
// route fields, so they only add the outcome.

func LogRequestStarted(ctx *executioncontext.ExecutionContext) {
	SkipCallersForInfo(ctx.Ctx, ctx.Logger, slog.LevelInfo, 3, "Request started")
}

func LogRequestFailed(ctx *executioncontext.ExecutionContext, code int, errorMessage string) {
	SkipCallersForInfo(ctx.Ctx, ctx.Logger, slog.LevelInfo, 3, "Request failed", "error", errorMessage, "code", code)
}

func LogRequestSuccess(ctx *executioncontext.ExecutionContext, code int, response any) {
	if response != nil {
		SkipCallersForInfo(ctx.Ctx, ctx.Logger, slog.LevelInfo, 3, "Request successful", "code", code, "response", response)
		return
	}
	SkipCallersForInfo(ctx.Ctx, ctx.Logger, slog.LevelInfo, 3, "Request successful", "code", code)
}
