package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Package loggers. They stay no-op until InitLogger runs so tests and the
// CLI can use them freely.
var (
	AppLogger     = zap.NewNop()
	RequestLogger = zap.NewNop()
	TimerLogger   = zap.NewNop()
	ErrorLogger   = zap.NewNop()
)

func InitLogger(dir, level string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)
	stdout := zapcore.Lock(os.Stdout)

	// app.log (general logs), mirrored to stdout
	appCore := zapcore.NewTee(
		zapcore.NewCore(encoder, rotating(dir, "app.log", 100, 28), lvl),
		zapcore.NewCore(encoder, stdout, lvl),
	)
	AppLogger = zap.New(appCore)

	// request.log
	RequestLogger = zap.New(zapcore.NewCore(encoder, rotating(dir, "request.log", 50, 7), zap.InfoLevel))

	// timer.log
	TimerLogger = zap.New(zapcore.NewCore(encoder, rotating(dir, "timer.log", 50, 7), zap.InfoLevel))

	// error.log, mirrored to stdout
	errorCore := zapcore.NewTee(
		zapcore.NewCore(encoder, rotating(dir, "error.log", 100, 30), zap.ErrorLevel),
		zapcore.NewCore(encoder, stdout, zap.ErrorLevel),
	)
	ErrorLogger = zap.New(errorCore, zap.AddCaller())
	return nil
}

func rotating(dir, name string, maxSize, maxAge int) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename: filepath.Join(dir, name),
		MaxSize:  maxSize,
		MaxAge:   maxAge,
		Compress: true,
	})
}

// Sync flushes every logger. Call it on shutdown.
func Sync() {
	for _, l := range []*zap.Logger{AppLogger, RequestLogger, TimerLogger, ErrorLogger} {
		_ = l.Sync()
	}
}

// LogDuration lets you do: defer logging.LogDuration(ctx, "FuncName")()
func LogDuration(ctx context.Context, name string) func() {
	start := time.Now()
	reqID := middleware.GetReqID(ctx)

	return func() {
		fields := []zap.Field{
			zap.String("func", name),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}
		TimerLogger.Info("Function timed", fields...)
	}
}
