package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds a JSON zap logger. file "-" logs to stderr, anything else
// is a rotated log file. The returned func flushes the logger.
func newLogger(level, file string, stderr io.Writer) (*zap.Logger, func(), error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level %q: %w", level, err)
	}

	var sink zapcore.WriteSyncer
	if file == "-" {
		sink = zapcore.AddSync(stderr)
	} else {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    2, // megabytes
			MaxBackups: 5,
			MaxAge:     15, // days
			Compress:   true,
		})
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), sink, lvl)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).Named(appName)
	return logger, func() { _ = logger.Sync() }, nil
}
