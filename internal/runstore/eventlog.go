// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runstore

import (
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventLogger appends structured events to a run's events.jsonl file, one
// JSON object per line. It is diagnostic only: a failed append is swallowed
// so logging can never abort a pipeline stage.
type EventLogger struct {
	logger *zap.Logger
	file   *os.File
}

// OpenEventLog opens (or creates) a JSONL event log at path in append mode.
func OpenEventLog(path string) (*EventLogger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		MessageKey:     "event",
		LevelKey:       "level",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(file),
		zapcore.InfoLevel,
	)
	return &EventLogger{logger: zap.New(core), file: file}, nil
}

// Log appends one event line with a stage tag and arbitrary metadata. Meta
// keys are emitted in sorted order so the log diffs cleanly.
func (l *EventLogger) Log(stage, event string, meta map[string]any) {
	if l == nil || l.logger == nil {
		return
	}

	fields := make([]zap.Field, 0, len(meta)+1)
	fields = append(fields, zap.String("stage", stage))

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, meta[k]))
	}

	l.logger.Info(event, fields...)
}

// Close flushes and closes the underlying file.
func (l *EventLogger) Close() error {
	if l == nil || l.logger == nil {
		return nil
	}
	_ = l.logger.Sync()
	return l.file.Close()
}
