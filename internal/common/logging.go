// Package common provides configuration, logging and numeric helpers shared
// across microcap.
package common

import (
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"
)

const logTimeFormat = time.RFC3339

// Logger wraps arbor.ILogger to provide a consistent interface
type Logger struct {
	arbor.ILogger
}

// discardWriter swallows every event so a silent logger never reaches the
// globally registered arbor writers.
type discardWriter struct{}

func (w *discardWriter) Write(p []byte) (int, error)           { return len(p), nil }
func (w *discardWriter) WithLevel(_ log.Level) writers.IWriter { return w }
func (w *discardWriter) GetFilePath() string                   { return "" }
func (w *discardWriter) Close() error                          { return nil }

// NewLoggerFromConfig builds the run logger from the [logging] section.
// Console output goes to stderr because stdout carries snapshot JSON and
// prompt text. Unset file settings fall back to the config defaults.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	defaults := NewDefaultConfig().Logging

	outputs := cfg.Outputs
	if len(outputs) == 0 {
		outputs = []string{"console"}
	}

	l := arbor.NewLogger()
	for _, out := range outputs {
		switch strings.ToLower(strings.TrimSpace(out)) {
		case "console":
			l = l.WithConsoleWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeConsole,
				Writer:     os.Stderr,
				TimeFormat: logTimeFormat,
			})
		case "file":
			l = l.WithFileWriter(fileWriterConfig(cfg, defaults))
		}
	}

	level := cfg.Level
	if level == "" {
		level = defaults.Level
	}
	return &Logger{ILogger: l.WithLevelFromString(level)}
}

// fileWriterConfig sizes the rotating run log
func fileWriterConfig(cfg, defaults LoggingConfig) models.WriterConfiguration {
	path := cfg.FilePath
	if path == "" {
		path = defaults.FilePath
	}
	sizeMB := cfg.MaxSizeMB
	if sizeMB <= 0 {
		sizeMB = defaults.MaxSizeMB
	}
	backups := cfg.MaxBackups
	if backups <= 0 {
		backups = defaults.MaxBackups
	}
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeFile,
		FileName:   path,
		MaxSize:    int64(sizeMB) * 1024 * 1024,
		MaxBackups: backups,
		TimeFormat: logTimeFormat,
	}
}

// NewSilentLogger creates a logger that discards all output.
func NewSilentLogger() *Logger {
	arborLogger := arbor.NewLogger().WithWriters([]writers.IWriter{&discardWriter{}})
	return &Logger{ILogger: arborLogger}
}

// WithCorrelationId returns a new Logger tagged with a correlation ID,
// used to tie every log line of one validation run together.
func (l *Logger) WithCorrelationId(id string) *Logger {
	return &Logger{ILogger: l.ILogger.WithCorrelationId(id)}
}
