// Package logging wires the scoped dapr loggers of every component to the
// configured console and rotating-file sinks.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dapr/kit/logger"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/za419/reddit-news/pkg/redditnews/config"
)

// Scope names of the component loggers.
const (
	ScopeMain    = "reddit-news"
	ScopeServer  = "reddit-news.server"
	ScopePoller  = "reddit-news.poller"
	ScopeAPI     = "reddit-news.api"
	ScopeReddit  = "reddit-news.reddit"
	ScopeMetrics = "reddit-news.metrics"
)

// Scopes lists every logger Setup configures.
var Scopes = []string{ScopeMain, ScopeServer, ScopePoller, ScopeAPI, ScopeReddit, ScopeMetrics}

// Sink owns the writers installed by Setup.
type Sink struct {
	io.Writer
	file *lumberjack.Logger
}

// Close flushes and closes the rotating file, if any.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// Setup applies level and format to all loggers and points them at the
// configured sinks. Relative log directories resolve against baseDir.
func Setup(cfg config.LogConfig, baseDir string) (*Sink, error) {
	opts := logger.DefaultOptions()
	opts.OutputLevel = cfg.Level
	opts.JSONFormatEnabled = cfg.JSON

	for _, name := range Scopes {
		logger.NewLogger(name)
	}
	if err := logger.ApplyOptionsToLoggers(&opts); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	sink, err := newSink(cfg, baseDir)
	if err != nil {
		return nil, err
	}
	for _, name := range Scopes {
		logger.NewLogger(name).SetOutput(sink)
	}
	return sink, nil
}

func newSink(cfg config.LogConfig, baseDir string) (*Sink, error) {
	var writers []io.Writer
	if cfg.Console {
		if cfg.Stream == "stdout" {
			writers = append(writers, os.Stdout)
		} else {
			writers = append(writers, os.Stderr)
		}
	}

	sink := &Sink{}
	if cfg.Disk {
		dir := cfg.Directory
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(baseDir, dir)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("logging: create %s: %w", dir, err)
		}
		sink.file = &lumberjack.Logger{
			Filename:   filepath.Join(dir, cfg.File),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			LocalTime:  true,
		}
		writers = append(writers, sink.file)
	}

	switch len(writers) {
	case 0:
		sink.Writer = io.Discard
	case 1:
		sink.Writer = writers[0]
	default:
		sink.Writer = io.MultiWriter(writers...)
	}
	return sink, nil
}
