package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogManager owns the process logger. It starts with text on stderr and
// adds a rotated JSON file once config is known.
type LogManager struct {
	handler *swappableHandler
	logger  *slog.Logger
	console *slog.LevelVar
	stderr  io.Writer
	file    *lumberjack.Logger
	mu      sync.Mutex
}

// NewLogManager creates the bootstrap logger. Console output shows warnings
// only, unless debug is set.
func NewLogManager(stderr io.Writer, debug bool) *LogManager {
	console := new(slog.LevelVar)
	console.Set(slog.LevelWarn)
	if debug {
		console.Set(slog.LevelDebug)
	}

	handler := newSwappableHandler(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: console}))
	return &LogManager{
		handler: handler,
		logger:  slog.New(handler),
		console: console,
		stderr:  stderr,
	}
}

// Logger returns the process logger. It stays valid across Upgrade.
func (m *LogManager) Logger() *slog.Logger {
	return m.logger
}

// Upgrade fans out to a JSON log file at the configured level. An empty
// path leaves the console-only logger in place.
func (m *LogManager) Upgrade(path, level string) error {
	if path == "" {
		return nil
	}
	fileLevel, err := parseLogLevel(level)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	if m.file != nil {
		_ = m.file.Close()
	}
	m.file = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     30,
	}

	m.handler.swap(slogmulti.Fanout(
		slog.NewTextHandler(m.stderr, &slog.HandlerOptions{Level: m.console}),
		slog.NewJSONHandler(m.file, &slog.HandlerOptions{Level: fileLevel}),
	))
	return nil
}

// Close flushes and closes the log file, if any
func (m *LogManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
	}
}

// swappableHandler lets loggers created before Upgrade pick up the new
// handler
type swappableHandler struct {
	current atomic.Pointer[slog.Handler]
}

func newSwappableHandler(h slog.Handler) *swappableHandler {
	sh := &swappableHandler{}
	sh.current.Store(&h)
	return sh
}

func (sh *swappableHandler) swap(h slog.Handler) {
	sh.current.Store(&h)
}

func (sh *swappableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return (*sh.current.Load()).Enabled(ctx, level)
}

func (sh *swappableHandler) Handle(ctx context.Context, r slog.Record) error {
	return (*sh.current.Load()).Handle(ctx, r)
}

func (sh *swappableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedHandler{root: sh, attrs: attrs}
}

func (sh *swappableHandler) WithGroup(name string) slog.Handler {
	return &derivedHandler{root: sh, group: name}
}

// derivedHandler replays attrs and groups onto whatever handler the root
// currently holds, so logger.With survives a swap
type derivedHandler struct {
	root   *swappableHandler
	parent *derivedHandler
	attrs  []slog.Attr
	group  string
}

func (dh *derivedHandler) resolve() slog.Handler {
	var h slog.Handler
	if dh.parent != nil {
		h = dh.parent.resolve()
	} else {
		h = *dh.root.current.Load()
	}
	if dh.group != "" {
		return h.WithGroup(dh.group)
	}
	return h.WithAttrs(dh.attrs)
}

func (dh *derivedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return dh.resolve().Enabled(ctx, level)
}

func (dh *derivedHandler) Handle(ctx context.Context, r slog.Record) error {
	return dh.resolve().Handle(ctx, r)
}

func (dh *derivedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedHandler{root: dh.root, parent: dh, attrs: attrs}
}

func (dh *derivedHandler) WithGroup(name string) slog.Handler {
	return &derivedHandler{root: dh.root, parent: dh, group: name}
}
