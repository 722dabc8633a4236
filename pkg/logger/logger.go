package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultTailSize = 200

// Tail keeps the most recent log lines in a fixed-size ring.
type Tail struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

func NewTail(size int) *Tail {
	if size <= 0 {
		size = DefaultTailSize
	}
	return &Tail{lines: make([]string, size)}
}

// Write stores one encoded entry. zap hands every entry to the sink in a single call.
func (t *Tail) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	t.mu.Lock()
	t.lines[t.next] = line
	t.next = (t.next + 1) % len(t.lines)
	if t.next == 0 {
		t.full = true
	}
	t.mu.Unlock()
	return len(p), nil
}

func (t *Tail) Sync() error {
	return nil
}

// Lines returns the buffered lines, oldest first.
func (t *Tail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.full {
		out := make([]string, t.next)
		copy(out, t.lines[:t.next])
		return out
	}
	out := make([]string, 0, len(t.lines))
	out = append(out, t.lines[t.next:]...)
	out = append(out, t.lines[:t.next]...)
	return out
}

// New builds the process logger. Every entry at or above level also lands in the returned Tail.
func New(level string, development bool, tailSize int) (*zap.Logger, *Tail, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	base, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}

	tail := NewTail(tailSize)
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	tailCore := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(tail), lvl)

	log := base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, tailCore)
	}))
	return log, tail, nil
}
