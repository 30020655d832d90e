package loggerxtest

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/clinia/bulksink/loggerx"
)

func NewTestLogger(t testing.TB) *loggerx.Logger {
	t.Helper()
	return &loggerx.Logger{Logger: slog.New(slog.DiscardHandler)}
}

// Buffer is a bytes.Buffer safe for concurrent writes, since loggers are
// shared with goroutines owned by the code under test.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func NewTestLoggerWithJSONBuffer(t testing.TB) (*loggerx.Logger, *Buffer) {
	t.Helper()
	buf := &Buffer{}
	l := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &loggerx.Logger{Logger: l}, buf
}

func NewTestLoggerWithTextBuffer(t testing.TB) (*loggerx.Logger, *Buffer) {
	t.Helper()
	buf := &Buffer{}
	l := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &loggerx.Logger{Logger: l}, buf
}
