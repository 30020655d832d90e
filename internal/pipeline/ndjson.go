package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/loggerx"
	"github.com/clinia/bulksink/timerx"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const maxLineBytes = 16 << 20

type NDJSONConfig struct {
	// Path of the file to read, stdin when empty or `-`.
	Path string `json:"path"`
}

// NDJSONSource reads one JSON record per line and flushes the writer every
// checkpointEvery records.
type NDJSONSource struct {
	r               io.Reader
	closer          io.Closer
	checkpointEvery int
	idle            time.Duration
	l               *loggerx.Logger
}

var _ Source = (*NDJSONSource)(nil)

func OpenNDJSONSource(cfg NDJSONConfig, checkpointEvery int, l *loggerx.Logger) (*NDJSONSource, error) {
	if cfg.Path == "" || cfg.Path == "-" {
		return NewNDJSONSource(os.Stdin, checkpointEvery, l), nil
	}

	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, errorx.InvalidArgumentErrorf("unable to open '%s'", cfg.Path).WithOriginalError(err)
	}
	s := NewNDJSONSource(f, checkpointEvery, l)
	s.closer = f
	return s, nil
}

// NewNDJSONSource reads from r. A checkpointEvery of zero or less only flushes
// at the end of input.
func NewNDJSONSource(r io.Reader, checkpointEvery int, l *loggerx.Logger) *NDJSONSource {
	return &NDJSONSource{
		r:               r,
		checkpointEvery: checkpointEvery,
		idle:            DefaultIdleInterval,
		l:               l,
	}
}

type line struct {
	b   []byte
	err error
}

func (s *NDJSONSource) Run(ctx context.Context, w Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan line)
	go s.scan(ctx, lines)

	idle := time.NewTimer(s.idle)
	defer timerx.StopTimer(idle)

	var records, sinceCheckpoint int
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-idle.C:
			// nothing to read, let interval flushes and completions run
			if err := w.ProcessMailbox(); err != nil {
				return err
			}
			timerx.ResetTimer(idle, s.idle)

		case ln, ok := <-lines:
			if !ok {
				s.l.Info(ctx, "end of input reached", attribute.Int("records", records))
				return w.Flush(ctx, true)
			}
			if ln.err != nil {
				return errors.Wrap(ln.err, "unable to read ndjson input")
			}

			if err := w.Write(ctx, ln.b); err != nil {
				return err
			}
			records++
			sinceCheckpoint++

			if s.checkpointEvery > 0 && sinceCheckpoint >= s.checkpointEvery {
				s.l.Debug(ctx, "checkpoint", attribute.Int("records", records))
				if err := w.Flush(ctx, false); err != nil {
					return err
				}
				sinceCheckpoint = 0
			}
			timerx.ResetTimer(idle, s.idle)
		}
	}
}

func (s *NDJSONSource) scan(ctx context.Context, lines chan<- line) {
	defer close(lines)

	sc := bufio.NewScanner(s.r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		select {
		case lines <- line{b: bytes.Clone(b)}:
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil {
		select {
		case lines <- line{err: err}:
		case <-ctx.Done():
		}
	}
}

func (s *NDJSONSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
