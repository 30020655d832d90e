package pipeline

import (
	"context"
	"time"
)

const DefaultIdleInterval = 100 * time.Millisecond

// Writer is the part of sinkx.Writer a source drives.
type Writer interface {
	Write(ctx context.Context, record []byte) error
	Flush(ctx context.Context, endOfInput bool) error
	ProcessMailbox() error
}

// Source feeds records to a Writer until its input ends or ctx is done.
// Sources call Flush at every checkpoint and once more at the end of input.
type Source interface {
	Run(ctx context.Context, w Writer) error
	Close() error
}
