// Package mailbox serializes work coming from many goroutines onto the single
// goroutine that pumps it.
//
// Any goroutine may Execute a mail. Mails only run when the owning goroutine
// calls TryYield, RunAvailable or Yield, so state touched exclusively from
// mails and from the owner needs no further synchronization.
package mailbox

import (
	"context"
	"sync"

	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/loggerx"
	"github.com/clinia/bulksink/tracex"
	"go.opentelemetry.io/otel/attribute"
)

var ErrClosed = errorx.FailedPreconditionErrorf("mailbox is closed")

type mail struct {
	name string
	fn   func() error
}

type Mailbox struct {
	l *loggerx.Logger

	mu     sync.Mutex
	queue  []mail
	closed bool

	// notify holds at most one wake-up token for a goroutine blocked in Yield.
	notify chan struct{}
	done   chan struct{}
}

func New(l *loggerx.Logger) *Mailbox {
	return &Mailbox{
		l:      l,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Execute enqueues fn to run on the pumping goroutine. It never blocks and
// returns false when the mailbox is closed, in which case fn is dropped.
func (m *Mailbox) Execute(name string, fn func() error) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, mail{name: name, fn: fn})
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

// TryYield runs the oldest queued mail, if any. It reports whether a mail ran
// and returns the error of that mail.
func (m *Mailbox) TryYield() (bool, error) {
	next, ok := m.pop()
	if !ok {
		return false, nil
	}
	return true, m.run(next)
}

// RunAvailable runs the mails queued at the time of the call and stops at the
// first failing one.
func (m *Mailbox) RunAvailable() error {
	for n := m.Len(); n > 0; n-- {
		ran, err := m.TryYield()
		if err != nil {
			return err
		}
		if !ran {
			return nil
		}
	}
	return nil
}

// Yield blocks until one mail ran. It returns ErrClosed once the mailbox is
// closed, or the context error when ctx is done first.
func (m *Mailbox) Yield(ctx context.Context) error {
	for {
		ran, err := m.TryYield()
		if ran {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return ErrClosed
		case <-m.notify:
		}
	}
}

// Len returns the number of queued mails.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Close discards queued mails and refuses new ones. Goroutines blocked in
// Yield return ErrClosed.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.queue = nil
	close(m.done)
}

func (m *Mailbox) pop() (mail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return mail{}, false
	}
	next := m.queue[0]
	m.queue[0] = mail{}
	m.queue = m.queue[1:]
	return next, true
}

func (m *Mailbox) run(next mail) (err error) {
	defer func() {
		if r := recover(); r != nil {
			attrs := append(tracex.StackTraceAttrs(r), attribute.String("mail", next.name))
			m.l.Error(context.Background(), "mail panicked", attrs...)
			err = errorx.InternalErrorf("mail '%s' panicked: %s", next.name, tracex.PanicMessage(r))
		}
	}()
	return next.fn()
}
