package sinkx

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/clinia/bulksink/errorx"
)

type ActionType string

const (
	ActionIndex  ActionType = "index"
	ActionUpdate ActionType = "update"
	ActionDelete ActionType = "delete"
)

// actionOverheadBytes approximates the action metadata line sent with every document.
const actionOverheadBytes = 50

// WriteAction is a single index, update or delete operation against the
// remote store. It is immutable once built.
type WriteAction struct {
	typ             ActionType
	index           string
	id              string
	doc             json.RawMessage
	docAsUpsert     bool
	retryOnConflict int
}

type UpdateOption func(*WriteAction)

// WithDocAsUpsert indexes the partial document when the target does not exist.
func WithDocAsUpsert() UpdateOption {
	return func(a *WriteAction) {
		a.docAsUpsert = true
	}
}

func WithRetryOnConflict(n int) UpdateOption {
	return func(a *WriteAction) {
		a.retryOnConflict = n
	}
}

// NewIndexAction creates or replaces doc. An empty id lets the store generate one.
func NewIndexAction(index, id string, doc []byte) WriteAction {
	return WriteAction{typ: ActionIndex, index: index, id: id, doc: bytes.Clone(doc)}
}

// NewUpdateAction merges the partial document doc into the existing document.
func NewUpdateAction(index, id string, doc []byte, opts ...UpdateOption) WriteAction {
	a := WriteAction{typ: ActionUpdate, index: index, id: id, doc: bytes.Clone(doc)}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

func NewDeleteAction(index, id string) WriteAction {
	return WriteAction{typ: ActionDelete, index: index, id: id}
}

func (a WriteAction) Type() ActionType { return a.typ }
func (a WriteAction) Index() string    { return a.index }
func (a WriteAction) ID() string       { return a.id }

// Document returns the payload. Callers must not modify it.
func (a WriteAction) Document() json.RawMessage { return a.doc }
func (a WriteAction) DocAsUpsert() bool         { return a.docAsUpsert }
func (a WriteAction) RetryOnConflict() int      { return a.retryOnConflict }

func (a WriteAction) Validate() error {
	switch a.typ {
	case ActionIndex, ActionUpdate, ActionDelete:
	default:
		return errorx.InvalidArgumentErrorf("unknown action type '%s'", a.typ)
	}

	if a.index == "" {
		return errorx.InvalidArgumentErrorf("%s action requires an index", a.typ)
	}
	if a.typ != ActionIndex && a.id == "" {
		return errorx.InvalidArgumentErrorf("%s action on index '%s' requires an id", a.typ, a.index)
	}
	if a.typ == ActionDelete {
		return nil
	}

	if len(a.doc) == 0 {
		return errorx.InvalidArgumentErrorf("%s action on index '%s' requires a document", a.typ, a.index)
	}
	if !json.Valid(a.doc) {
		return errorx.InvalidArgumentErrorf("%s action on index '%s' has a document that is not valid JSON", a.typ, a.index)
	}
	if a.retryOnConflict < 0 {
		return errorx.InvalidArgumentErrorf("retry on conflict must not be negative, got %d", a.retryOnConflict)
	}
	return nil
}

// EstimatedSizeInBytes is the payload size plus a fixed per-action overhead.
func (a WriteAction) EstimatedSizeInBytes() int {
	return len(a.doc) + actionOverheadBytes
}

func (a WriteAction) String() string {
	if a.id == "" {
		return fmt.Sprintf("%s {index=%s}", a.typ, a.index)
	}
	return fmt.Sprintf("%s {index=%s, id=%s}", a.typ, a.index, a.id)
}
