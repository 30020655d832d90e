// Package pipeline turns JSON records from a source into sinkx write actions.
package pipeline

import (
	"context"

	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/loggerx"
	"github.com/clinia/bulksink/sinkx"
	"github.com/segmentio/ksuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.opentelemetry.io/otel/attribute"
)

type EmitterConfig struct {
	// Index receives every record unless IndexField is set on the record.
	Index string `json:"index"`
	// IndexField, IDField and OpField are gjson paths into the record.
	IndexField string `json:"index_field"`
	IDField    string `json:"id_field"`
	// OpField holds `index`, `update` or `delete` and is removed from the document.
	OpField         string `json:"op_field"`
	DocAsUpsert     bool   `json:"doc_as_upsert"`
	RetryOnConflict int    `json:"retry_on_conflict"`
	// SkipInvalid drops records that cannot be turned into an action instead of failing.
	SkipInvalid bool `json:"skip_invalid"`
}

// JSONEmitter emits exactly one action per valid JSON record.
type JSONEmitter struct {
	cfg   EmitterConfig
	l     *loggerx.Logger
	newID func() string
}

var _ sinkx.Emitter[[]byte] = (*JSONEmitter)(nil)

func NewJSONEmitter(cfg EmitterConfig, l *loggerx.Logger) (*JSONEmitter, error) {
	if cfg.Index == "" && cfg.IndexField == "" {
		return nil, errorx.InvalidArgumentErrorf("either index or index_field must be set")
	}
	if cfg.RetryOnConflict < 0 {
		return nil, errorx.InvalidArgumentErrorf("retry_on_conflict must not be negative, got %d", cfg.RetryOnConflict)
	}

	return &JSONEmitter{
		cfg: cfg,
		l:   l,
		newID: func() string {
			return ksuid.New().String()
		},
	}, nil
}

func (e *JSONEmitter) Open(ctx context.Context) error {
	e.l.Debug(ctx, "json emitter opened",
		attribute.String("index", e.cfg.Index),
		attribute.String("index_field", e.cfg.IndexField),
		attribute.String("id_field", e.cfg.IDField),
	)
	return nil
}

func (e *JSONEmitter) Emit(ctx context.Context, record []byte, indexer sinkx.RequestIndexer) error {
	action, err := e.action(record)
	if err != nil {
		if e.cfg.SkipInvalid {
			e.l.WithError(err).Warn(ctx, "skipping invalid record")
			return nil
		}
		return err
	}
	return indexer.Add(action)
}

func (e *JSONEmitter) Close() error {
	return nil
}

func (e *JSONEmitter) action(record []byte) (sinkx.WriteAction, error) {
	if !gjson.ValidBytes(record) {
		return sinkx.WriteAction{}, errorx.InvalidArgumentErrorf("record is not valid json")
	}

	op := sinkx.ActionIndex
	doc := record
	if e.cfg.OpField != "" {
		if v := gjson.GetBytes(record, e.cfg.OpField); v.Exists() {
			op = sinkx.ActionType(v.String())
			stripped, err := sjson.DeleteBytes(record, e.cfg.OpField)
			if err != nil {
				return sinkx.WriteAction{}, errorx.InternalErrorf("unable to remove '%s' from record", e.cfg.OpField).WithOriginalError(err)
			}
			doc = stripped
		}
	}

	index := e.cfg.Index
	if e.cfg.IndexField != "" {
		if v := gjson.GetBytes(doc, e.cfg.IndexField); v.Exists() && v.String() != "" {
			index = v.String()
		}
	}

	var id string
	if e.cfg.IDField != "" {
		id = gjson.GetBytes(doc, e.cfg.IDField).String()
	}

	var action sinkx.WriteAction
	switch op {
	case sinkx.ActionIndex:
		if id == "" {
			id = e.newID()
		}
		action = sinkx.NewIndexAction(index, id, doc)
	case sinkx.ActionUpdate:
		var opts []sinkx.UpdateOption
		if e.cfg.DocAsUpsert {
			opts = append(opts, sinkx.WithDocAsUpsert())
		}
		if e.cfg.RetryOnConflict > 0 {
			opts = append(opts, sinkx.WithRetryOnConflict(e.cfg.RetryOnConflict))
		}
		action = sinkx.NewUpdateAction(index, id, doc, opts...)
	case sinkx.ActionDelete:
		action = sinkx.NewDeleteAction(index, id)
	default:
		return sinkx.WriteAction{}, errorx.InvalidArgumentErrorf("unknown operation '%s'", op)
	}

	return action, action.Validate()
}
