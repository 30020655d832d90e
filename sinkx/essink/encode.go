package essink

import (
	"bytes"
	"encoding/json"

	elasticxbulk "github.com/clinia/bulksink/elasticx/bulk"
	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/sinkx"
	"github.com/tidwall/sjson"
)

type actionMeta struct {
	Index           string `json:"_index"`
	ID              string `json:"_id,omitempty"`
	RetryOnConflict int    `json:"retry_on_conflict,omitempty"`
}

var bulkActions = map[sinkx.ActionType]elasticxbulk.Action{
	sinkx.ActionIndex:  elasticxbulk.ActionIndex,
	sinkx.ActionUpdate: elasticxbulk.ActionUpdate,
	sinkx.ActionDelete: elasticxbulk.ActionDelete,
}

// Encode renders req as an NDJSON bulk body: one metadata line per action,
// followed by the document line for index and update actions.
func Encode(req *sinkx.BulkRequest) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, req.EstimatedSizeInBytes()))
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	for _, a := range req.Actions {
		op, ok := bulkActions[a.Type()]
		if !ok {
			return nil, errorx.InvalidArgumentErrorf("unsupported bulk action '%s'", a.Type())
		}

		meta := actionMeta{Index: a.Index(), ID: a.ID()}
		if a.Type() == sinkx.ActionUpdate {
			meta.RetryOnConflict = a.RetryOnConflict()
		}
		if err := enc.Encode(map[elasticxbulk.Action]actionMeta{op: meta}); err != nil {
			return nil, errorx.InternalErrorf("failed to encode bulk metadata for %s", a).WithOriginalError(err)
		}

		switch a.Type() {
		case sinkx.ActionIndex:
			if err := writeLine(buf, a.Document()); err != nil {
				return nil, err
			}
		case sinkx.ActionUpdate:
			body, err := updateBody(a)
			if err != nil {
				return nil, err
			}
			if err := writeLine(buf, body); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}

func updateBody(a sinkx.WriteAction) ([]byte, error) {
	body, err := sjson.SetRawBytes([]byte(`{}`), "doc", a.Document())
	if err != nil {
		return nil, errorx.InternalErrorf("failed to encode update body for %s", a).WithOriginalError(err)
	}
	if a.DocAsUpsert() {
		body, err = sjson.SetBytes(body, "doc_as_upsert", true)
		if err != nil {
			return nil, errorx.InternalErrorf("failed to encode update body for %s", a).WithOriginalError(err)
		}
	}
	return body, nil
}

// writeLine writes doc on a single line, compacting it when it spans several.
func writeLine(buf *bytes.Buffer, doc []byte) error {
	if bytes.ContainsAny(doc, "\r\n") {
		if err := json.Compact(buf, doc); err != nil {
			return errorx.InvalidArgumentErrorf("document is not valid JSON").WithOriginalError(err)
		}
	} else {
		buf.Write(doc)
	}
	buf.WriteByte('\n')
	return nil
}
