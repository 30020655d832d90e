// Package essink sends sinkx bulk requests to Elasticsearch or OpenSearch.
package essink

import (
	"bytes"
	"context"
	"time"

	"github.com/clinia/bulksink/elasticx"
	elasticxbulk "github.com/clinia/bulksink/elasticx/bulk"
	"github.com/clinia/bulksink/sinkx"
	"github.com/elastic/go-elasticsearch/v9/typedapi/core/bulk"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types/enums/operationtype"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type Sink struct {
	es   elasticx.Client
	opts []elasticxbulk.Option
}

var _ sinkx.BulkClient = (*Sink)(nil)

// New returns a sinkx.BulkClient sending every request with opts.
func New(es elasticx.Client, opts ...elasticxbulk.Option) *Sink {
	return &Sink{es: es, opts: opts}
}

func (s *Sink) Bulk(ctx context.Context, req *sinkx.BulkRequest) (*sinkx.BulkResponse, error) {
	body, err := Encode(req)
	if err != nil {
		return nil, err
	}

	res, err := s.es.Bulk(ctx, bytes.NewReader(body), s.opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "bulk request %d", req.ExecutionID)
	}

	return toBulkResponse(res), nil
}

func (s *Sink) Close() error {
	return s.es.Close(context.Background())
}

func toBulkResponse(res *bulk.Response) *sinkx.BulkResponse {
	return &sinkx.BulkResponse{
		Took: time.Duration(res.Took) * time.Millisecond,
		Items: lo.Map(res.Items, func(item map[operationtype.OperationType]types.ResponseItem, _ int) sinkx.ItemResult {
			// Every item holds a single entry keyed by its operation.
			for _, r := range item {
				return toItemResult(r)
			}
			return sinkx.ItemResult{Err: &sinkx.ItemFailure{Type: "empty_bulk_item"}}
		}),
	}
}

func toItemResult(r types.ResponseItem) sinkx.ItemResult {
	result := sinkx.ItemResult{Status: r.Status}
	if r.Error != nil {
		result.Err = &sinkx.ItemFailure{Type: r.Error.Type, Reason: lo.FromPtr(r.Error.Reason)}
	}
	return result
}
