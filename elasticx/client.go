package elasticx

import (
	"context"
	"io"

	elasticxbulk "github.com/clinia/bulksink/elasticx/bulk"
	"github.com/elastic/go-elasticsearch/v9/typedapi/core/bulk"
)

// Client provides access to a single Elastic server, or an entire cluster of Elastic servers.
type Client interface {
	// Ping makes sure the elastic server or cluster answers, retrying until the configured connection timeout.
	Ping(ctx context.Context) error

	// Bulk sends an already encoded NDJSON bulk body.
	// An error is returned when the server did not answer with a bulk response, item failures are reported in the response.
	Bulk(ctx context.Context, body io.Reader, opts ...elasticxbulk.Option) (*bulk.Response, error)

	// Close releases the idle connections of the underlying transport.
	Close(ctx context.Context) error
}
