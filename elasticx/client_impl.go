package elasticx

import (
	"context"
	"io"
	"time"

	elasticxbulk "github.com/clinia/bulksink/elasticx/bulk"
	"github.com/clinia/bulksink/loggerx"
	"github.com/clinia/bulksink/retryx"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"github.com/elastic/go-elasticsearch/v9/typedapi/core/bulk"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const defaultConnectTimeout = 5 * time.Minute

type client struct {
	es             *elasticsearch.TypedClient
	l              *loggerx.Logger
	connectTimeout time.Duration
}

// NewClient creates a new Client based on the given config.
func NewClient(config Config, l *loggerx.Logger) (Client, error) {
	es, err := elasticsearch.NewTypedClient(config.toElasticsearch())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create elasticsearch client")
	}

	connectTimeout := config.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}

	return &client{
		es:             es,
		l:              l,
		connectTimeout: connectTimeout,
	}, nil
}

func (c *client) Ping(ctx context.Context) error {
	return retryx.ExponentialRetry(ctx, func() error {
		res, err := esapi.PingRequest{}.Do(ctx, c.es)
		if err != nil {
			return err
		}

		defer res.Body.Close()

		if res.IsError() {
			return withElasticError(res)
		}

		return nil
	},
		retryx.WithMaxElapsedTime(c.connectTimeout),
		retryx.WithMaxInterval(10*time.Second),
		retryx.WithRetryCount(1<<31-1),
		retryx.WithNotify(func(err error, wait time.Duration) {
			c.l.WithError(err).Warn(ctx, "elasticsearch is not reachable yet", attribute.Stringer("retry_in", wait))
		}),
	)
}

func (c *client) Bulk(ctx context.Context, body io.Reader, opts ...elasticxbulk.Option) (*bulk.Response, error) {
	req := c.es.Bulk().Raw(body)
	for _, opt := range opts {
		opt(req)
	}

	return req.Do(ctx)
}

func (c *client) Close(ctx context.Context) error {
	return c.es.Close(ctx)
}
