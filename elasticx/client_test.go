package elasticx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	elasticxbulk "github.com/clinia/bulksink/elasticx/bulk"
	loggerxtest "github.com/clinia/bulksink/loggerx/test"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types/enums/refresh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func createClient(t *testing.T, cfg Config) Client {
	t.Helper()
	c, err := NewClient(cfg, loggerxtest.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func TestClientPing(t *testing.T) {
	ctx := context.Background()

	t.Run("should retry until the cluster answers", func(t *testing.T) {
		var calls atomic.Int32
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		c := createClient(t, Config{Addresses: []string{srv.URL}, ConnectTimeout: 10 * time.Second})
		require.NoError(t, c.Ping(ctx))
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("should give up after the connect timeout", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		c := createClient(t, Config{Addresses: []string{srv.URL}, ConnectTimeout: 50 * time.Millisecond})
		err := c.Ping(ctx)
		require.Error(t, err)

		var eserr *types.ElasticsearchError
		require.ErrorAs(t, err, &eserr)
		assert.Equal(t, http.StatusServiceUnavailable, eserr.Status)
	})
}

func TestClientBulk(t *testing.T) {
	ctx := context.Background()

	t.Run("should send the raw body with options", func(t *testing.T) {
		var gotBody, gotQuery string
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			gotBody, gotQuery = string(b), r.URL.RawQuery
			_, _ = io.WriteString(w, `{"took":3,"errors":false,"items":[{"index":{"_index":"a","_id":"1","status":201}}]}`)
		})
		c := createClient(t, Config{Addresses: []string{srv.URL}})

		body := "{\"index\":{\"_index\":\"a\",\"_id\":\"1\"}}\n{\"n\":1}\n"
		res, err := c.Bulk(ctx, strings.NewReader(body), elasticxbulk.Refresh(refresh.Waitfor), elasticxbulk.Routing("r1"))
		require.NoError(t, err)

		assert.Equal(t, body, gotBody)
		assert.Contains(t, gotQuery, "refresh=wait_for")
		assert.Contains(t, gotQuery, "routing=r1")
		assert.False(t, res.Errors)
		require.Len(t, res.Items, 1)
	})

	t.Run("should return elastic errors for rejected requests", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"error":{"type":"es_rejected_execution_exception","reason":"queue full"},"status":429}`)
		})
		c := createClient(t, Config{Addresses: []string{srv.URL}})

		_, err := c.Bulk(ctx, strings.NewReader("{}\n"))
		require.Error(t, err)
		assert.True(t, IsRetryable(err))
	})

	t.Run("should send a failed request once", func(t *testing.T) {
		var calls atomic.Int32
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/_bulk" {
				calls.Add(1)
			}
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		c := createClient(t, Config{Addresses: []string{srv.URL}})

		_, err := c.Bulk(ctx, strings.NewReader("{}\n"))
		require.Error(t, err)
		assert.EqualValues(t, 1, calls.Load())
	})
}

func TestIsRetryable(t *testing.T) {
	for status, retryable := range map[int]bool{
		400: false,
		404: false,
		409: false,
		429: true,
		500: true,
		503: true,
	} {
		eserr := types.NewElasticsearchError()
		eserr.Status = status
		assert.Equal(t, retryable, IsRetryable(eserr), status)
	}
	assert.True(t, IsRetryable(errors.New("connection refused")))
}

func TestConfig(t *testing.T) {
	cfg := Config{Addresses: []string{"http://es:9200"}, APIKey: "key", RequestTimeout: time.Second}.toElasticsearch()
	assert.Equal(t, []string{"http://es:9200"}, cfg.Addresses)
	assert.Equal(t, "key", cfg.APIKey)
	assert.True(t, cfg.DisableRetry)

	tr, ok := cfg.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, time.Second, tr.ResponseHeaderTimeout)

	assert.Nil(t, Config{}.toElasticsearch().Transport)
}

func TestParseRefresh(t *testing.T) {
	r, ok := elasticxbulk.ParseRefresh("wait_for")
	assert.True(t, ok)
	assert.Equal(t, refresh.Waitfor, r)

	_, ok = elasticxbulk.ParseRefresh("")
	assert.False(t, ok)
}
