package elasticxbulk

import (
	"github.com/elastic/go-elasticsearch/v9/typedapi/core/bulk"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types/enums/refresh"
)

type Option func(*bulk.Bulk)

// Refresh If `true`, Elasticsearch refreshes the affected shards to make this operation
// visible to search, if `wait_for` then wait for a refresh to make this
// operation visible to search, if `false` do nothing with refreshes.
// Valid values: `true`, `false`, `wait_for`.
// API name: refresh
func Refresh(r refresh.Refresh) Option {
	return func(b *bulk.Bulk) {
		b.Refresh(r)
	}
}

// ParseRefresh maps `true`, `false` and `wait_for` to a refresh value. Any other
// value, the empty string included, returns false.
func ParseRefresh(s string) (refresh.Refresh, bool) {
	switch s {
	case refresh.True.String():
		return refresh.True, true
	case refresh.False.String():
		return refresh.False, true
	case refresh.Waitfor.String():
		return refresh.Waitfor, true
	default:
		return refresh.Refresh{}, false
	}
}

// Pipeline ID of the pipeline to use to preprocess incoming documents.
// If the index has a default ingest pipeline specified, then setting the value
// to `_none` disables the default ingest pipeline for this request.
// If a final pipeline is configured it will always run, regardless of the value
// of this parameter.
// API name: pipeline
func Pipeline(p string) Option {
	return func(b *bulk.Bulk) {
		b.Pipeline(p)
	}
}

// Routing Custom value used to route operations to a specific shard.
// API name: routing
func Routing(r string) Option {
	return func(b *bulk.Bulk) {
		b.Routing(r)
	}
}

// Timeout Explicit operation timeout.
// API name: timeout
func Timeout(t string) Option {
	return func(b *bulk.Bulk) {
		b.Timeout(t)
	}
}

// WaitForActiveShards The number of shard copies that must be active before proceeding with the
// operation.
// Set to all or any positive integer up to the total number of shards in the
// index (`number_of_replicas+1`).
// API name: wait_for_active_shards
func WaitForActiveShards(w string) Option {
	return func(b *bulk.Bulk) {
		b.WaitForActiveShards(w)
	}
}

// RequireAlias If true, requires destination to be an alias.
// API name: require_alias
func RequireAlias(r bool) Option {
	return func(b *bulk.Bulk) {
		b.RequireAlias(r)
	}
}

// FilterPath Comma-separated list of filters used to reduce the response.
// API name: filter_path
func FilterPath(f ...string) Option {
	return func(b *bulk.Bulk) {
		b.FilterPath(f...)
	}
}
