package elasticx

import (
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
)

type Config struct {
	Addresses []string `json:"addresses"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	APIKey    string   `json:"api_key"`

	// RequestTimeout bounds the wait for response headers of every request. Zero means no timeout.
	RequestTimeout time.Duration `json:"request_timeout"`
	// ConnectTimeout bounds the time Ping keeps retrying.
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

func (c Config) toElasticsearch() elasticsearch.Config {
	cfg := elasticsearch.Config{
		Addresses: c.Addresses,
		Username:  c.Username,
		Password:  c.Password,
		APIKey:    c.APIKey,
		// Retries belong to the caller, the transport sends each request once.
		DisableRetry: true,
	}

	if c.RequestTimeout > 0 {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.ResponseHeaderTimeout = c.RequestTimeout
		cfg.Transport = t
	}

	return cfg
}
