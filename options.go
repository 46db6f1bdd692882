package esmodel

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

const (
	driverElasticsearch = "elasticsearch"
	driverEmbedded      = "embedded"
)

type clientConfig struct {
	driver     string // "elasticsearch" or "embedded"
	addrs      []string
	username   string
	password   string
	maxRetries int
	refresh    string
	transport  http.RoundTripper

	readinessTimeout time.Duration
	strictBulk       bool

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithElasticsearch connects the client to an Elasticsearch cluster.
func WithElasticsearch(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverElasticsearch
		c.addrs = addrs
	})
}

// WithBasicAuth sets cluster credentials.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithEmbedded runs models against an in-process engine with memory-only indexes.
func WithEmbedded() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverEmbedded
	})
}

// WithMaxRetries sets how often the cluster client retries 502, 503 and 504 responses.
func WithMaxRetries(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxRetries = n
	})
}

// WithRefresh sets the refresh mode of write requests: "true", "false" or "wait_for".
func WithRefresh(mode string) Option {
	return optionFunc(func(c *clientConfig) {
		c.refresh = mode
	})
}

// WithTransport replaces the HTTP transport of the cluster client.
func WithTransport(rt http.RoundTripper) Option {
	return optionFunc(func(c *clientConfig) {
		c.transport = rt
	})
}

// WithReadinessTimeout bounds how long New waits for the engine to answer a ping.
// Zero or negative skips the wait. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithStrictBulk makes bulk loads fail with a *BulkError when any item is rejected.
// By default rejected items are logged and counted, and the load succeeds.
func WithStrictBulk() Option {
	return optionFunc(func(c *clientConfig) {
		c.strictBulk = true
	})
}

// WithLogger enables structured logging for model operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts, durations and
// rejected bulk items) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
