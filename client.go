package esmodel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/esmodel/internal/engine"
	"github.com/kailas-cloud/esmodel/internal/engine/elastic"
	"github.com/kailas-cloud/esmodel/internal/engine/embedded"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the esmodel SDK entry point. It owns the engine connection.
type Client struct {
	engine     engine.Engine
	obs        *observer
	strictBulk bool
}

// New creates a Client and waits until the engine answers.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	eng, err := createEngine(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.readinessTimeout > 0 {
		if err := engine.WaitForReady(context.Background(), eng, cfg.readinessTimeout); err != nil {
			_ = eng.Close()
			return nil, fmt.Errorf("esmodel: engine not ready: %w", err)
		}
	}

	return wireClient(eng, cfg)
}

func createEngine(cfg *clientConfig) (engine.Engine, error) {
	switch cfg.driver {
	case driverElasticsearch:
		if len(cfg.addrs) == 0 {
			return nil, errors.New("esmodel: elasticsearch address required")
		}
		c, err := elastic.New(elastic.Config{
			Addrs:      cfg.addrs,
			Username:   cfg.username,
			Password:   cfg.password,
			MaxRetries: cfg.maxRetries,
			Refresh:    cfg.refresh,
			Transport:  cfg.transport,
		})
		if err != nil {
			return nil, fmt.Errorf("esmodel: create elasticsearch client: %w", err)
		}
		return c, nil
	case driverEmbedded:
		return embedded.New(), nil
	case "":
		return nil, errors.New("esmodel: engine required (use WithElasticsearch or WithEmbedded)")
	default:
		return nil, fmt.Errorf("esmodel: unknown driver %q", cfg.driver)
	}
}

func wireClient(eng engine.Engine, cfg *clientConfig) (*Client, error) {
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		_ = eng.Close()
		return nil, err
	}
	return &Client{engine: eng, obs: obs, strictBulk: cfg.strictBulk}, nil
}

// Close releases the engine connection.
func (c *Client) Close() error {
	if c.engine == nil {
		return nil
	}
	if err := c.engine.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// Ping checks engine connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.engine.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
