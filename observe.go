package esmodel

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	bulkRejected *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "esmodel",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total model operations by type and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "esmodel",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "Model operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		bulkRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "esmodel",
			Subsystem: "sdk",
			Name:      "bulk_items_rejected_total",
			Help:      "Bulk items rejected by the engine, by index.",
		}, []string{"index"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.bulkRejected); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("esmodel: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("esmodel: register metric: %w", err)
	}
	return nil
}

// observer provides logging and metrics for model operations.
type observer struct {
	logger  *zap.Logger
	metrics *sdkMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(op, index string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger != nil {
		if err != nil {
			o.logger.Warn("operation failed",
				zap.String("op", op),
				zap.String("index", index),
				zap.Duration("duration", dur),
				zap.Error(err),
			)
		} else {
			o.logger.Debug("operation completed",
				zap.String("op", op),
				zap.String("index", index),
				zap.Duration("duration", dur),
			)
		}
	}
}

// bulkRejected records items the engine refused in a lenient bulk load.
func (o *observer) bulkRejected(index string, failures []BulkFailure) {
	if o == nil || len(failures) == 0 {
		return
	}
	if o.metrics != nil {
		o.metrics.bulkRejected.WithLabelValues(index).Add(float64(len(failures)))
	}
	if o.logger != nil {
		first := failures[0]
		o.logger.Warn("bulk items rejected",
			zap.String("index", index),
			zap.Int("rejected", len(failures)),
			zap.Int("first_position", first.Position),
			zap.String("first_id", first.ID),
			zap.Int("first_status", first.Status),
			zap.String("first_reason", first.Reason),
		)
	}
}
