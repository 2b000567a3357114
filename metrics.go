package podrm

import (
	"time"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess    = "success"
	statusNotFound   = "not_found"
	statusForeignKey = "foreign_key"
	statusError      = "error"
)

type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		operations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "podrm_operations_total",
			Help: "Total number of entity operations by outcome.",
		}, []string{"entity", "operation", "status"}),
		duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "podrm_operation_duration_seconds",
			Help:    "Time spent executing entity operations.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"operation"}),
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return statusSuccess
	case errors.Is(err, ErrNotFound):
		return statusNotFound
	case errors.Is(err, ErrForeignKeyViolation):
		return statusForeignKey
	default:
		return statusError
	}
}

// record logs and counts one finished operation.
func (c *Connection) record(entity, operation string, start time.Time, status string) {
	elapsed := time.Since(start)

	level.Debug(c.logger).Log("msg", "operation finished", "entity", entity, "operation", operation, "status", status, "duration", elapsed)

	if c.metrics == nil {
		return
	}
	c.metrics.operations.WithLabelValues(entity, operation, status).Inc()
	c.metrics.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
