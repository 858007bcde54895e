package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthEvents counts auth outcomes by event (register, login, logout) and result.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_auth_events_total",
		Help: "Authentication events by type and result",
	}, []string{"event", "result"})

	// PostMutations counts post writes by operation.
	PostMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_post_mutations_total",
		Help: "Post create/update/delete operations",
	}, []string{"operation"})

	// StoredImageBytes tracks bytes written to the upload directory.
	StoredImageBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postboard_stored_image_bytes_total",
		Help: "Total bytes of post images written to storage",
	})

	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_redis_errors_total",
		Help: "Redis command errors",
	}, []string{"command"})
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide Fiber Prometheus collector. The
// collector registers with the default registry, so it is built once.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware records request metrics with the given collector.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}
