package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
	otpIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "otp_issued_total", Help: "One-time codes issued"},
		[]string{"purpose"},
	)
	ordersPlacedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "orders_placed_total", Help: "Checkouts persisted"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, otpIssuedTotal, ordersPlacedTotal)
}

// Middleware records request count and latency labelled by route pattern.
// Handler errors are rendered through the app ErrorHandler here so the
// recorded status is the one the client receives.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		// fiber reuses its request buffers; label values outlive the request
		method := utils.CopyString(c.Method())
		route := utils.CopyString(c.Route().Path)
		if route == "" {
			route = utils.CopyString(c.Path())
		}
		status := strconv.Itoa(c.Response().StatusCode())

		httpRequestsTotal.WithLabelValues(method, route, status).Inc()
		httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return nil
	}
}

// Handler exposes the default registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func OTPIssued(purpose string) {
	otpIssuedTotal.WithLabelValues(purpose).Inc()
}

func OrdersPlaced() {
	ordersPlacedTotal.Inc()
}
