package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Requests         *prometheus.CounterVec
	LatencyMS        *prometheus.HistogramVec
	CheckoutSessions *prometheus.CounterVec
	Reconciliations  *prometheus.CounterVec
	CartAdds         *prometheus.CounterVec
}

func New() *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "sessions_total",
		Help:      "Checkout session creation attempts by result.",
	}, []string{"result"})
	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "reconciliations_total",
		Help:      "Checkout reconciliation attempts by outcome.",
	}, []string{"outcome"})
	cartAdds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "cart",
		Name:      "adds_total",
		Help:      "Add-to-cart calls by outcome.",
	}, []string{"outcome"})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		requests, latency, checkouts, reconciliations, cartAdds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:         reg,
		Requests:         requests,
		LatencyMS:        latency,
		CheckoutSessions: checkouts,
		Reconciliations:  reconciliations,
		CartAdds:         cartAdds,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The Observe helpers accept a nil receiver so services can run without metrics.

func (m *Metrics) ObserveCheckout(result string) {
	if m == nil {
		return
	}
	m.CheckoutSessions.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveReconcile(outcome string) {
	if m == nil {
		return
	}
	m.Reconciliations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCartAdd(outcome string) {
	if m == nil {
		return
	}
	m.CartAdds.WithLabelValues(outcome).Inc()
}

// Middleware records request counts and latency labelled by route template.
func (m *Metrics) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			route := "unmatched"
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			m.Requests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
