// Package metrics holds the Prometheus collectors of the auth service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	OAuthParametersIssued *prometheus.CounterVec
	// OAuthExchanges is labelled by provider and by the terminal state of the
	// flow: exchanged, expired (unknown or expired state), failed.
	OAuthExchanges *prometheus.CounterVec
	PasswordResets *prometheus.CounterVec
	Logins         *prometheus.CounterVec

	ExpiredStatesPurged prometheus.Counter
}

// NewMetrics creates and registers all metrics on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		OAuthParametersIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_oauth_parameters_issued_total",
				Help: "OAuth state and PKCE challenges handed out",
			},
			[]string{"provider"},
		),
		OAuthExchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_oauth_exchanges_total",
				Help: "OAuth callbacks by provider and result",
			},
			[]string{"provider", "result"},
		),
		PasswordResets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_password_resets_total",
				Help: "Password reset requests and submissions by outcome",
			},
			[]string{"stage", "outcome"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		ExpiredStatesPurged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_oauth_expired_states_purged_total",
				Help: "Expired OAuth states removed by the reaper",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OAuthParametersIssued,
		m.OAuthExchanges,
		m.PasswordResets,
		m.Logins,
		m.ExpiredStatesPurged,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HTTPMetricsMiddleware instruments requests, labelled by chi route pattern.
func HTTPMetricsMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
