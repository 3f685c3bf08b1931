package metrics

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ErlanBelekov/todo-app/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Password reset metrics

	ResetTokensIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "todo",
		Name:      "reset_tokens_issued_total",
		Help:      "Password reset tokens persisted for a user.",
	})

	ResetEmailFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "todo",
		Name:      "reset_email_failures_total",
		Help:      "Reset-link emails that the mail transport rejected.",
	})

	PasswordResetsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todo",
		Name:      "password_resets_total",
		Help:      "Reset token consumption attempts, by outcome.",
	}, []string{"outcome"})

	// Accounts

	RegistrationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "todo",
		Name:      "registrations_total",
		Help:      "Users registered.",
	})

	LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todo",
		Name:      "logins_total",
		Help:      "Login attempts, by outcome.",
	}, []string{"outcome"})

	// Tasks

	TaskOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todo",
		Name:      "task_operations_total",
		Help:      "Successful task mutations, by operation.",
	}, []string{"operation"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "todo",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todo",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		ResetTokensIssuedTotal,
		ResetEmailFailuresTotal,
		PasswordResetsTotal,
		RegistrationsTotal,
		LoginsTotal,
		TaskOperationsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

type prober interface {
	Liveness(ctx context.Context) health.HealthResult
	Readiness(ctx context.Context) health.HealthResult
}

// NewServer serves /metrics plus the liveness and readiness probes.
func NewServer(addr string, checker prober) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	status := http.StatusOK
	if result.Status != "up" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}
