// Package metrics exposes authentication outcome counters in Prometheus
// text exposition format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gophauth"

// Recorder counts signup, login, refresh and identity resolution outcomes.
// It owns its registry so several Recorders can coexist in tests.
type Recorder struct {
	registry *prometheus.Registry
	signup   *prometheus.CounterVec
	login    *prometheus.CounterVec
	refresh  *prometheus.CounterVec
	resolve  *prometheus.CounterVec
	requests *prometheus.CounterVec
}

func newOutcomeCounter(name, help string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, []string{"outcome"})
}

// NewRecorder registers all counters plus the Go and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		signup:   newOutcomeCounter("signup_total", "Signup attempts by outcome."),
		login:    newOutcomeCounter("login_total", "Password checks by outcome."),
		refresh:  newOutcomeCounter("refresh_total", "Refresh token validations by outcome."),
		resolve:  newOutcomeCounter("identity_resolve_total", "Access token resolutions by outcome."),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Handled requests by transport, method and status code.",
		}, []string{"transport", "method", "code"}),
	}

	r.registry.MustRegister(
		r.signup, r.login, r.refresh, r.resolve, r.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObserveSignup(outcome string)  { r.signup.WithLabelValues(outcome).Inc() }
func (r *Recorder) ObserveLogin(outcome string)   { r.login.WithLabelValues(outcome).Inc() }
func (r *Recorder) ObserveRefresh(outcome string) { r.refresh.WithLabelValues(outcome).Inc() }
func (r *Recorder) ObserveResolve(outcome string) { r.resolve.WithLabelValues(outcome).Inc() }

// ObserveRequest counts one finished request. code is the HTTP status or the
// gRPC code name.
func (r *Recorder) ObserveRequest(transport, method, code string) {
	r.requests.WithLabelValues(transport, method, code).Inc()
}

// Handler serves the registry for scraping.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
