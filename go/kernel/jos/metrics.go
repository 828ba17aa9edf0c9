package jos

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered on a private registry so several kernels can coexist.
type Metrics struct {
	Registry *prometheus.Registry

	Syscalls   *prometheus.CounterVec
	Errors     *prometheus.CounterVec
	PageFaults prometheus.Counter
	Switches   prometheus.Counter
	PagesInUse prometheus.Gauge
	Envs       prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Syscalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exocorn_syscalls_total",
				Help: "Syscalls dispatched, by name",
			},
			[]string{"name"},
		),
		Errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exocorn_syscall_errors_total",
				Help: "Syscalls that returned an error, by name and errno",
			},
			[]string{"name", "errno"},
		),
		PageFaults: f.NewCounter(
			prometheus.CounterOpts{
				Name: "exocorn_page_faults_total",
				Help: "User page faults taken",
			},
		),
		Switches: f.NewCounter(
			prometheus.CounterOpts{
				Name: "exocorn_context_switches_total",
				Help: "Times the scheduler ran an environment",
			},
		),
		PagesInUse: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "exocorn_pages_in_use",
				Help: "Physical pages currently allocated",
			},
		),
		Envs: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "exocorn_envs",
				Help: "Allocated environment slots",
			},
		),
	}
}
