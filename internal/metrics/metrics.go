// Package metrics exposes Prometheus instrumentation for the autopilot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for all account loops.
type Metrics struct {
	CyclesTotal    *prometheus.CounterVec
	ErrorsTotal    *prometheus.CounterVec
	PurchasesTotal *prometheus.CounterVec
	TapsTotal      *prometheus.CounterVec
	Balance        *prometheus.GaugeVec
	EarnPerHour    *prometheus.GaugeVec
	LoopState      *prometheus.GaugeVec
}

// New registers and returns the autopilot metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autopilot_cycles_total",
				Help: "Total control loop cycles, by outcome",
			},
			[]string{"account", "status"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autopilot_errors_total",
				Help: "Total absorbed errors, by kind",
			},
			[]string{"account", "kind"},
		),
		PurchasesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autopilot_purchases_total",
				Help: "Total upgrades purchased",
			},
			[]string{"account"},
		),
		TapsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autopilot_taps_total",
				Help: "Total taps submitted",
			},
			[]string{"account"},
		),
		Balance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "autopilot_balance_coins",
				Help: "Last observed account balance",
			},
			[]string{"account"},
		),
		EarnPerHour: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "autopilot_earn_per_hour",
				Help: "Last observed passive hourly income",
			},
			[]string{"account"},
		),
		LoopState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "autopilot_loop_state",
				Help: "Control loop state (0=authenticating, 1=syncing, 2=acting, 3=cooling down, 4=aborted)",
			},
			[]string{"account"},
		),
	}

	reg.MustRegister(
		m.CyclesTotal,
		m.ErrorsTotal,
		m.PurchasesTotal,
		m.TapsTotal,
		m.Balance,
		m.EarnPerHour,
		m.LoopState,
	)
	return m
}
