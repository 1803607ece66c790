package sla

import "github.com/prometheus/client_golang/prometheus"

var evaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "sla_evaluations_total",
	Help: "SLA evaluations by resulting status",
}, []string{"status"})

var breachedOpen = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "sla_breached_open_tickets",
	Help: "Open tickets currently past their SLA due date",
})

func init() { prometheus.MustRegister(evaluations, breachedOpen) }

// SetBreachedOpen records the breached-ticket count observed by the scan
// worker.
func SetBreachedOpen(n int) { breachedOpen.Set(float64(n)) }
