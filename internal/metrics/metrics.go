// Package metrics exposes simulation counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/holdfast/internal/stronghold"
)

// Recorder owns a registry and the simulation's collectors. A nil *Recorder
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	days          prometheus.Counter
	constructions prometheus.Counter
	departures    prometheus.Counter
	threats       *prometheus.CounterVec
	missions      *prometheus.CounterVec
	successions   *prometheus.CounterVec
	treasury      *prometheus.GaugeVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		days: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "holdfast_days_total",
			Help: "Simulated days processed.",
		}),
		constructions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "holdfast_constructions_total",
			Help: "Upgrades finished.",
		}),
		departures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "holdfast_staff_departures_total",
			Help: "Staff who quit over unpaid wages.",
		}),
		threats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "holdfast_threats_total",
			Help: "Threats by outcome.",
		}, []string{"outcome"}),
		missions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "holdfast_missions_total",
			Help: "Missions by outcome.",
		}, []string{"outcome"}),
		successions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "holdfast_successions_total",
			Help: "Successions by kind.",
		}, []string{"kind"}),
		treasury: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "holdfast_treasury_gold",
			Help: "Gold held by each stronghold.",
		}, []string{"stronghold"}),
	}
	r.registry.MustRegister(r.days, r.constructions, r.departures,
		r.threats, r.missions, r.successions, r.treasury)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveDay records one day of upkeep results and the resulting treasuries.
func (r *Recorder) ObserveDay(sums []stronghold.DailySummary, holds map[string]stronghold.Stronghold) {
	if r == nil {
		return
	}
	r.days.Inc()
	for _, s := range sums {
		t := s.Tally
		r.constructions.Add(float64(t.ConstructionsCompleted))
		r.departures.Add(float64(t.StaffQuit))
		r.threats.WithLabelValues("spawned").Add(float64(t.ThreatsSpawned))
		r.threats.WithLabelValues("repelled").Add(float64(t.ThreatsRepelled))
		r.threats.WithLabelValues("failed").Add(float64(t.ThreatsFailed))
		r.missions.WithLabelValues("succeeded").Add(float64(t.MissionsSucceeded))
		r.missions.WithLabelValues("failed").Add(float64(t.MissionsFailed))
		r.missions.WithLabelValues("cancelled").Add(float64(t.MissionsCancelled))
	}
	r.treasury.Reset()
	for id, h := range holds {
		r.treasury.WithLabelValues(id).Set(float64(h.Resources.Gold))
	}
}

// ObserveSuccession counts a succession. kind is "death" or "retirement".
func (r *Recorder) ObserveSuccession(kind string) {
	if r == nil {
		return
	}
	r.successions.WithLabelValues(kind).Inc()
}
