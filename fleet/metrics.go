// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the supervisor's Prometheus instruments. All methods
// are safe for concurrent use by monitor goroutines.
type Metrics struct {
	nodes          *prometheus.GaugeVec
	launches       *prometheus.CounterVec
	launchFailures prometheus.Counter
	deaths         *prometheus.CounterVec
	replacements   prometheus.Counter
	healthChecks   *prometheus.CounterVec
	stopFailures   prometheus.Counter
}

// NewMetrics builds the instrument set and registers it with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		nodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "c3fleet_nodes",
			Help: "Tracked nodes by lifecycle status.",
		}, []string{"status"}),
		launches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "c3fleet_launches_total",
			Help: "Successful workload launches by node type.",
		}, []string{"type"}),
		launchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "c3fleet_launch_failures_total",
			Help: "Launch attempts rejected by the provider.",
		}),
		deaths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "c3fleet_deaths_total",
			Help: "Nodes declared dead by cause.",
		}, []string{"reason"}),
		replacements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "c3fleet_replacements_total",
			Help: "Replacement launches after a node death.",
		}),
		healthChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "c3fleet_health_checks_total",
			Help: "Health check probes by result.",
		}, []string{"result"}),
		stopFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "c3fleet_stop_failures_total",
			Help: "Stop calls rejected by the provider.",
		}),
	}
	reg.MustRegister(
		m.nodes,
		m.launches,
		m.launchFailures,
		m.deaths,
		m.replacements,
		m.healthChecks,
		m.stopFailures,
	)
	return m
}

// NodeLaunched records a successful launch of the given type.
func (m *Metrics) NodeLaunched(t NodeType) {
	m.launches.WithLabelValues(string(t)).Inc()
}

// LaunchFailed records a launch attempt the provider rejected.
func (m *Metrics) LaunchFailed() {
	m.launchFailures.Inc()
}

// NodeDied records a node death with its cause.
func (m *Metrics) NodeDied(reason string) {
	m.deaths.WithLabelValues(reason).Inc()
}

// NodeReplaced records a replacement launch.
func (m *Metrics) NodeReplaced() {
	m.replacements.Inc()
}

// HealthCheck records one probe result.
func (m *Metrics) HealthCheck(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	m.healthChecks.WithLabelValues(result).Inc()
}

// StopFailed records a stop call the provider rejected.
func (m *Metrics) StopFailed() {
	m.stopFailures.Inc()
}

// SetNodeCounts resets the per-status node gauge to the given counts.
// Absent statuses must be present in the map with a zero value or
// their series go stale; Registry.StatusCounts guarantees that.
func (m *Metrics) SetNodeCounts(counts map[NodeStatus]int) {
	for status, n := range counts {
		m.nodes.WithLabelValues(string(status)).Set(float64(n))
	}
}
