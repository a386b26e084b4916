// SPDX-License-Identifier: Apache-2.0

// Package exporter serves device state and pipeline health as
// Prometheus metrics. Scrapes read store snapshots only and never
// touch bus I/O.
package exporter

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics carries the per-listener counters the ingestion
// pipeline increments. All metrics are labeled by listener name.
type PipelineMetrics struct {
	Frames       *prometheus.CounterVec
	Desyncs      *prometheus.CounterVec
	Reconnects   *prometheus.CounterVec
	CRCErrors    *prometheus.CounterVec
	Malformed    *prometheus.CounterVec
	Synchronized *prometheus.GaugeVec
}

// NewPipelineMetrics creates and registers the pipeline metrics
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finitude_frames",
			Help: "number of frames received",
		}, []string{"name"}),
		Desyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finitude_desyncs",
			Help: "number of desynchronizations",
		}, []string{"name"}),
		Reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finitude_reconnects",
			Help: "number of stream reconnects",
		}, []string{"name"}),
		CRCErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finitude_crc_errors",
			Help: "number of frame candidates rejected by checksum",
		}, []string{"name"}),
		Malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finitude_malformed_frames",
			Help: "number of frames dropped for malformed payloads",
		}, []string{"name"}),
		Synchronized: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "finitude_synchronized",
			Help: "1 if reader is synchronized to bus",
		}, []string{"name"}),
	}
	reg.MustRegister(m.Frames, m.Desyncs, m.Reconnects, m.CRCErrors,
		m.Malformed, m.Synchronized)
	return m
}
