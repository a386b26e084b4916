// SPDX-License-Identifier: Apache-2.0

// Package monitor runs the per-listener ingestion pipeline: open the
// stream, synchronize on frames, decode them, and apply the decoded
// state to the store. Each listener is one goroutine with no internal
// parallelism, which preserves per-device message ordering.
package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/shbatm/finitude/internal/exporter"
	"github.com/shbatm/finitude/internal/store"
	"github.com/shbatm/finitude/internal/stream"
	"github.com/shbatm/finitude/pkg/infinity"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Monitor ingests one bus listener into the shared device state
type Monitor struct {
	name    string
	url     string
	baud    int
	store   *store.Store
	metrics *exporter.PipelineMetrics
	log     *slog.Logger

	// open is stream.Open, swappable in tests
	open func(url string, baud int) (io.ReadCloser, string, error)
}

// New creates a monitor for one configured listener
func New(name, url string, baud int, st *store.Store, m *exporter.PipelineMetrics, log *slog.Logger) *Monitor {
	return &Monitor{
		name:    name,
		url:     url,
		baud:    baud,
		store:   st,
		metrics: m,
		log:     log.With("listener", name),
		open:    stream.Open,
	}
}

// Run ingests frames until ctx is canceled. Stream loss is never
// fatal: the monitor reconnects with exponential backoff and the
// exporter keeps serving the last-known state meanwhile.
func (m *Monitor) Run(ctx context.Context) {
	backoff := initialBackoff
	for {
		conn, desc, err := m.open(m.url, m.baud)
		if err != nil {
			m.log.Warn("open failed", "url", m.url, "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		m.log.Info("connected", "stream", desc)
		m.metrics.Reconnects.WithLabelValues(m.name).Inc()
		backoff = initialBackoff

		m.ingest(ctx, conn)
		m.metrics.Synchronized.WithLabelValues(m.name).Set(0)

		if ctx.Err() != nil {
			return
		}
		if !sleep(ctx, backoff) {
			return
		}
	}
}

// ingest runs the pipeline over one open stream until it fails or ctx
// is canceled
func (m *Monitor) ingest(ctx context.Context, conn io.ReadCloser) {
	// Closing the stream unblocks the synchronizer on shutdown
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		conn.Close()
	}()

	sync := infinity.NewSynchronizer(conn)
	sync.OnDesync = func() {
		m.metrics.Desyncs.WithLabelValues(m.name).Inc()
		m.metrics.Synchronized.WithLabelValues(m.name).Set(0)
	}
	sync.OnChecksumError = func() {
		m.metrics.CRCErrors.WithLabelValues(m.name).Inc()
	}
	dec := infinity.NewDecoder()

	for {
		frame, err := sync.Next()
		if err != nil {
			if ctx.Err() == nil {
				m.log.Warn("stream lost, reconnecting", "error", err)
			}
			return
		}
		m.metrics.Frames.WithLabelValues(m.name).Inc()
		m.metrics.Synchronized.WithLabelValues(m.name).Set(1)

		msg, err := dec.Decode(frame)
		if err != nil {
			m.metrics.Malformed.WithLabelValues(m.name).Inc()
			if errors.Is(err, infinity.ErrMalformedPayload) {
				m.log.Debug("dropped frame", "error", err)
				continue
			}
			m.log.Warn("decode failed", "error", err)
			continue
		}
		m.store.Apply(msg)
	}
}

// sleep waits d or until ctx is canceled, reporting whether the full
// wait elapsed
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
