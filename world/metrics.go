package world

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// meterWindow is the rolling-average sample window used for each
// of the three Timing callbacks.
const meterWindow = 60

// perfMeter is a fixed-window rolling average of callback durations, used
// by Timing to report remesh/render/update cost without unbounded memory
// growth. It is plain, allocation-free after construction: samples are a
// ring buffer of durations.
type perfMeter struct {
	samples [meterWindow]time.Duration
	count   int
	cursor  int
	sum     time.Duration
}

func (m *perfMeter) record(d time.Duration) {
	if m.count == meterWindow {
		m.sum -= m.samples[m.cursor]
	} else {
		m.count++
	}
	m.samples[m.cursor] = d
	m.sum += d
	m.cursor = (m.cursor + 1) % meterWindow
}

func (m *perfMeter) average() time.Duration {
	if m.count == 0 {
		return 0
	}
	return m.sum / time.Duration(m.count)
}

// metrics bundles the in-process Prometheus collectors the World and
// Timing harness publish to. Nothing here exposes an HTTP endpoint; the
// embedding application is responsible for registering and scraping
// metrics.Registry if it wants them exported at all.
type metrics struct {
	Registry *prometheus.Registry

	callbackDuration *prometheus.HistogramVec
	chunksLoaded     prometheus.Counter
	chunksMeshed     prometheus.Counter
	tilesMeshed      prometheus.Counter
	loadedChunks     prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	m := &metrics{
		Registry: reg,
		callbackDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voxelworld",
			Name:      "callback_duration_seconds",
			Help:      "Duration of the remesh, render and update callbacks.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"callback"}),
		chunksLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelworld",
			Name:      "chunks_loaded_total",
			Help:      "Chunks admitted by Recenter.",
		}),
		chunksMeshed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelworld",
			Name:      "chunks_meshed_total",
			Help:      "Chunks remeshed.",
		}),
		tilesMeshed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelworld",
			Name:      "frontier_tiles_meshed_total",
			Help:      "Frontier tiles newly meshed.",
		}),
		loadedChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelworld",
			Name:      "loaded_chunks",
			Help:      "Chunks currently resident in the chunk circle.",
		}),
	}
	reg.MustRegister(m.callbackDuration, m.chunksLoaded, m.chunksMeshed, m.tilesMeshed, m.loadedChunks)
	return m
}
