package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "julia_renderer"

	PoolSubsystem   = "pool"
	RenderSubsystem = "render"
	CacheSubsystem  = "export_cache"

	PlacementSlot  = "slot"
	PlacementQueue = "queue"

	OutcomeSuccess = "success"
	OutcomePanic   = "panic"

	KindNew     = "new"
	KindRewind  = "rewind"
	KindAdvance = "advance"
	KindCached  = "cached"

	LookupHit  = "hit"
	LookupMiss = "miss"
)

var (
	// BandBuckets cover bands from a millisecond to a couple of minutes.
	BandBuckets = []float64{
		0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
	}

	// Registry holds every collector of this process. It is what the metrics endpoint serves.
	Registry = prometheus.NewRegistry()
)

var (
	poolSlots = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: PoolSubsystem,
			Name:      "slots",
			Help:      "Number of executor slots created by the work pool.",
		},
	)

	poolActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: PoolSubsystem,
			Name:      "active",
			Help:      "Number of executors currently working on a band.",
		},
	)

	poolQueued = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: PoolSubsystem,
			Name:      "queued",
			Help:      "Number of work units waiting for a free executor.",
		},
	)

	dispatchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: PoolSubsystem,
			Name:      "dispatched_total",
			Help:      "Counter of work units accepted by the pool, by where they were placed.",
		},
		[]string{"placement"},
	)

	executionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: PoolSubsystem,
			Name:      "executions_total",
			Help:      "Counter of executor runs, by outcome.",
		},
		[]string{"outcome"},
	)

	bandDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: PoolSubsystem,
			Name:      "band_duration_seconds",
			Help:      "Time an executor spent computing one band.",
			Buckets:   BandBuckets,
		},
	)

	renderCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: RenderSubsystem,
			Name:      "started_total",
			Help:      "Counter of renders started, by how they were requested.",
		},
		[]string{"kind"},
	)

	renderBands = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: RenderSubsystem,
			Name:      "bands_total",
			Help:      "Counter of bands produced by the partitioner.",
		},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: CacheSubsystem,
			Name:      "lookups_total",
			Help:      "Counter of exported image cache lookups, by result.",
		},
		[]string{"result"},
	)
)

var registerMetrics sync.Once

// Register all metrics with Registry. Extra collectors are registered alongside them.
func Register(customCollectors ...prometheus.Collector) {
	registerMetrics.Do(func() {
		Registry.MustRegister(poolSlots)
		Registry.MustRegister(poolActive)
		Registry.MustRegister(poolQueued)
		Registry.MustRegister(dispatchCounter)
		Registry.MustRegister(executionCounter)
		Registry.MustRegister(bandDuration)
		Registry.MustRegister(renderCounter)
		Registry.MustRegister(renderBands)
		Registry.MustRegister(cacheLookups)

		for _, collector := range customCollectors {
			Registry.MustRegister(collector)
		}
	})
}

// RecordPoolState records the size of the pool after a change.
func RecordPoolState(slots int, active int, queued int) {
	poolSlots.Set(float64(slots))
	poolActive.Set(float64(active))
	poolQueued.Set(float64(queued))
}

// RecordDispatch records where an accepted work unit was placed.
func RecordDispatch(placement string) {
	dispatchCounter.WithLabelValues(placement).Inc()
}

// RecordExecution records the outcome of one executor run and, for successful runs, its duration.
func RecordExecution(outcome string, elapsed time.Duration) {
	executionCounter.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		bandDuration.Observe(elapsed.Seconds())
	}
}

func RecordRender(kind string, bands int) {
	renderCounter.WithLabelValues(kind).Inc()
	renderBands.Add(float64(bands))
}

func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues(LookupHit).Inc()
		return
	}
	cacheLookups.WithLabelValues(LookupMiss).Inc()
}
