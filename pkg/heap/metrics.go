package heap

import "github.com/prometheus/client_golang/prometheus"

// metricsSet publishes collector state on a private registry (never
// the global default) so an embedding process can mount it under
// whatever path its own metrics server already uses.
type metricsSet struct {
	registry *prometheus.Registry

	collections     *prometheus.CounterVec
	nodesInUse      prometheus.Gauge
	nSize           prometheus.Gauge
	vSize           prometheus.Gauge
	smallVallocSize prometheus.Gauge
	largeVallocSize prometheus.Gauge
	generationSize  *prometheus.GaugeVec
	vcellsInUse     prometheus.Histogram
	finalizersRun   prometheus.Counter
	pagesReleased   prometheus.Counter
}

func newMetricsSet() *metricsSet {
	reg := prometheus.NewRegistry()

	m := &metricsSet{
		registry: reg,
		collections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "purplegc",
			Name:      "collections_total",
			Help:      "Collections run, by level.",
		}, []string{"level"}),
		nodesInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "purplegc",
			Name:      "nodes_in_use",
			Help:      "Live small-class nodes after the most recent collection.",
		}),
		nSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "purplegc", Name: "n_size", Help: "Current node-count soft ceiling.",
		}),
		vSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "purplegc", Name: "v_size", Help: "Current vector-cell soft ceiling.",
		}),
		smallVallocSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "purplegc", Name: "small_valloc_cells", Help: "Cells held by small-class vectors.",
		}),
		largeVallocSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "purplegc", Name: "large_valloc_cells", Help: "Cells held by large vectors.",
		}),
		generationSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "purplegc", Name: "generation_nodes", Help: "Node occupancy per generation after the last collection.",
		}, []string{"generation"}),
		vcellsInUse: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "purplegc",
			Name:      "vcells_in_use",
			Help:      "Vector cells in use immediately after each collection.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		finalizersRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "purplegc", Name: "finalizers_run_total", Help: "Finalizers invoked.",
		}),
		pagesReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "purplegc", Name: "pages_released_total", Help: "Slab pages returned to the allocator.",
		}),
	}

	reg.MustRegister(m.collections, m.nodesInUse, m.nSize, m.vSize, m.smallVallocSize,
		m.largeVallocSize, m.generationSize, m.vcellsInUse, m.finalizersRun, m.pagesReleased)
	return m
}

// Registry exposes the private registry for an embedder to serve
// (e.g. via promhttp.HandlerFor) alongside its own metrics.
func (h *Heap) Registry() *prometheus.Registry { return h.metrics.registry }

func (m *metricsSet) observeCollection(level int, counts genCounts, nodesInUse, vcells int) {
	m.collections.WithLabelValues(levelLabel(level)).Inc()
	m.nodesInUse.Set(float64(nodesInUse))
	for g := 0; g <= NumOldGenerations; g++ {
		m.generationSize.WithLabelValues(levelLabel(g)).Set(float64(counts[g]))
	}
	m.vcellsInUse.Observe(float64(vcells))
}

func levelLabel(level int) string {
	switch level {
	case 0:
		return "0"
	case 1:
		return "1"
	case 2:
		return "2"
	default:
		return "n"
	}
}
