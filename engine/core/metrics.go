package core

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const AVG_COUNT uint8 = 30

var (
	splitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meshpart_splits_total",
		Help: "Number of range splits performed, by splitter.",
	}, []string{"splitter"})

	fallbackSplitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meshpart_fallback_splits_total",
		Help: "Number of splits that fell back to a middle split, by splitter.",
	}, []string{"splitter"})

	leafTriangles = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meshpart_leaf_triangles",
		Help:    "Triangle count of the leaves produced by tree builds.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	buildSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "meshpart_build_seconds",
		Help: "Duration of tree and batch builds.",
	}, []string{"kind"})
)

// MetricsState keeps a rolling average over the last AVG_COUNT builds.
type MetricsState struct {
	BuildAVGCounter uint8
	MStimes         [AVG_COUNT]float64
	MSavg           float64
	Builds          int64
}

var onceMetrics sync.Once
var metricsMutex sync.Mutex
var metricsState *MetricsState = nil

func MetricsInitialize() error {
	onceMetrics.Do(func() {
		metricsState = &MetricsState{
			MStimes: [AVG_COUNT]float64{0},
		}
	})
	return nil
}

// MetricsRecordSplit counts a split performed by the named splitter.
func MetricsRecordSplit(splitter string, fallback bool) {
	splitsTotal.WithLabelValues(splitter).Inc()
	if fallback {
		fallbackSplitsTotal.WithLabelValues(splitter).Inc()
	}
}

// MetricsRecordLeaf observes the size of a finished leaf.
func MetricsRecordLeaf(triangles uint32) {
	leafTriangles.Observe(float64(triangles))
}

// MetricsRecordBuild observes a build duration of the given kind ("tree" or "batch")
// and folds it into the rolling average.
func MetricsRecordBuild(kind string, elapsed time.Duration) {
	buildSeconds.WithLabelValues(kind).Observe(elapsed.Seconds())

	if err := MetricsInitialize(); err != nil {
		return
	}
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	buildMS := float64(elapsed) / float64(time.Millisecond)
	metricsState.MStimes[metricsState.BuildAVGCounter] = buildMS
	if metricsState.BuildAVGCounter == AVG_COUNT-1 {
		sum := 0.0
		for i := uint8(0); i < AVG_COUNT; i++ {
			sum += metricsState.MStimes[i]
		}
		metricsState.MSavg = sum / float64(AVG_COUNT)
	}
	metricsState.BuildAVGCounter++
	metricsState.BuildAVGCounter %= AVG_COUNT
	metricsState.Builds++
}

// MetricsBuildTime returns the average build time in milliseconds over the last
// full window of AVG_COUNT builds. Zero until the first window completes.
func MetricsBuildTime() float64 {
	if err := MetricsInitialize(); err != nil {
		return 0
	}
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	return metricsState.MSavg
}

// MetricsBuilds returns the number of builds recorded since start.
func MetricsBuilds() int64 {
	if err := MetricsInitialize(); err != nil {
		return 0
	}
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	return metricsState.Builds
}
