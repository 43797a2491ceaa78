package runtime

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HubMetrics tracks instrumentation hub statistics.
type HubMetrics struct {
	mu sync.RWMutex

	// Internal counters mirrored into the Prometheus collectors
	notificationsByType map[string]uint64
	batchesPosted       uint64
	suppressed          uint64
	snapshots           uint64
	decksPaused         int64

	notificationsTotal *prometheus.CounterVec
	batchesTotal       prometheus.Counter
	batchSizeHist      prometheus.Histogram
	suppressedTotal    prometheus.Counter
	decksPausedGauge   prometheus.Gauge
	snapshotsTotal     prometheus.Counter

	registerer prometheus.Registerer
	registered bool
}

// HubMetricsSnapshot provides a point-in-time view of hub metrics.
type HubMetricsSnapshot struct {
	NotificationsByType map[string]uint64 `json:"notifications_by_type"`
	BatchesPosted       uint64            `json:"batches_posted"`
	Suppressed          uint64            `json:"suppressed"`
	Snapshots           uint64            `json:"snapshots"`
	DecksPaused         int64             `json:"decks_paused"`
	CollectedAt         time.Time         `json:"collected_at"`
}

// NewHubMetrics creates a new hub metrics collector.
func NewHubMetrics(registerer prometheus.Registerer) *HubMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &HubMetrics{
		notificationsByType: make(map[string]uint64),
		registerer:          registerer,
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rxspy",
				Subsystem: "hub",
				Name:      "notifications_total",
				Help:      "Total number of lifecycle notifications processed",
			},
			[]string{"type"},
		),
		batchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rxspy",
			Subsystem: "hub",
			Name:      "batches_posted_total",
			Help:      "Total number of batches posted to the connection",
		}),
		batchSizeHist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rxspy",
			Subsystem: "hub",
			Name:      "batch_size",
			Help:      "Number of messages per posted batch",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 150, 250},
		}),
		suppressedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rxspy",
			Subsystem: "hub",
			Name:      "notifications_suppressed_total",
			Help:      "Total number of notification broadcasts suppressed by the overload policy",
		}),
		decksPausedGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rxspy",
			Subsystem: "hub",
			Name:      "decks_paused",
			Help:      "Number of decks currently paused",
		}),
		snapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rxspy",
			Subsystem: "hub",
			Name:      "snapshots_total",
			Help:      "Total number of snapshots built",
		}),
	}
}

// Register registers the Prometheus collectors. Safe to call multiple times.
func (m *HubMetrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.notificationsTotal,
		m.batchesTotal,
		m.batchSizeHist,
		m.suppressedTotal,
		m.decksPausedGauge,
		m.snapshotsTotal,
	}

	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

// RecordNotification records one processed lifecycle notification.
func (m *HubMetrics) RecordNotification(notificationType string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notificationsByType[notificationType]++
	m.notificationsTotal.WithLabelValues(notificationType).Inc()
}

// RecordBatchPosted records one batch posted to the connection.
func (m *HubMetrics) RecordBatchPosted(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batchesPosted++
	m.batchesTotal.Inc()
	m.batchSizeHist.Observe(float64(size))
}

// RecordSuppressed records one notification dropped by the overload policy.
func (m *HubMetrics) RecordSuppressed() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.suppressed++
	m.suppressedTotal.Inc()
}

// RecordSnapshot records one snapshot build.
func (m *HubMetrics) RecordSnapshot() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots++
	m.snapshotsTotal.Inc()
}

// SetDecksPaused updates the paused-deck gauge.
func (m *HubMetrics) SetDecksPaused(count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.decksPaused = count
	m.decksPausedGauge.Set(float64(count))
}

// GetSnapshot returns a point-in-time snapshot of all hub metrics.
func (m *HubMetrics) GetSnapshot() HubMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byType := make(map[string]uint64, len(m.notificationsByType))
	for t, count := range m.notificationsByType {
		byType[t] = count
	}

	return HubMetricsSnapshot{
		NotificationsByType: byType,
		BatchesPosted:       m.batchesPosted,
		Suppressed:          m.suppressed,
		Snapshots:           m.snapshots,
		DecksPaused:         m.decksPaused,
		CollectedAt:         time.Now(),
	}
}

// Reset resets all metrics (useful for testing).
func (m *HubMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notificationsByType = make(map[string]uint64)
	m.batchesPosted = 0
	m.suppressed = 0
	m.snapshots = 0
	m.decksPaused = 0
	m.notificationsTotal.Reset()
	m.decksPausedGauge.Set(0)
}
