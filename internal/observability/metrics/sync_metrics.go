package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics tracks the scheduled rent back-fill sweep via the prometheus
// registry scraped at /metrics.
type SyncMetrics struct {
	runs           *prometheus.CounterVec
	duration       prometheus.Histogram
	roomsProcessed prometheus.Counter
	entriesCreated prometheus.Counter
	roomErrors     prometheus.Counter
}

func NewSyncMetrics() (*SyncMetrics, error) {
	m := &SyncMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentledger_sync_runs_total",
			Help: "Rent sync sweep runs by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentledger_sync_duration_seconds",
			Help:    "Wall time of a full rent sync sweep.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		roomsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_sync_rooms_processed_total",
			Help: "Rooms examined by the rent sync sweep.",
		}),
		entriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_sync_entries_created_total",
			Help: "Rent entries created by the sync sweep.",
		}),
		roomErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_sync_room_errors_total",
			Help: "Rooms the sync sweep failed to process.",
		}),
	}

	for _, c := range []prometheus.Collector{m.runs, m.duration, m.roomsProcessed, m.entriesCreated, m.roomErrors} {
		if err := prometheus.Register(c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				_ = are
				continue
			}
			return nil, err
		}
	}
	return m, nil
}

func (m *SyncMetrics) ObserveRun(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *SyncMetrics) AddRoomsProcessed(n int) {
	if m == nil {
		return
	}
	m.roomsProcessed.Add(float64(n))
}

func (m *SyncMetrics) AddEntriesCreated(n int) {
	if m == nil {
		return
	}
	m.entriesCreated.Add(float64(n))
}

func (m *SyncMetrics) AddRoomErrors(n int) {
	if m == nil {
		return
	}
	m.roomErrors.Add(float64(n))
}
