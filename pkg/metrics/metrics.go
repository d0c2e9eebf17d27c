package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Sync related metrics
	SyncOperations  *prometheus.CounterVec
	SyncedRecords   prometheus.Counter
	RemoteFallbacks prometheus.Counter
	SyncLatency     prometheus.Histogram

	// Reminder related metrics
	RemindersCreated  prometheus.Counter
	RemindersDue      prometheus.Gauge
	ReminderSweepTime prometheus.Histogram

	// Storage metrics
	LocalStoreOperations *prometheus.CounterVec
	DatabaseOperations   *prometheus.CounterVec
}

// New creates and registers all application metrics
func New(namespace string) *Metrics {
	return &Metrics{
		SyncOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_operations_total",
			Help:      "Total number of sync operations by kind and status",
		}, []string{"operation", "status"}),
		SyncedRecords: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synced_records_total",
			Help:      "Total number of records pushed to the remote store",
		}),
		RemoteFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_fallbacks_total",
			Help:      "Times a remote failure degraded to local data",
		}),
		SyncLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Time spent pushing a snapshot to the remote store",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		RemindersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_created_total",
			Help:      "Total number of post-meal reminders created",
		}),
		RemindersDue: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reminders_due",
			Help:      "Reminders currently due and awaiting resolution",
		}),
		ReminderSweepTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_sweep_duration_seconds",
			Help:      "Time spent on a reminder poll sweep",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		}),
		LocalStoreOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "local_store_operations_total",
			Help:      "Total number of local store operations",
		}, []string{"operation", "status"}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}
