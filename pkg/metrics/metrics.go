package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idle_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idle_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ClicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idle_clicks_total",
			Help: "Total number of shape clicks applied",
		},
	)

	PurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idle_purchases_total",
			Help: "Total number of building and upgrade purchases",
		},
		[]string{"kind", "id", "outcome"},
	)

	PrestigesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idle_prestiges_total",
			Help: "Total number of confirmed prestiges",
		},
	)

	AchievementsUnlockedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idle_achievements_unlocked_total",
			Help: "Total number of achievement unlocks",
		},
		[]string{"achievement"},
	)

	SavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idle_saves_total",
			Help: "Total number of save attempts",
		},
		[]string{"kind", "status"},
	)

	OfflineProgressSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "idle_offline_progress_seconds",
			Help:    "Offline time credited at load, in seconds",
			Buckets: []float64{60, 300, 1800, 3600, 14400, 43200, 86400, 259200},
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "idle_active_sessions",
			Help: "Number of live game sessions",
		},
	)

	KVOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idle_kv_operations_total",
			Help: "Total number of key-value store operations",
		},
		[]string{"operation", "status"},
	)

	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idle_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"query_type", "table"},
	)

	ServiceUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "idle_service_uptime_seconds",
			Help: "Time since the game service started in seconds",
		},
	)

	ServiceInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "idle_service_info",
			Help: "Game service build information",
		},
		[]string{"version", "build_time"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordPurchase(kind, id, outcome string) {
	PurchasesTotal.WithLabelValues(kind, id, outcome).Inc()
}

func RecordAchievement(id string) {
	AchievementsUnlockedTotal.WithLabelValues(id).Inc()
}

func RecordSave(kind, status string) {
	SavesTotal.WithLabelValues(kind, status).Inc()
}

func RecordKVOperation(operation, status string) {
	KVOperationsTotal.WithLabelValues(operation, status).Inc()
}

func RecordDBQuery(queryType, table string) {
	DBQueriesTotal.WithLabelValues(queryType, table).Inc()
}
