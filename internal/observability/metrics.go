package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srefhub_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "srefhub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PromptParseTotal counts prompt parse requests by the method that produced the result.
	PromptParseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srefhub_prompt_parse_total",
		Help: "Prompt parse requests by extraction method",
	}, []string{"method"})

	// LLMRequestDuration records latency of LLM extraction calls by outcome.
	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "srefhub_llm_request_duration_seconds",
		Help:    "LLM parameter extraction latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	}, []string{"outcome"})

	// RelationToggles counts like, follow and collection toggles by resulting state.
	RelationToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srefhub_relation_toggles_total",
		Help: "Relation toggles by relation and resulting state",
	}, []string{"relation", "state"})

	// WebSocketConnectionsTotal is the gauge of open notification streams.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "srefhub_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// NotificationsPublished counts notification events by type.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srefhub_notifications_published_total",
		Help: "Notification events published by type",
	}, []string{"type"})
)

// RecordToggle increments the toggle counter for relation with the resulting state.
func RecordToggle(relation string, active bool) {
	state := "removed"
	if active {
		state = "added"
	}
	RelationToggles.WithLabelValues(relation, state).Inc()
}

const queryStartKey = "observability:query_start"

// DatabaseMetrics is a GORM plugin that records query latency per operation and table.
type DatabaseMetrics struct{}

// NewDatabaseMetrics returns the plugin. Register it with db.Use.
func NewDatabaseMetrics() *DatabaseMetrics {
	return &DatabaseMetrics{}
}

// Name implements gorm.Plugin.
func (*DatabaseMetrics) Name() string { return "srefhub:database_metrics" }

// Initialize implements gorm.Plugin.
func (m *DatabaseMetrics) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		operation string
		before    func(name string, fn func(*gorm.DB)) error
		after     func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("metrics:before_"+h.operation, m.start); err != nil {
			return err
		}
		if err := h.after("metrics:after_"+h.operation, m.observe(h.operation)); err != nil {
			return err
		}
	}
	return nil
}

func (*DatabaseMetrics) start(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (*DatabaseMetrics) observe(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := "unknown"
		if db.Statement != nil && db.Statement.Table != "" {
			table = db.Statement.Table
		}
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
