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
		Name: "underground_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "underground_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// TrackPlaysRecorded counts play increments recorded on track fetches.
	TrackPlaysRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "underground_track_plays_recorded_total",
		Help: "Total number of track play increments recorded",
	})

	// TrackUploadsTotal counts successful track uploads.
	TrackUploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "underground_track_uploads_total",
		Help: "Total number of tracks uploaded",
	})

	// StreamRequestsTotal counts audio stream requests by response mode.
	StreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "underground_stream_requests_total",
		Help: "Total number of audio stream requests by mode (full or range)",
	}, []string{"mode"})

	// NotificationsEmitted counts notifications emitted by type.
	NotificationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "underground_notifications_emitted_total",
		Help: "Total number of notifications emitted by type",
	}, []string{"type"})

	// MessagesSentTotal counts direct messages sent.
	MessagesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "underground_messages_sent_total",
		Help: "Total number of direct messages sent",
	})
)

const queryStartKey = "observability:query_start"

// InstrumentGorm registers GORM callbacks that record query latency into
// DatabaseQueryLatency for every create/query/update/delete/row/raw call.
func InstrumentGorm(db *gorm.DB) error {
	start := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	finish := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			startedAt, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).
				Observe(time.Since(startedAt).Seconds())
		}
	}

	type registration struct {
		before func(name string, fn func(*gorm.DB)) error
		after  func(name string, fn func(*gorm.DB)) error
		op     string
	}
	cb := db.Callback()
	regs := []registration{
		{cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register, "create"},
		{cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register, "query"},
		{cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register, "update"},
		{cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register, "delete"},
		{cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register, "row"},
		{cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register, "raw"},
	}
	for _, r := range regs {
		if err := r.before("observability:before_"+r.op, start); err != nil {
			return err
		}
		if err := r.after("observability:after_"+r.op, finish(r.op)); err != nil {
			return err
		}
	}
	return nil
}
