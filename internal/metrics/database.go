package metrics

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type poolGauge struct {
	name        string
	description string
	value       func(sql.DBStats) int
}

var poolGauges = []poolGauge{
	{"db.connections.open", "Open database connections", func(s sql.DBStats) int { return s.OpenConnections }},
	{"db.connections.idle", "Idle database connections", func(s sql.DBStats) int { return s.Idle }},
	{"db.connections.in_use", "Database connections in use", func(s sql.DBStats) int { return s.InUse }},
	{"db.connections.max_open", "Maximum open database connections", func(s sql.DBStats) int { return s.MaxOpenConnections }},
}

// DatabaseMetrics times repository queries and observes the connection pool.
type DatabaseMetrics struct {
	pool          []metric.Int64ObservableGauge
	queryDuration metric.Float64Histogram
	queryErrors   metric.Int64Counter
}

func NewDatabaseMetrics(meter metric.Meter) (*DatabaseMetrics, error) {
	dm := &DatabaseMetrics{pool: make([]metric.Int64ObservableGauge, 0, len(poolGauges))}

	for _, g := range poolGauges {
		gauge, err := meter.Int64ObservableGauge(g.name,
			metric.WithDescription(g.description),
			metric.WithUnit("{connection}"),
		)
		if err != nil {
			return nil, err
		}
		dm.pool = append(dm.pool, gauge)
	}

	var err error
	dm.queryDuration, err = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Employee store query duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	dm.queryErrors, err = meter.Int64Counter(
		"db.query.errors",
		metric.WithDescription("Employee store query errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return dm, nil
}

// RegisterDB observes pool statistics of db on every collection.
func (dm *DatabaseMetrics) RegisterDB(db *sql.DB, meter metric.Meter) error {
	if dm == nil || len(dm.pool) == 0 || db == nil {
		return nil
	}

	instruments := make([]metric.Observable, len(dm.pool))
	for i, g := range dm.pool {
		instruments[i] = g
	}

	_, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := db.Stats()
		for i, g := range poolGauges {
			o.ObserveInt64(dm.pool[i], int64(g.value(stats)))
		}
		return nil
	}, instruments...)
	return err
}

// RecordQuery records one repository call; operation is select/insert/update/delete.
func (dm *DatabaseMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration, err error) {
	if dm == nil || dm.queryDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("table", table),
	)
	dm.queryDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		dm.queryErrors.Add(ctx, 1, attrs)
	}
}
