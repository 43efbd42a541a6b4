package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	employeesCreated    metric.Int64Counter
	employeesUpdated    metric.Int64Counter
	employeesDeleted    metric.Int64Counter
	employeesViewed     metric.Int64Counter
	employeesListViewed metric.Int64Counter
	chartDataViewed     metric.Int64Counter
	seedRuns            metric.Int64Counter
	eventsPublished     metric.Int64Counter

	Database *DatabaseMetrics
	Health   *HealthMetrics
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.employeesCreated, err = meter.Int64Counter(
		"employee_service.employees.created",
		metric.WithDescription("Total number of employees created"),
		metric.WithUnit("{employee}"),
	)
	if err != nil {
		return nil, err
	}

	m.employeesUpdated, err = meter.Int64Counter(
		"employee_service.employees.updated",
		metric.WithDescription("Total number of employee updates"),
		metric.WithUnit("{employee}"),
	)
	if err != nil {
		return nil, err
	}

	m.employeesDeleted, err = meter.Int64Counter(
		"employee_service.employees.deleted",
		metric.WithDescription("Total number of employees deleted"),
		metric.WithUnit("{employee}"),
	)
	if err != nil {
		return nil, err
	}

	m.employeesViewed, err = meter.Int64Counter(
		"employee_service.employees.viewed",
		metric.WithDescription("Total number of single employee reads"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.employeesListViewed, err = meter.Int64Counter(
		"employee_service.employees.list_viewed",
		metric.WithDescription("Total number of times the employee list was viewed"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.chartDataViewed, err = meter.Int64Counter(
		"employee_service.chart_data.viewed",
		metric.WithDescription("Total number of chart data reads"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.seedRuns, err = meter.Int64Counter(
		"employee_service.seed.runs",
		metric.WithDescription("Seed runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	m.eventsPublished, err = meter.Int64Counter(
		"employee_service.events.published",
		metric.WithDescription("Employee lifecycle events published by type and outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	m.Database, err = NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	m.Health, err = NewHealthMetrics(meter)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordEmployeeCreated(ctx context.Context) {
	if m != nil && m.employeesCreated != nil {
		m.employeesCreated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordEmployeeUpdated(ctx context.Context) {
	if m != nil && m.employeesUpdated != nil {
		m.employeesUpdated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordEmployeeDeleted(ctx context.Context) {
	if m != nil && m.employeesDeleted != nil {
		m.employeesDeleted.Add(ctx, 1)
	}
}

func (m *Metrics) RecordEmployeeViewed(ctx context.Context) {
	if m != nil && m.employeesViewed != nil {
		m.employeesViewed.Add(ctx, 1)
	}
}

func (m *Metrics) RecordEmployeesListViewed(ctx context.Context) {
	if m != nil && m.employeesListViewed != nil {
		m.employeesListViewed.Add(ctx, 1)
	}
}

func (m *Metrics) RecordChartDataViewed(ctx context.Context) {
	if m != nil && m.chartDataViewed != nil {
		m.chartDataViewed.Add(ctx, 1)
	}
}

func (m *Metrics) RecordSeedRun(ctx context.Context, err error) {
	if m == nil || m.seedRuns == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.seedRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordEventPublished(ctx context.Context, eventType string, err error) {
	if m == nil || m.eventsPublished == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.eventsPublished.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", eventType),
		attribute.String("outcome", outcome),
	))
}

// DB returns the database collectors; never nil.
func (m *Metrics) DB() *DatabaseMetrics {
	if m == nil || m.Database == nil {
		return &DatabaseMetrics{}
	}
	return m.Database
}

// Dependencies returns the health collectors; nil-safe to record on.
func (m *Metrics) Dependencies() *HealthMetrics {
	if m == nil {
		return nil
	}
	return m.Health
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{Database: &DatabaseMetrics{}}
}
