package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	AuthRequestsTotal     metric.Int64Counter
	AuthDurationSeconds   metric.Float64Histogram
	ResumeOperationsTotal metric.Int64Counter
	PaymentSessionsTotal  metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// New creates the instruments on meter.
func New(meter metric.Meter) (*AppMetrics, error) {
	var err error
	m := &AppMetrics{}

	m.AuthRequestsTotal, err = meter.Int64Counter(
		"auth_requests_total",
		metric.WithDescription("Total number of authentication requests completed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: auth_requests_total: %w", err)
	}

	m.AuthDurationSeconds, err = meter.Float64Histogram(
		"auth_duration_seconds",
		metric.WithDescription("Duration of authentication requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: auth_duration_seconds: %w", err)
	}

	m.ResumeOperationsTotal, err = meter.Int64Counter(
		"resume_operations_total",
		metric.WithDescription("Total number of resume store operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: resume_operations_total: %w", err)
	}

	m.PaymentSessionsTotal, err = meter.Int64Counter(
		"payment_sessions_total",
		metric.WithDescription("Total number of payment sessions or orders requested"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: payment_sessions_total: %w", err)
	}

	return m, nil
}

// InitAppMetrics initializes the global instruments once, from the globally
// configured MeterProvider.
func InitAppMetrics() (*AppMetrics, error) {
	var err error
	once.Do(func() {
		appMetrics, err = New(otel.GetMeterProvider().Meter("cv-builder-api"))
	})
	return appMetrics, err
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// RecordAuth records one authentication operation and its latency.
func (m *AppMetrics) RecordAuth(ctx context.Context, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome(err)),
	)
	m.AuthRequestsTotal.Add(ctx, 1, attrs)
	m.AuthDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
}

// RecordResume records one resume store operation.
func (m *AppMetrics) RecordResume(ctx context.Context, operation string, err error) {
	if m == nil {
		return
	}
	m.ResumeOperationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome(err)),
	))
}

// RecordPayment records one payment session or order request.
func (m *AppMetrics) RecordPayment(ctx context.Context, provider string, err error) {
	if m == nil {
		return
	}
	m.PaymentSessionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome(err)),
	))
}
