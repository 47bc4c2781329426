// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package telemetry provides metrics for the compile service.
//
// Metrics are OpenTelemetry instruments exported through the Prometheus
// bridge; scrape them from the /metrics endpoint. All instruments use the
// "meridian_" prefix.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func outcomeAttr(outcome string) attribute.KeyValue {
	return attribute.String("outcome", outcome)
}

func resultAttr(result string) attribute.KeyValue {
	return attribute.String("result", result)
}

// Metrics contains pre-defined instruments for the compile pipeline.
//
// Thread Safety: safe for concurrent use after creation. A nil *Metrics is
// valid and records nothing, so wiring stays optional in tests.
type Metrics struct {
	// CompilesTotal counts compile requests by outcome
	// (ok, cached, failed).
	CompilesTotal metric.Int64Counter

	// CompileDuration records end-to-end compile duration in seconds.
	CompileDuration metric.Float64Histogram

	// InferenceDuration records the inference call duration in seconds by
	// outcome (ok, timeout, error, malformed).
	InferenceDuration metric.Float64Histogram

	// FallbacksTotal counts fallback lookups by result (hit, miss).
	FallbacksTotal metric.Int64Counter

	// PersistFailuresTotal counts swallowed persistence failures.
	PersistFailuresTotal metric.Int64Counter
}

// NewMeterProvider builds an SDK meter provider backed by the Prometheus
// exporter. The returned provider registers with the default prometheus
// registry; expose it via promhttp.
func NewMeterProvider() (*sdkmetric.MeterProvider, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)), nil
}

// NewMetrics creates the instrument set on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.CompilesTotal, err = meter.Int64Counter("meridian_compiles_total",
		metric.WithDescription("Compile requests by outcome")); err != nil {
		return nil, err
	}
	if m.CompileDuration, err = meter.Float64Histogram("meridian_compile_duration_seconds",
		metric.WithDescription("End-to-end compile duration")); err != nil {
		return nil, err
	}
	if m.InferenceDuration, err = meter.Float64Histogram("meridian_inference_duration_seconds",
		metric.WithDescription("Inference call duration by outcome")); err != nil {
		return nil, err
	}
	if m.FallbacksTotal, err = meter.Int64Counter("meridian_fallbacks_total",
		metric.WithDescription("Fallback lookups by result")); err != nil {
		return nil, err
	}
	if m.PersistFailuresTotal, err = meter.Int64Counter("meridian_persist_failures_total",
		metric.WithDescription("Swallowed persistence failures")); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordCompile records one compile request outcome.
func (m *Metrics) RecordCompile(ctx context.Context, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.CompilesTotal.Add(ctx, 1, metric.WithAttributes(outcomeAttr(outcome)))
	m.CompileDuration.Record(ctx, seconds, metric.WithAttributes(outcomeAttr(outcome)))
}

// RecordInference records one inference call outcome.
func (m *Metrics) RecordInference(ctx context.Context, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.InferenceDuration.Record(ctx, seconds, metric.WithAttributes(outcomeAttr(outcome)))
}

// RecordFallback records a fallback lookup result.
func (m *Metrics) RecordFallback(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.FallbacksTotal.Add(ctx, 1, metric.WithAttributes(resultAttr(result)))
}

// RecordPersistFailure records one swallowed persistence failure.
func (m *Metrics) RecordPersistFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.PersistFailuresTotal.Add(ctx, 1)
}
