// Copyright The OpenTelemetry Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package otlpstub is a gRPC-transport span and metric exporter skeleton.
// It owns the channel lifecycle and the retry policy an OTLP-shaped
// exporter needs, without encoding the OTLP wire protobufs themselves:
// ExportSpans and ExportMetrics hand batches to a pluggable sink function
// that a full wire-codec implementation would replace with the real
// collector RPC. The retry/backoff contract is real and exercised.
package otlpstub // import "github.com/otelcore/pipeline/exporters/otlpstub"

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/otelcore/pipeline/resource"
	"github.com/otelcore/pipeline/sdkmetric"
	"github.com/otelcore/pipeline/sdktrace"
)

// ErrSinkUnset is returned by Export calls when no sink function has been
// configured, rather than silently discarding telemetry.
var ErrSinkUnset = errors.New("otlpstub: no sink configured")

// SpanSink is called once per ExportSpans attempt. It mirrors the shape a
// real OTLP client stub's Export RPC would have: serialize spans and res
// into an ExportTraceServiceRequest, send over the channel, and report
// retryability through err/ok exactly the way the collector's response
// would.
type SpanSink func(ctx context.Context, conn *grpc.ClientConn, spans []sdktrace.SpanSnapshot, res *resource.Resource) (retryable bool, err error)

// MetricSink is the metrics analogue of SpanSink.
type MetricSink func(ctx context.Context, conn *grpc.ClientConn, metrics []sdkmetric.Metric, res *resource.Resource) (retryable bool, err error)

// Exporter is a gRPC-backed exporter satisfying both sdktrace.SpanExporter
// and sdkmetric.MetricExporter. A single underlying connection is shared
// between traces and metrics, matching how a real OTLP exporter dials one
// channel to the collector for both signals.
type Exporter struct {
	conn       *grpc.ClientConn
	spanSink   SpanSink
	metricSink MetricSink
	backoff    func() backoff.BackOff
}

// New dials target and returns an Exporter. Dialing is non-blocking;
// gRPC lazily connects on first RPC, so construction never blocks on
// network reachability.
func New(target string, opts ...Option) (*Exporter, error) {
	cfg := newConfig(opts...)
	conn, err := grpc.Dial(target, grpc.WithTransportCredentials(insecure.NewCredentials())) //nolint:staticcheck // Dial matches the pinned grpc-go version's API
	if err != nil {
		return nil, err
	}
	return &Exporter{
		conn:       conn,
		spanSink:   cfg.spanSink,
		metricSink: cfg.metricSink,
		backoff:    cfg.backoffFactory,
	}, nil
}

// ExportSpans sends spans through the configured SpanSink, retrying
// retryable failures with exponential backoff bounded by ctx.
func (e *Exporter) ExportSpans(ctx context.Context, spans []sdktrace.SpanSnapshot, res *resource.Resource) (sdktrace.ExportResult, error) {
	if e.spanSink == nil {
		return sdktrace.ExportFailedNotRetryable, ErrSinkUnset
	}
	var lastErr error
	permanent := false
	op := func() error {
		retryable, err := e.spanSink(ctx, e.conn, spans, res)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}
	bo := backoff.WithContext(e.backoff(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		if permanent {
			return sdktrace.ExportFailedNotRetryable, lastErr
		}
		return sdktrace.ExportFailedRetryable, lastErr
	}
	return sdktrace.ExportSuccess, nil
}

// ExportMetrics sends metrics through the configured MetricSink, with the
// same retry policy as ExportSpans.
func (e *Exporter) ExportMetrics(ctx context.Context, metrics []sdkmetric.Metric, res *resource.Resource) (sdkmetric.ExportResult, error) {
	if e.metricSink == nil {
		return sdkmetric.ExportFailedNotRetryable, ErrSinkUnset
	}
	var lastErr error
	permanent := false
	op := func() error {
		retryable, err := e.metricSink(ctx, e.conn, metrics, res)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}
	bo := backoff.WithContext(e.backoff(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		if permanent {
			return sdkmetric.ExportFailedNotRetryable, lastErr
		}
		return sdkmetric.ExportFailedRetryable, lastErr
	}
	return sdkmetric.ExportSuccess, nil
}

// Shutdown closes the underlying gRPC channel.
func (e *Exporter) Shutdown(context.Context) error {
	return e.conn.Close()
}

var (
	_ sdktrace.SpanExporter    = (*Exporter)(nil)
	_ sdkmetric.MetricExporter = (*Exporter)(nil)
)
