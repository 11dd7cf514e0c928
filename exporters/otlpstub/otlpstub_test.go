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

package otlpstub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"

	"github.com/otelcore/pipeline/resource"
	"github.com/otelcore/pipeline/sdktrace"
)

var errTransient = errors.New("unavailable")

func zeroBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Microsecond
	b.MaxInterval = time.Microsecond
	return b
}

func TestExportSpansRetriesRetryableFailures(t *testing.T) {
	attempts := 0
	var gotRes *resource.Resource
	sink := func(ctx context.Context, conn *grpc.ClientConn, spans []sdktrace.SpanSnapshot, res *resource.Resource) (bool, error) {
		attempts++
		gotRes = res
		if attempts < 3 {
			return true, errTransient
		}
		return false, nil
	}
	e, err := New("passthrough:///bufnet", WithSpanSink(sink), WithBackoff(zeroBackoff))
	require.NoError(t, err)
	defer e.Shutdown(context.Background())

	want := resource.New(attribute.String("service.name", "checkout"))
	result, err := e.ExportSpans(context.Background(), nil, want)
	require.NoError(t, err)
	require.Equal(t, sdktrace.ExportSuccess, result)
	require.Equal(t, 3, attempts)
	require.Equal(t, want, gotRes)
}

func TestExportSpansStopsOnNonRetryableFailure(t *testing.T) {
	attempts := 0
	sink := func(ctx context.Context, conn *grpc.ClientConn, spans []sdktrace.SpanSnapshot, res *resource.Resource) (bool, error) {
		attempts++
		return false, errTransient
	}
	e, err := New("passthrough:///bufnet", WithSpanSink(sink), WithBackoff(zeroBackoff))
	require.NoError(t, err)
	defer e.Shutdown(context.Background())

	result, err := e.ExportSpans(context.Background(), nil, nil)
	require.ErrorIs(t, err, errTransient)
	require.Equal(t, sdktrace.ExportFailedNotRetryable, result)
	require.Equal(t, 1, attempts)
}

func TestExportSpansWithoutSinkReportsError(t *testing.T) {
	e, err := New("passthrough:///bufnet")
	require.NoError(t, err)
	defer e.Shutdown(context.Background())

	result, err := e.ExportSpans(context.Background(), nil, nil)
	require.ErrorIs(t, err, ErrSinkUnset)
	require.Equal(t, sdktrace.ExportFailedNotRetryable, result)
}
