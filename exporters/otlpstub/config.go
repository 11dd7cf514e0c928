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

package otlpstub // import "github.com/otelcore/pipeline/exporters/otlpstub"

import "github.com/cenkalti/backoff/v4"

type config struct {
	spanSink       SpanSink
	metricSink     MetricSink
	backoffFactory func() backoff.BackOff
}

func newConfig(opts ...Option) config {
	cfg := config{
		backoffFactory: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return cfg
}

// Option configures an Exporter.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithSpanSink sets the function that performs the span export RPC. An
// Exporter without one fails every ExportSpans call with ErrSinkUnset.
func WithSpanSink(sink SpanSink) Option {
	return optionFunc(func(c *config) { c.spanSink = sink })
}

// WithMetricSink sets the function that performs the metric export RPC.
func WithMetricSink(sink MetricSink) Option {
	return optionFunc(func(c *config) { c.metricSink = sink })
}

// WithBackoff overrides the retry policy used between a retryable
// failure and the next attempt. Defaults to backoff's standard
// exponential policy.
func WithBackoff(factory func() backoff.BackOff) Option {
	return optionFunc(func(c *config) { c.backoffFactory = factory })
}
