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

package sdkmetric // import "github.com/otelcore/pipeline/sdkmetric"

import (
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/otelcore/pipeline/internal/clock"
	"github.com/otelcore/pipeline/internal/otlog"
)

// DefaultExportTimeout bounds a single metrics export call. The spec
// doesn't name a Reader-side timeout the way it does for the BSP, but an
// export call sharing a control goroutine with the collection timer
// still needs a cap so a wedged exporter can't freeze every future
// collection.
const DefaultExportTimeout = 30 * time.Second

type readerConfig struct {
	name                string
	interval            time.Duration // zero means manual-collect only
	exporter            MetricExporter
	aggregationSelector AggregationSelector
	temporalitySelector TemporalitySelector
	exportTimeout       time.Duration
	logger              logr.Logger
	clock               clock.Clock
}

func newReaderConfig(opts ...ReaderOption) readerConfig {
	cfg := readerConfig{
		name:                uuid.NewString(),
		aggregationSelector: DefaultAggregationSelector,
		temporalitySelector: DefaultTemporalitySelector,
		exportTimeout:       DefaultExportTimeout,
		logger:              otlog.Default(),
		clock:               clock.Real{},
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return cfg
}

// ReaderOption configures a PeriodicReader.
type ReaderOption interface {
	apply(*readerConfig)
}

type readerOptionFunc func(*readerConfig)

func (f readerOptionFunc) apply(c *readerConfig) { f(c) }

// WithInterval sets the period between automatic collections. Absent (or
// zero), the reader only collects when Collect is called explicitly.
func WithInterval(d time.Duration) ReaderOption {
	return readerOptionFunc(func(c *readerConfig) { c.interval = d })
}

// WithExporter sets the exporter collection results are handed to.
// Without one, collection still runs (callbacks fire, aggregations
// checkpoint) but nothing is exported.
func WithExporter(e MetricExporter) ReaderOption {
	return readerOptionFunc(func(c *readerConfig) { c.exporter = e })
}

// WithAggregationSelector overrides the instrument-kind to
// aggregation-module mapping.
func WithAggregationSelector(s AggregationSelector) ReaderOption {
	return readerOptionFunc(func(c *readerConfig) { c.aggregationSelector = s })
}

// WithTemporalitySelector overrides the instrument-kind to temporality
// mapping.
func WithTemporalitySelector(s TemporalitySelector) ReaderOption {
	return readerOptionFunc(func(c *readerConfig) { c.temporalitySelector = s })
}

// WithReaderExportTimeout overrides the export call's deadline.
func WithReaderExportTimeout(d time.Duration) ReaderOption {
	return readerOptionFunc(func(c *readerConfig) { c.exportTimeout = d })
}

// WithReaderName sets the reader's identity token. Defaults to a fresh
// random token.
func WithReaderName(name string) ReaderOption {
	return readerOptionFunc(func(c *readerConfig) { c.name = name })
}

// WithReaderLogger sets the structured logger used for background-path
// errors.
func WithReaderLogger(l logr.Logger) ReaderOption {
	return readerOptionFunc(func(c *readerConfig) { c.logger = l })
}

// withReaderClock overrides the clock used for the collection timer;
// unexported because it is a test-only hook.
func withReaderClock(c clock.Clock) ReaderOption {
	return readerOptionFunc(func(cfg *readerConfig) { cfg.clock = c })
}
