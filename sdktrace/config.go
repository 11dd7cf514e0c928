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

package sdktrace // import "github.com/otelcore/pipeline/sdktrace"

import (
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/otelcore/pipeline/internal/clock"
	"github.com/otelcore/pipeline/internal/otlog"
	"github.com/otelcore/pipeline/resource"
)

const (
	// DefaultMaxQueueSize is the default upper bound on active buffer
	// entries before ingest is disabled.
	DefaultMaxQueueSize = 2048
	// DefaultScheduledDelay is the default interval between automatic
	// exports.
	DefaultScheduledDelay = 5 * time.Second
	// DefaultExportTimeout is the default hard cap on a single export's
	// duration.
	DefaultExportTimeout = 300 * time.Second
	// DefaultCheckInterval is the default interval for the size-threshold
	// check.
	DefaultCheckInterval = time.Second
)

type config struct {
	maxQueueSize   int
	scheduledDelay time.Duration
	exportTimeout  time.Duration
	checkInterval  time.Duration
	exporter       SpanExporter
	resource       *resource.Resource
	name           string
	logger         logr.Logger
	clock          clock.Clock
}

func newConfig(opts ...Option) config {
	cfg := config{
		maxQueueSize:   DefaultMaxQueueSize,
		scheduledDelay: DefaultScheduledDelay,
		exportTimeout:  DefaultExportTimeout,
		checkInterval:  DefaultCheckInterval,
		resource:       resource.Empty(),
		name:           uuid.NewString(),
		logger:         otlog.Default(),
		clock:          clock.Real{},
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return cfg
}

// Option configures a BatchSpanProcessor.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithMaxQueueSize sets the maximum number of buffered entries before
// ingest is disabled. It is interpreted as an entry count, not a byte
// size.
func WithMaxQueueSize(n int) Option {
	return optionFunc(func(c *config) { c.maxQueueSize = n })
}

// WithScheduledDelay sets the interval between automatic exports.
func WithScheduledDelay(d time.Duration) Option {
	return optionFunc(func(c *config) { c.scheduledDelay = d })
}

// WithExportTimeout sets the hard cap on a single export's duration.
func WithExportTimeout(d time.Duration) Option {
	return optionFunc(func(c *config) { c.exportTimeout = d })
}

// WithCheckInterval sets the interval for the size-threshold check.
func WithCheckInterval(d time.Duration) Option {
	return optionFunc(func(c *config) { c.checkInterval = d })
}

// WithExporter sets the initial exporter. Without this option the
// processor starts with no exporter and drops its buffer on the first
// scheduled export.
func WithExporter(e SpanExporter) Option {
	return optionFunc(func(c *config) { c.exporter = e })
}

// WithResource attaches a resource to every export from this processor.
func WithResource(r *resource.Resource) Option {
	return optionFunc(func(c *config) { c.resource = r })
}

// WithName sets the identifier used to address this processor. Defaults
// to a fresh random token.
func WithName(name string) Option {
	return optionFunc(func(c *config) { c.name = name })
}

// WithLogger sets the structured logger used for background-path errors.
func WithLogger(l logr.Logger) Option {
	return optionFunc(func(c *config) { c.logger = l })
}

// withClock overrides the clock used for timers; unexported because it is
// a test-only hook.
func withClock(c clock.Clock) Option {
	return optionFunc(func(cfg *config) { cfg.clock = c })
}
