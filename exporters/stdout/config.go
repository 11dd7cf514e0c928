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

package stdout // import "github.com/otelcore/pipeline/exporters/stdout"

type config struct {
	pretty bool
}

func newConfig(opts ...Option) config {
	var cfg config
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return cfg
}

// Option configures a stdout exporter.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithPrettyPrint indents each JSON line for human readability. Off by
// default, since line-delimited JSON is friendlier to log pipelines.
func WithPrettyPrint() Option {
	return optionFunc(func(c *config) { c.pretty = true })
}
