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

package sdkmetric

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestDropAggregationDiscardsEverything(t *testing.T) {
	agg := NewDropAggregation()
	require.True(t, IsDrop(agg))

	agg.Aggregate(attribute.NewSet(), 100)
	agg.Checkpoint(time.Now())
	require.Empty(t, agg.Collect(time.Now()))
}

func TestLastValueAggregationReportsMostRecent(t *testing.T) {
	agg := NewLastValueAggregation()
	set := attribute.NewSet(attribute.String("host", "h1"))

	agg.Aggregate(set, 1)
	agg.Aggregate(set, 2)
	now := time.Now()
	agg.Checkpoint(now)
	points := agg.Collect(now)
	require.Len(t, points, 1)
	require.Equal(t, float64(2), points[0].Value)
}

func TestDefaultAggregationSelectorMapping(t *testing.T) {
	cases := map[InstrumentKind]AggregationKind{
		CounterKind:                 SumAggregationKind,
		UpDownCounterKind:           SumAggregationKind,
		ObservableCounterKind:       SumAggregationKind,
		ObservableUpDownCounterKind: SumAggregationKind,
		HistogramKind:               HistogramAggregationKind,
		ObservableGaugeKind:         LastValueAggregationKind,
	}
	for kind, want := range cases {
		require.Equal(t, want, DefaultAggregationSelector(kind), "kind %v", kind)
	}
}
