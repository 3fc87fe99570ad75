// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsPipeline holds Prometheus metrics for the indexing pipeline,
// lazily registered on first use so importing this package without ever
// running an index doesn't pollute the default registry.
type metricsPipeline struct {
	once sync.Once

	entitiesIndexed *prometheus.CounterVec
	parseErrors     *prometheus.CounterVec
	indexDuration   prometheus.Histogram
}

var pipelineMetrics metricsPipeline

func (m *metricsPipeline) init() {
	m.once.Do(func() {
		m.entitiesIndexed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codesearch_entities_indexed_total",
			Help: "Code entities indexed, by repository",
		}, []string{"repo"})
		m.parseErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codesearch_parse_errors_total",
			Help: "Files that failed extraction, by repository",
		}, []string{"repo"})
		m.indexDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "codesearch_index_run_seconds",
			Help:    "Duration of a full IndexRepo run",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(m.entitiesIndexed, m.parseErrors, m.indexDuration)
	})
}

func recordEntitiesIndexed(repo string, n int) {
	pipelineMetrics.init()
	pipelineMetrics.entitiesIndexed.WithLabelValues(repo).Add(float64(n))
}

func recordParseErrors(repo string, n int) {
	pipelineMetrics.init()
	pipelineMetrics.parseErrors.WithLabelValues(repo).Add(float64(n))
}
