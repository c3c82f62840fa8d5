// Copyright 2026 Antfly, Inc.
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

package anthill

import "github.com/prometheus/client_golang/prometheus"

var (
	pipelineRequestOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "antfly",
			Subsystem: "anthill",
			Name:      "pipeline_request_ops_total",
			Help:      "The total number of pipeline requests.",
		},
		[]string{"task", "model"},
	)

	tokenGenerationOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "antfly",
			Subsystem: "anthill",
			Name:      "token_generation_ops_total",
			Help:      "The total number of generated sequences.",
		},
		[]string{"model"},
	)

	modelLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "antfly",
			Subsystem: "anthill",
			Name:      "model_load_duration_seconds",
			Help:      "Time taken to load a pipeline's tokenizer and model.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"task", "model"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "antfly",
			Subsystem: "anthill",
			Name:      "request_duration_seconds",
			Help:      "Time taken to process a request.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "task", "status"},
	)

	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "antfly",
			Subsystem: "anthill",
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits.",
		},
		[]string{"type"}, // pipeline
	)

	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "antfly",
			Subsystem: "anthill",
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses.",
		},
		[]string{"type"}, // pipeline
	)
)

func init() {
	prometheus.MustRegister(pipelineRequestOps)
	prometheus.MustRegister(tokenGenerationOps)
	prometheus.MustRegister(modelLoadDuration)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(cacheHits)
	prometheus.MustRegister(cacheMisses)
}

// RecordPipelineRequest increments the pipeline request counter
func RecordPipelineRequest(task, model string) {
	pipelineRequestOps.WithLabelValues(task, model).Inc()
}

// RecordTokenGeneration records the number of sequences generated
func RecordTokenGeneration(model string, count int) {
	tokenGenerationOps.WithLabelValues(model).Add(float64(count))
}

// RecordModelLoadDuration records how long it took to load a pipeline
func RecordModelLoadDuration(task, model string, seconds float64) {
	modelLoadDuration.WithLabelValues(task, model).Observe(seconds)
}

// RecordRequestDuration records how long a request took
func RecordRequestDuration(endpoint, task, status string, seconds float64) {
	requestDuration.WithLabelValues(endpoint, task, status).Observe(seconds)
}

// RecordCacheHit increments the cache hit counter
func RecordCacheHit(cacheType string) {
	cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss increments the cache miss counter
func RecordCacheMiss(cacheType string) {
	cacheMisses.WithLabelValues(cacheType).Inc()
}
