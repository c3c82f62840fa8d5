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

import (
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic/decoder"
	"github.com/bytedance/sonic/encoder"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/antflydb/anthill/lib/pipelines"
)

// API serves the pipeline HTTP surface over a Registry.
type API struct {
	registry *Registry
	logger   *zap.Logger
}

// NewAPI creates the HTTP API over a registry.
func NewAPI(registry *Registry, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{registry: registry, logger: logger}
}

// Handler returns the API's HTTP handler with CORS applied.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.HandleFunc("GET /v1/tasks", a.handleTasks)
	mux.HandleFunc("POST /v1/pipeline/{task}", a.handlePipeline)
	mux.Handle("GET /metrics", promhttp.Handler())
	return corsMiddleware(mux)
}

// corsMiddleware adds permissive CORS headers for the API
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept, Origin")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleTasks(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{
		"tasks":  Tasks(),
		"loaded": a.registry.LoadedPipelines(),
	})
}

// pipelineRequest is the request body of POST /v1/pipeline/{task}.
type pipelineRequest struct {
	Request

	// Model overrides the task's default model.
	Model string `json:"model,omitempty"`
}

func (a *API) handlePipeline(w http.ResponseWriter, r *http.Request) {
	task := r.PathValue("task")
	start := time.Now()

	var req pipelineRequest
	if err := decoder.NewStreamDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		RecordRequestDuration("pipeline", task, "error", time.Since(start).Seconds())
		return
	}

	inst, err := a.registry.Resolve(r.Context(), task, req.Model)
	if err != nil {
		status := http.StatusInternalServerError
		var unsupported *UnsupportedTaskError
		if errors.As(err, &unsupported) {
			status = http.StatusNotFound
		}
		a.writeError(w, status, err.Error())
		RecordRequestDuration("pipeline", task, "error", time.Since(start).Seconds())
		return
	}
	RecordPipelineRequest(inst.Task, inst.Model)

	result, err := inst.Call(r.Context(), &req.Request)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipelines.ErrNoAnswerFound) {
			status = http.StatusUnprocessableEntity
		}
		a.writeError(w, status, err.Error())
		RecordRequestDuration("pipeline", task, "error", time.Since(start).Seconds())
		return
	}

	a.writeJSON(w, http.StatusOK, result)
	RecordRequestDuration("pipeline", task, "ok", time.Since(start).Seconds())
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := encoder.NewStreamEncoder(w).Encode(v); err != nil {
		a.logger.Warn("Failed to encode response", zap.Error(err))
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, map[string]string{"error": message})
}
