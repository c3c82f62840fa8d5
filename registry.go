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

// Package anthill dispatches named inference tasks (classification, question
// answering, mask filling, text generation) to pipelines that pair a
// tokenizer with a model, and caches resolved pipelines with keep-alive
// eviction.
package anthill

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/antflydb/anthill/lib/backends"
	"github.com/antflydb/anthill/lib/pipelines"
	"github.com/antflydb/anthill/lib/tokenizers"
)

// DefaultKeepAlive is how long a resolved pipeline stays loaded after its
// last use (matches Ollama's 5-minute default).
const DefaultKeepAlive = 5 * time.Minute

// DefaultPathTemplate derives a model directory from task and model name.
const DefaultPathTemplate = "{task}/{model}"

// ModelLoader loads an inference model from a local directory. The engine
// behind it (ONNX, GoMLX, remote) is the caller's choice; engines register
// themselves via backends.RegisterLoader.
type ModelLoader = backends.Loader

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// ModelsDir is the root directory model paths are resolved under.
	ModelsDir string

	// PathTemplate derives the model directory from "{task}" and "{model}".
	// Empty means DefaultPathTemplate.
	PathTemplate string

	// KeepAlive is how long an unused pipeline stays loaded
	// (0 = DefaultKeepAlive, negative = forever).
	KeepAlive time.Duration

	// MaxLoadedPipelines bounds how many pipelines stay in memory
	// (0 = unlimited). Exceeding it evicts the least recently used.
	MaxLoadedPipelines uint64

	// Loader loads models. Required.
	Loader ModelLoader
}

// RegistryOption is a functional option for configuring a Registry.
type RegistryOption func(*RegistryConfig)

// WithModelPathTemplate overrides the "{task}/{model}" path template.
func WithModelPathTemplate(template string) RegistryOption {
	return func(c *RegistryConfig) {
		c.PathTemplate = template
	}
}

// WithKeepAlive sets how long unused pipelines stay loaded.
func WithKeepAlive(d time.Duration) RegistryOption {
	return func(c *RegistryConfig) {
		c.KeepAlive = d
	}
}

// WithMaxLoadedPipelines bounds the number of loaded pipelines.
func WithMaxLoadedPipelines(n uint64) RegistryOption {
	return func(c *RegistryConfig) {
		c.MaxLoadedPipelines = n
	}
}

// Registry resolves task names to loaded pipeline instances, caching them
// with TTL-based keep-alive and LRU capacity eviction.
type Registry struct {
	config RegistryConfig
	logger *zap.Logger

	cache *ttlcache.Cache[string, *Instance]
	mu    sync.Mutex
}

// NewRegistry creates a registry. A nil logger is replaced with a no-op one.
func NewRegistry(config RegistryConfig, logger *zap.Logger, opts ...RegistryOption) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Loader == nil {
		return nil, fmt.Errorf("registry requires a model loader")
	}
	if config.PathTemplate == "" {
		config.PathTemplate = DefaultPathTemplate
	}

	keepAlive := config.KeepAlive
	switch {
	case keepAlive == 0:
		keepAlive = DefaultKeepAlive
	case keepAlive < 0:
		keepAlive = ttlcache.NoTTL // Never expire
	}

	r := &Registry{
		config: config,
		logger: logger,
	}

	cacheOpts := []ttlcache.Option[string, *Instance]{
		ttlcache.WithTTL[string, *Instance](keepAlive),
	}
	if config.MaxLoadedPipelines > 0 {
		cacheOpts = append(cacheOpts,
			ttlcache.WithCapacity[string, *Instance](config.MaxLoadedPipelines))
	}
	r.cache = ttlcache.New(cacheOpts...)

	// Eviction closes the underlying model.
	r.cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Instance]) {
		inst := item.Value()

		reasonStr := "unknown"
		switch reason {
		case ttlcache.EvictionReasonExpired:
			reasonStr = "expired (keep-alive timeout)"
		case ttlcache.EvictionReasonCapacityReached:
			reasonStr = "capacity reached (LRU eviction)"
		case ttlcache.EvictionReasonDeleted:
			reasonStr = "manually deleted"
		}

		logger.Info("Unloading pipeline",
			zap.String("task", inst.Task),
			zap.String("model", inst.Model),
			zap.String("reason", reasonStr))

		if err := inst.Close(); err != nil {
			logger.Warn("Error closing pipeline",
				zap.String("task", inst.Task),
				zap.Error(err))
		}
	})

	go r.cache.Start()

	return r, nil
}

// Resolve returns a loaded pipeline instance for a task, loading tokenizer
// and model on first use. An empty model name selects the task's default
// model. Resolving refreshes the instance's keep-alive.
func (r *Registry) Resolve(ctx context.Context, task, model string) (*Instance, error) {
	canonical, variant, cfg, err := resolveTask(task)
	if err != nil {
		return nil, err
	}

	fullTask := canonical
	if variant != "" {
		fullTask = canonical + "_" + variant
	}
	if model == "" {
		model = cfg.DefaultModel
	}

	key := instanceKey(fullTask, model)
	if item := r.cache.Get(key); item != nil {
		RecordCacheHit("pipeline")
		r.logger.Debug("Pipeline cache hit",
			zap.String("task", fullTask),
			zap.String("model", model))
		return item.Value(), nil
	}
	RecordCacheMiss("pipeline")

	return r.load(ctx, key, fullTask, canonical, model, cfg)
}

// load builds an instance, synchronized to prevent double-loading.
func (r *Registry) load(ctx context.Context, key, fullTask, canonical, model string, cfg TaskConfig) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check cache after acquiring lock
	if item := r.cache.Get(key); item != nil {
		return item.Value(), nil
	}

	modelPath := r.modelPath(canonical, model)
	r.logger.Info("Loading pipeline on demand",
		zap.String("task", fullTask),
		zap.String("model", model),
		zap.String("path", modelPath))

	start := time.Now()

	// Tokenizer and model load concurrently.
	var (
		tok tokenizers.Tokenizer
		mdl backends.Model
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tok, err = tokenizers.Load(modelPath)
		if err != nil && cfg.Kind == KindGeneration {
			// GPT-style models often ship no tokenizer files.
			tok, err = tokenizers.NewBPE("")
		}
		if err != nil {
			return fmt.Errorf("loading tokenizer for %s: %w", fullTask, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		mdl, err = r.config.Loader(gctx, modelPath)
		if err != nil {
			return fmt.Errorf("loading model for %s: %w", fullTask, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if mdl != nil {
			_ = mdl.Close()
		}
		return nil, err
	}

	inst := newInstance(fullTask, model, cfg, tok, mdl)
	r.cache.Set(key, inst, ttlcache.DefaultTTL)

	RecordModelLoadDuration(fullTask, model, time.Since(start).Seconds())
	r.logger.Info("Pipeline loaded",
		zap.String("task", fullTask),
		zap.String("model", model),
		zap.Duration("took", time.Since(start)))

	return inst, nil
}

// modelPath expands the path template under the models dir.
func (r *Registry) modelPath(task, model string) string {
	p := strings.ReplaceAll(r.config.PathTemplate, "{task}", task)
	p = strings.ReplaceAll(p, "{model}", model)
	if r.config.ModelsDir == "" {
		return p
	}
	return r.config.ModelsDir + "/" + p
}

// LoadedPipelines returns the cache keys of currently loaded instances.
func (r *Registry) LoadedPipelines() []string {
	return r.cache.Keys()
}

// Unload evicts a specific task/model pipeline, closing its model.
func (r *Registry) Unload(task, model string) {
	r.cache.Delete(instanceKey(task, model))
}

// Close stops the cache and unloads all pipelines.
func (r *Registry) Close() error {
	r.logger.Info("Closing pipeline registry")
	r.cache.Stop()
	r.cache.DeleteAll()
	return nil
}

// instanceKey builds a stable cache key from task and model.
func instanceKey(task, model string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(task+"\x00"+model))
}

// newInstance wires the task-appropriate pipeline.
func newInstance(fullTask, model string, cfg TaskConfig, tok tokenizers.Tokenizer, mdl backends.Model) *Instance {
	inst := &Instance{
		Task:  fullTask,
		Model: model,
		Kind:  cfg.Kind,
	}
	switch cfg.Kind {
	case KindClassification:
		inst.classification = pipelines.NewClassificationPipeline(tok, mdl)
	case KindQuestionAnswering:
		inst.qa = pipelines.NewQAPipeline(tok, mdl)
	case KindFillMask:
		inst.fillMask = pipelines.NewFillMaskPipeline(tok, mdl)
	case KindText2Text:
		inst.text2text = pipelines.NewText2TextPipeline(tok, mdl, fullTask, cfg.ResultKey)
	case KindGeneration:
		inst.generation = pipelines.NewGenerationPipeline(tok, mdl)
		inst.resultKey = cfg.ResultKey
	}
	return inst
}
