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
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/antflydb/anthill/lib/backends"
)

// DefaultShutdownTimeout is the default time to wait for graceful shutdown
const DefaultShutdownTimeout = 30 * time.Second

// Config holds the server configuration.
type Config struct {
	// ListenAddr is the HTTP listen address (e.g. ":11435").
	ListenAddr string

	// ModelsDir is the root directory models are resolved under.
	ModelsDir string

	// PathTemplate overrides the "{task}/{model}" model path template.
	PathTemplate string

	// Backend names the registered inference engine to load models with.
	// Empty selects the sole registered engine.
	Backend string

	// KeepAlive is how long unused pipelines stay loaded, as a duration
	// string ("5m"). Empty or "0" keeps them forever.
	KeepAlive string

	// MaxLoadedPipelines bounds pipelines kept in memory (0 = unlimited).
	MaxLoadedPipelines int
}

// Run starts the anthill server and blocks until ctx is cancelled. If readyC
// is non-nil, it is closed when the server accepts requests.
func Run(ctx context.Context, zl *zap.Logger, config Config, readyC chan struct{}) error {
	zl = zl.Named("anthill")
	zl.Info("Starting anthill server", zap.Any("config", config))

	loader, err := backends.LoaderByName(config.Backend)
	if err != nil {
		return err
	}

	// Parse keep_alive duration
	keepAlive := -time.Second // forever
	if config.KeepAlive != "" && config.KeepAlive != "0" {
		keepAlive, err = time.ParseDuration(config.KeepAlive)
		if err != nil {
			zl.Error("Invalid keep_alive duration",
				zap.String("keep_alive", config.KeepAlive), zap.Error(err))
			return err
		}
		zl.Info("Lazy pipeline unloading enabled",
			zap.Duration("keep_alive", keepAlive),
			zap.Int("max_loaded_pipelines", config.MaxLoadedPipelines))
	}

	registry, err := NewRegistry(RegistryConfig{
		ModelsDir:          config.ModelsDir,
		PathTemplate:       config.PathTemplate,
		KeepAlive:          keepAlive,
		MaxLoadedPipelines: uint64(config.MaxLoadedPipelines),
		Loader:             loader,
	}, zl.Named("registry"))
	if err != nil {
		return err
	}
	defer func() { _ = registry.Close() }()

	srv := &http.Server{
		Addr:        config.ListenAddr,
		Handler:     NewAPI(registry, zl.Named("api")).Handler(),
		ReadTimeout: 30 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		zl.Info("Listening", zap.String("addr", config.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errC <- err
		}
	}()

	if readyC != nil {
		close(readyC)
	}

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	zl.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
