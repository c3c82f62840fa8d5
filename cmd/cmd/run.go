// Copyright 2026 Antfly, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/antflydb/anthill"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the anthill server",
	Long:  `Start the anthill server for pipeline inference over HTTP.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("listen", ":11435", "HTTP listen address")
	mustBindPFlag("listen", runCmd.Flags().Lookup("listen"))

	runCmd.Flags().String("backend", "", "inference backend to load models with")
	mustBindPFlag("backend", runCmd.Flags().Lookup("backend"))

	runCmd.Flags().String("keep-alive", "5m", "how long unused pipelines stay loaded (0 = forever)")
	mustBindPFlag("keep_alive", runCmd.Flags().Lookup("keep-alive"))

	runCmd.Flags().Int("max-loaded-pipelines", 0, "max pipelines kept in memory (0 = unlimited)")
	mustBindPFlag("max_loaded_pipelines", runCmd.Flags().Lookup("max-loaded-pipelines"))
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(viper.GetString("log.level"))
	defer func() {
		_ = logger.Sync()
	}()

	cfg := anthill.Config{
		ListenAddr:         viper.GetString("listen"),
		ModelsDir:          viper.GetString("models_dir"),
		Backend:            viper.GetString("backend"),
		KeepAlive:          viper.GetString("keep_alive"),
		MaxLoadedPipelines: viper.GetInt("max_loaded_pipelines"),
	}

	return anthill.Run(ctx, logger, cfg, nil)
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
