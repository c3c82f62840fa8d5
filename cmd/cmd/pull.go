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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/antflydb/anthill"
	"github.com/antflydb/anthill/lib/models"
)

var pullCmd = &cobra.Command{
	Use:   "pull <task> <repo-id>",
	Short: "Download a model from HuggingFace",
	Long: `Download a model from HuggingFace Hub into the local models
directory, under the task the server resolves it for.

Examples:
  # Pull the default sentiment model
  anthill pull text-classification distilbert/distilbert-base-uncased-finetuned-sst-2-english

  # Pull a summarization model with a HuggingFace token
  anthill pull summarization google-t5/t5-small --hf-token hf_...`,
	Args: cobra.ExactArgs(2),
	RunE: runPull,
}

func init() {
	rootCmd.AddCommand(pullCmd)

	pullCmd.Flags().String("hf-token", "", "HuggingFace API token for gated models (or HF_TOKEN env)")
	mustBindPFlag("hf_token", pullCmd.Flags().Lookup("hf-token"))
}

func runPull(cmd *cobra.Command, args []string) error {
	task, repoID := args[0], args[1]

	token := viper.GetString("hf_token")
	if token == "" {
		token = os.Getenv("HF_TOKEN")
	}

	client := models.NewClient(
		models.WithToken(token),
		models.WithProgressHandler(printProgress),
	)

	destDir, err := anthill.ModelDir(viper.GetString("models_dir"), task, filepath.Base(repoID))
	if err != nil {
		return err
	}

	fmt.Printf("Pulling from HuggingFace: %s\n", repoID)
	fmt.Println("Downloading files...")

	pulled, err := client.Pull(repoID, destDir)
	if err != nil {
		return fmt.Errorf("failed to pull model: %w", err)
	}

	fmt.Printf("\n✓ Pulled %d files to %s\n", len(pulled), destDir)
	return nil
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// printProgress prints download progress to stdout.
func printProgress(downloaded, total int64, filename string) {
	if total <= 0 {
		fmt.Printf("\r  %s: %s", filename, formatBytes(downloaded))
		return
	}

	percent := float64(downloaded) / float64(total) * 100
	barWidth := 30
	filled := int(float64(barWidth) * float64(downloaded) / float64(total))

	bar := strings.Repeat("=", filled) + strings.Repeat("-", barWidth-filled)
	fmt.Printf("\r  %s: [%s] %.1f%% (%s/%s)",
		filename, bar, percent, formatBytes(downloaded), formatBytes(total))

	if downloaded >= total {
		fmt.Println()
	}
}
