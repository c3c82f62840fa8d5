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

// Package models downloads task models from HuggingFace Hub into the local
// models directory the pipeline registry resolves from.
package models

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomlx/go-huggingface/hub"
)

// ProgressHandler is called per downloaded file with (downloaded, total,
// filename). A total of zero means the size is unknown.
type ProgressHandler func(downloaded, total int64, filename string)

// Client pulls models from HuggingFace Hub.
type Client struct {
	token           string
	progressHandler ProgressHandler
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the HuggingFace API token for gated models.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithProgressHandler sets the progress handler for downloads.
func WithProgressHandler(h ProgressHandler) Option {
	return func(c *Client) { c.progressHandler = h }
}

// NewClient creates a HuggingFace pull client.
func NewClient(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Pull downloads the tokenizer, configuration, and weight files of a
// HuggingFace repo into destDir, flattening subdirectory paths. The repo's
// file list is filtered to what the pipelines and an inference engine need;
// the files downloaded are returned by their destination basename.
func (c *Client) Pull(repoID, destDir string) ([]string, error) {
	repo := hub.New(repoID)
	if c.token != "" {
		repo = repo.WithAuth(c.token)
	}

	var files []string
	for fileName, err := range repo.IterFileNames() {
		if err != nil {
			return nil, fmt.Errorf("listing files in %s: %w", repoID, err)
		}
		files = append(files, fileName)
	}

	toDownload := selectModelFiles(files)
	if len(toDownload) == 0 {
		return nil, fmt.Errorf("no model files found in %s", repoID)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating model directory: %w", err)
	}

	pulled := make([]string, 0, len(toDownload))
	for _, fileName := range toDownload {
		localPath, err := repo.DownloadFile(fileName)
		if err != nil {
			return nil, fmt.Errorf("downloading %s: %w", fileName, err)
		}

		// Flatten nested paths ("onnx/model.onnx" becomes "model.onnx").
		destName := filepath.Base(fileName)
		destPath := filepath.Join(destDir, destName)

		if c.progressHandler != nil {
			c.progressHandler(0, 0, destName)
		}
		if err := copyFile(localPath, destPath); err != nil {
			return nil, fmt.Errorf("copying %s: %w", fileName, err)
		}
		if c.progressHandler != nil {
			if info, err := os.Stat(destPath); err == nil {
				c.progressHandler(info.Size(), info.Size(), destName)
			}
		}
		pulled = append(pulled, destName)
	}

	return pulled, nil
}

// tokenizerFiles are included from anywhere in the repo, first match wins.
var tokenizerFiles = []string{
	"tokenizer.json",
	"tokenizer.model",
	"tokenizer_config.json",
	"config.json",
	"special_tokens_map.json",
	"generation_config.json",
	"vocab.txt",
	"vocab.json",
	"merges.txt",
}

// weightSuffixes select engine weight files and their external data.
var weightSuffixes = []string{
	".onnx",
	".onnx.data",
	".onnx_data",
	".safetensors",
	".spm",
	".tiktoken",
}

// selectModelFiles filters a repo file listing to tokenizer and config files
// plus weight files an inference engine can load.
func selectModelFiles(files []string) []string {
	var result []string

	for _, tf := range tokenizerFiles {
		for _, f := range files {
			if filepath.Base(f) == tf {
				result = append(result, f)
				break
			}
		}
	}

	for _, f := range files {
		base := filepath.Base(f)
		for _, suffix := range weightSuffixes {
			if strings.HasSuffix(base, suffix) {
				result = append(result, f)
				break
			}
		}
	}

	return result
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("copying: %w", err)
	}

	return dstFile.Close()
}
