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
package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectModelFiles(t *testing.T) {
	files := []string{
		"README.md",
		".gitattributes",
		"config.json",
		"tokenizer_config.json",
		"vocab.txt",
		"onnx/model.onnx",
		"onnx/model.onnx_data",
		"pytorch_model.bin",
		"model.safetensors",
	}

	selected := selectModelFiles(files)

	assert.Contains(t, selected, "config.json")
	assert.Contains(t, selected, "tokenizer_config.json")
	assert.Contains(t, selected, "vocab.txt")
	assert.Contains(t, selected, "onnx/model.onnx")
	assert.Contains(t, selected, "onnx/model.onnx_data")
	assert.Contains(t, selected, "model.safetensors")
	assert.NotContains(t, selected, "README.md")
	assert.NotContains(t, selected, "pytorch_model.bin")
}

func TestSelectModelFilesFirstMatchWins(t *testing.T) {
	files := []string{
		"config.json",
		"onnx/config.json",
	}

	selected := selectModelFiles(files)
	assert.Equal(t, []string{"config.json"}, selected)
}

func TestSelectModelFilesEmpty(t *testing.T) {
	assert.Empty(t, selectModelFiles([]string{"README.md", "LICENSE"}))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("weights"), 0o644))

	require.NoError(t, copyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "weights", string(got))
}
