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
package anthill

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antflydb/anthill/lib/backends"
)

// fakeModel satisfies backends.Model without an inference engine. Forward
// emits sentiment-style logits sized to the batch and Generate echoes a
// fixed continuation.
type fakeModel struct {
	config *backends.ModelConfig
	closed atomic.Bool
}

func newFakeModel() *fakeModel {
	return &fakeModel{
		config: &backends.ModelConfig{
			ID2Label: map[int]string{0: "NEGATIVE", 1: "POSITIVE"},
		},
	}
}

func (m *fakeModel) Forward(_ context.Context, inputs *backends.ModelInputs) (*backends.RawOutput, error) {
	batch := len(inputs.InputIDs)
	data := make([]float32, 0, batch*2)
	for i := 0; i < batch; i++ {
		data = append(data, -1, 2)
	}
	return &backends.RawOutput{
		Tensors: []backends.NamedTensor{
			{Name: "logits", Data: data, Shape: []int64{int64(batch), 2}},
		},
	}, nil
}

func (m *fakeModel) Generate(_ context.Context, inputIDs [][]int32, cfg *backends.GenerationConfig) ([][][]int32, error) {
	out := make([][][]int32, len(inputIDs))
	for i := range inputIDs {
		out[i] = [][]int32{{5, 6}}
	}
	return out, nil
}

func (m *fakeModel) Config() *backends.ModelConfig { return m.config }

func (m *fakeModel) Close() error {
	m.closed.Store(true)
	return nil
}

// writeModelDir creates a model directory with a minimal WordPiece vocab so
// the registry's tokenizer load succeeds.
func writeModelDir(t *testing.T, modelsDir, task, model string) {
	t.Helper()
	dir := filepath.Join(modelsDir, task, model)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	vocab := "[PAD]\n[UNK]\n[CLS]\n[SEP]\n[MASK]\nhello\nworld\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vocab.txt"), []byte(vocab), 0o644))
}

// newTestRegistry builds a registry over a temp models dir whose loader
// counts invocations and records the last requested path.
func newTestRegistry(t *testing.T, opts ...RegistryOption) (*Registry, *fakeModel, *atomic.Int32, *sync.Map) {
	t.Helper()

	modelsDir := t.TempDir()
	writeModelDir(t, modelsDir, "text-classification", "distilbert-base-uncased-finetuned-sst-2-english")
	writeModelDir(t, modelsDir, "translation", "t5-small")
	writeModelDir(t, modelsDir, "text-generation", "distilgpt2")
	writeModelDir(t, modelsDir, "question-answering", "distilbert-base-cased-distilled-squad")

	model := newFakeModel()
	var loadCount atomic.Int32
	var paths sync.Map

	registry, err := NewRegistry(RegistryConfig{
		ModelsDir: modelsDir,
		Loader: func(_ context.Context, modelPath string) (backends.Model, error) {
			loadCount.Add(1)
			paths.Store("last", modelPath)
			if _, err := os.Stat(modelPath); err != nil {
				return nil, err
			}
			return model, nil
		},
	}, nil, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	return registry, model, &loadCount, &paths
}

func TestRegistryRequiresLoader(t *testing.T) {
	_, err := NewRegistry(RegistryConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loader")
}

func TestRegistryResolveCachesInstance(t *testing.T) {
	registry, _, loadCount, _ := newTestRegistry(t)
	ctx := context.Background()

	first, err := registry.Resolve(ctx, "text-classification", "")
	require.NoError(t, err)
	assert.Equal(t, "text-classification", first.Task)
	assert.Equal(t, "distilbert-base-uncased-finetuned-sst-2-english", first.Model)

	second, err := registry.Resolve(ctx, "text-classification", "")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), loadCount.Load())
	assert.Len(t, registry.LoadedPipelines(), 1)
}

func TestRegistryResolveConcurrent(t *testing.T) {
	registry, _, loadCount, _ := newTestRegistry(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := registry.Resolve(ctx, "text-classification", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loadCount.Load())
}

func TestRegistryAliasSharesInstance(t *testing.T) {
	registry, _, loadCount, _ := newTestRegistry(t)
	ctx := context.Background()

	direct, err := registry.Resolve(ctx, "text-classification", "")
	require.NoError(t, err)
	aliased, err := registry.Resolve(ctx, "sentiment-analysis", "")
	require.NoError(t, err)

	assert.Same(t, direct, aliased)
	assert.Equal(t, int32(1), loadCount.Load())
}

func TestRegistryVariantTask(t *testing.T) {
	registry, _, _, paths := newTestRegistry(t)

	inst, err := registry.Resolve(context.Background(), "translation_en_to_fr", "")
	require.NoError(t, err)

	// The full task name survives on the instance while the model path
	// uses the canonical task directory.
	assert.Equal(t, "translation_en_to_fr", inst.Task)
	assert.Equal(t, "t5-small", inst.Model)
	last, _ := paths.Load("last")
	assert.True(t, strings.HasSuffix(last.(string), "translation/t5-small"))
}

func TestRegistryUnsupportedTask(t *testing.T) {
	registry, _, _, _ := newTestRegistry(t)

	_, err := registry.Resolve(context.Background(), "image-segmentation", "")
	require.Error(t, err)
	var unsupported *UnsupportedTaskError
	assert.True(t, errors.As(err, &unsupported))
}

func TestRegistryPathTemplate(t *testing.T) {
	modelsDir := t.TempDir()
	dir := filepath.Join(modelsDir, "distilgpt2")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	vocab := "[PAD]\n[UNK]\n[CLS]\n[SEP]\n[MASK]\nhello\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vocab.txt"), []byte(vocab), 0o644))

	var gotPath string
	registry, err := NewRegistry(RegistryConfig{
		ModelsDir: modelsDir,
		Loader: func(_ context.Context, modelPath string) (backends.Model, error) {
			gotPath = modelPath
			return newFakeModel(), nil
		},
	}, nil, WithModelPathTemplate("{model}"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	_, err = registry.Resolve(context.Background(), "text-generation", "")
	require.NoError(t, err)
	assert.Equal(t, dir, gotPath)
}

func TestRegistryUnloadClosesModel(t *testing.T) {
	registry, model, _, _ := newTestRegistry(t)
	ctx := context.Background()

	inst, err := registry.Resolve(ctx, "text-classification", "")
	require.NoError(t, err)
	require.Len(t, registry.LoadedPipelines(), 1)

	registry.Unload(inst.Task, inst.Model)
	assert.Empty(t, registry.LoadedPipelines())
	assert.True(t, model.closed.Load())
}

func TestRegistryCloseUnloadsAll(t *testing.T) {
	registry, model, _, _ := newTestRegistry(t)

	_, err := registry.Resolve(context.Background(), "text-classification", "")
	require.NoError(t, err)

	require.NoError(t, registry.Close())
	assert.True(t, model.closed.Load())
}

func TestRegistryLoaderError(t *testing.T) {
	modelsDir := t.TempDir()
	writeModelDir(t, modelsDir, "text-classification", "distilbert-base-uncased-finetuned-sst-2-english")

	registry, err := NewRegistry(RegistryConfig{
		ModelsDir: modelsDir,
		Loader: func(_ context.Context, _ string) (backends.Model, error) {
			return nil, errors.New("engine unavailable")
		},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	_, err = registry.Resolve(context.Background(), "text-classification", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine unavailable")
	assert.Empty(t, registry.LoadedPipelines())
}
