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

package backends

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	content := `{
		"model_type": "t5",
		"id2label": {"0": "NEGATIVE", "1": "POSITIVE"},
		"task_specific_params": {
			"summarization": {"prefix": "summarize: ", "max_length": 200},
			"translation_en_to_fr": {"prefix": "translate English to French: "}
		},
		"eos_token_id": 1
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "t5", cfg.ModelType)
	assert.Equal(t, "POSITIVE", cfg.Label(1))
	assert.Equal(t, "LABEL_5", cfg.Label(5))
	assert.Equal(t, "summarize: ", cfg.PrefixFor("summarization"))
	assert.Equal(t, "translate English to French: ", cfg.PrefixFor("translation_en_to_fr"))
	assert.Equal(t, "", cfg.PrefixFor("text2text-generation"))
	assert.Equal(t, int32(1), cfg.EOSTokenID)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "LABEL_0", cfg.Label(0))
	assert.Equal(t, "", cfg.PrefixFor("summarization"))
}

func TestRawOutputTensor(t *testing.T) {
	out := &RawOutput{Tensors: []NamedTensor{
		{Name: "logits", Data: []float32{1, 2, 3, 4}, Shape: []int64{2, 2}},
	}}

	raw, err := out.Tensor("logits")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 2}, raw.Shape)

	_, err = out.Tensor("start_logits")
	assert.Error(t, err)
}
