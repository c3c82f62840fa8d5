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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TaskParams holds per-task generation parameters from a model's config.json
// (task_specific_params). T5-style models carry the input prefix here.
type TaskParams struct {
	Prefix    string `json:"prefix,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
	MinLength int    `json:"min_length,omitempty"`
	NumBeams  int    `json:"num_beams,omitempty"`
}

// ModelConfig is the static configuration of a model, loaded from its
// config.json.
type ModelConfig struct {
	ModelType     string                `json:"model_type"`
	Architectures []string              `json:"architectures,omitempty"`
	ID2Label      map[int]string        `json:"id2label,omitempty"`
	TaskParams    map[string]TaskParams `json:"task_specific_params,omitempty"`
	EOSTokenID    int32                 `json:"eos_token_id,omitempty"`
	PadTokenID    int32                 `json:"pad_token_id,omitempty"`
}

// LoadConfig reads and parses config.json from a model directory. A missing
// file is not an error; an empty config is returned so pipelines can fall
// back to their defaults.
func LoadConfig(modelPath string) (*ModelConfig, error) {
	content, err := os.ReadFile(filepath.Join(modelPath, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &ModelConfig{}, nil
		}
		return nil, fmt.Errorf("reading config.json: %w", err)
	}

	var cfg ModelConfig
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config.json: %w", err)
	}
	return &cfg, nil
}

// Label returns the human-readable label for a class index, falling back to
// the HuggingFace "LABEL_<n>" convention when id2label has no entry.
func (c *ModelConfig) Label(index int) string {
	if c != nil && c.ID2Label != nil {
		if label, ok := c.ID2Label[index]; ok {
			return label
		}
	}
	return fmt.Sprintf("LABEL_%d", index)
}

// PrefixFor returns the input prefix for a task, if the model's
// task_specific_params define one. The task name includes any variant suffix
// (e.g. "translation_en_to_fr").
func (c *ModelConfig) PrefixFor(task string) string {
	if c == nil || c.TaskParams == nil {
		return ""
	}
	return c.TaskParams[task].Prefix
}
