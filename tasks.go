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
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// TaskKind selects the post-processing a pipeline applies to model output.
type TaskKind string

const (
	// KindClassification maps logits to labeled probabilities.
	KindClassification TaskKind = "classification"
	// KindQuestionAnswering extracts answer spans from a context.
	KindQuestionAnswering TaskKind = "question-answering"
	// KindFillMask predicts candidates for a masked token.
	KindFillMask TaskKind = "fill-mask"
	// KindText2Text runs encoder-decoder generation.
	KindText2Text TaskKind = "text2text"
	// KindGeneration runs decoder-only (causal) generation.
	KindGeneration TaskKind = "generation"
)

// TaskConfig describes one supported task.
type TaskConfig struct {
	// Kind selects the pipeline type.
	Kind TaskKind

	// DefaultModel is used when the caller names no model.
	DefaultModel string

	// ResultKey names the output field for generation tasks
	// ("summary_text", "translation_text", "generated_text").
	ResultKey string
}

// taskTable maps canonical task names to their configuration. Variant-keyed
// tasks ("translation_en_to_fr") resolve to their base name here; the full
// name is kept for model prefix lookup.
var taskTable = map[string]TaskConfig{
	"text-classification": {
		Kind:         KindClassification,
		DefaultModel: "distilbert-base-uncased-finetuned-sst-2-english",
	},
	"question-answering": {
		Kind:         KindQuestionAnswering,
		DefaultModel: "distilbert-base-cased-distilled-squad",
	},
	"fill-mask": {
		Kind:         KindFillMask,
		DefaultModel: "distilroberta-base",
	},
	"summarization": {
		Kind:         KindText2Text,
		DefaultModel: "t5-small",
		ResultKey:    "summary_text",
	},
	"translation": {
		Kind:         KindText2Text,
		DefaultModel: "t5-small",
		ResultKey:    "translation_text",
	},
	"text2text-generation": {
		Kind:         KindText2Text,
		DefaultModel: "t5-small",
		ResultKey:    "generated_text",
	},
	"text-generation": {
		Kind:         KindGeneration,
		DefaultModel: "distilgpt2",
		ResultKey:    "generated_text",
	},
}

// taskAliases maps alternate task names to their canonical entry.
var taskAliases = map[string]string{
	"sentiment-analysis": "text-classification",
}

// UnsupportedTaskError is returned when a task name resolves to nothing in
// the task table.
type UnsupportedTaskError struct {
	Task string
}

func (e *UnsupportedTaskError) Error() string {
	return fmt.Sprintf("unsupported task %q (supported: %s)",
		e.Task, strings.Join(SupportedTasks(), ", "))
}

// SupportedTasks returns the canonical task names in sorted order.
func SupportedTasks() []string {
	names := make([]string, 0, len(taskTable))
	for name := range taskTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Aliases returns the alias table (alias -> canonical name).
func Aliases() map[string]string {
	out := make(map[string]string, len(taskAliases))
	for alias, canonical := range taskAliases {
		out[alias] = canonical
	}
	return out
}

// TaskInfo describes one supported task for listings.
type TaskInfo struct {
	Task         string   `json:"task"`
	Kind         TaskKind `json:"kind"`
	DefaultModel string   `json:"default_model"`
	ResultKey    string   `json:"result_key,omitempty"`
	Aliases      []string `json:"aliases,omitempty"`
}

// Tasks returns the supported tasks with their aliases, sorted by name.
func Tasks() []TaskInfo {
	aliases := make(map[string][]string)
	for alias, canonical := range taskAliases {
		aliases[canonical] = append(aliases[canonical], alias)
	}

	tasks := make([]TaskInfo, 0, len(taskTable))
	for _, name := range SupportedTasks() {
		cfg := taskTable[name]
		tasks = append(tasks, TaskInfo{
			Task:         name,
			Kind:         cfg.Kind,
			DefaultModel: cfg.DefaultModel,
			ResultKey:    cfg.ResultKey,
			Aliases:      aliases[name],
		})
	}
	return tasks
}

// ModelDir returns the directory a task/model pair resolves to under
// modelsDir with the default path template. An empty model selects the
// task's default model.
func ModelDir(modelsDir, task, model string) (string, error) {
	canonical, _, cfg, err := resolveTask(task)
	if err != nil {
		return "", err
	}
	if model == "" {
		model = cfg.DefaultModel
	}
	return filepath.Join(modelsDir, canonical, model), nil
}

// resolveTask maps a task name to its canonical table entry. Resolution
// order: alias lookup, exact lookup, then variant split on the first
// underscore ("translation_en_to_fr" resolves to "translation" with variant
// "en_to_fr").
func resolveTask(task string) (canonical, variant string, cfg TaskConfig, err error) {
	if target, ok := taskAliases[task]; ok {
		task = target
	}
	if cfg, ok := taskTable[task]; ok {
		return task, "", cfg, nil
	}
	if i := strings.Index(task, "_"); i > 0 {
		base := task[:i]
		if cfg, ok := taskTable[base]; ok {
			return base, task[i+1:], cfg, nil
		}
	}
	return "", "", TaskConfig{}, &UnsupportedTaskError{Task: task}
}
