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

package pipelines

import (
	"context"
	"fmt"

	"github.com/antflydb/anthill/lib/backends"
	"github.com/antflydb/anthill/lib/tokenizers"
)

// Text2TextPipeline runs encoder-decoder generation (summarization,
// translation, generic text-to-text). Inputs may be prefixed with a
// task-specific instruction the way T5-style models expect
// ("summarize: ...", "translate English to French: ...").
type Text2TextPipeline struct {
	base *Pipeline

	// Task is the full task name including any variant suffix
	// (e.g. "translation_en_to_fr"), used to look up the input prefix in
	// the model's task_specific_params.
	Task string

	// ResultKey names the output field for API rendering: "summary_text",
	// "translation_text", or "generated_text".
	ResultKey string

	// Prefix overrides the model's task-specific prefix when non-empty.
	Prefix string
}

// Text2TextOption configures a Text2TextPipeline.
type Text2TextOption func(*Text2TextPipeline)

// WithPrefix overrides the input prefix derived from the model config.
func WithPrefix(prefix string) Text2TextOption {
	return func(p *Text2TextPipeline) {
		p.Prefix = prefix
	}
}

// NewText2TextPipeline creates a text-to-text pipeline for the given task.
func NewText2TextPipeline(tokenizer tokenizers.Tokenizer, model backends.Model, task, resultKey string, opts ...Text2TextOption) *Text2TextPipeline {
	p := &Text2TextPipeline{
		base:      New(tokenizer, model),
		Task:      task,
		ResultKey: resultKey,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// prefix resolves the input prefix: explicit override first, then the
// model's task_specific_params.
func (p *Text2TextPipeline) prefix() string {
	if p.Prefix != "" {
		return p.Prefix
	}
	return p.base.Model.Config().PrefixFor(p.Task)
}

// Generate runs generation for a batch of texts. For each input it returns
// cfg.NumReturnSequences decoded outputs (default 1), special tokens
// stripped.
func (p *Text2TextPipeline) Generate(ctx context.Context, texts []string, cfg *backends.GenerationConfig) ([][]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if cfg == nil {
		cfg = backends.DefaultGenerationConfig()
	}

	prefix := p.prefix()
	inputIDs := make([][]int32, len(texts))
	for i, text := range texts {
		inputIDs[i] = p.base.Tokenizer.Encode(prefix + text)
	}

	sequences, err := p.base.Model.Generate(ctx, inputIDs, cfg)
	if err != nil {
		return nil, fmt.Errorf("generating: %w", err)
	}
	if len(sequences) != len(texts) {
		return nil, fmt.Errorf("model returned %d outputs for %d texts", len(sequences), len(texts))
	}

	results := make([][]string, len(sequences))
	for i, seqs := range sequences {
		decoded := make([]string, len(seqs))
		for j, ids := range seqs {
			decoded[j] = p.base.Tokenizer.Decode(ids, true)
		}
		results[i] = decoded
	}
	return results, nil
}

// GenerateText generates a single output for a single input.
func (p *Text2TextPipeline) GenerateText(ctx context.Context, text string, cfg *backends.GenerationConfig) (string, error) {
	results, err := p.Generate(ctx, []string{text}, cfg)
	if err != nil {
		return "", err
	}
	return results[0][0], nil
}

// Close releases resources held by the pipeline.
func (p *Text2TextPipeline) Close() error {
	return p.base.Close()
}
