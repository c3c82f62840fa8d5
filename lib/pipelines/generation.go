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

// GenerationPipeline runs decoder-only (causal) text generation. Generated
// output continues the prompt, so decoded results include the prompt text.
type GenerationPipeline struct {
	base *Pipeline
}

// NewGenerationPipeline creates a causal text-generation pipeline.
func NewGenerationPipeline(tokenizer tokenizers.Tokenizer, model backends.Model, opts ...PipelineOption) *GenerationPipeline {
	return &GenerationPipeline{base: New(tokenizer, model, opts...)}
}

// Generate continues each prompt. For each input it returns
// cfg.NumReturnSequences outputs; each output text starts with the prompt.
// The model contract for decoder-only generation is that returned sequences
// are continuations, so the prompt tokens are prepended before decoding.
func (p *GenerationPipeline) Generate(ctx context.Context, prompts []string, cfg *backends.GenerationConfig) ([][]string, error) {
	if len(prompts) == 0 {
		return nil, nil
	}
	if cfg == nil {
		cfg = backends.DefaultGenerationConfig()
	}

	inputIDs := make([][]int32, len(prompts))
	for i, prompt := range prompts {
		inputIDs[i] = p.base.Tokenizer.Encode(prompt)
	}

	sequences, err := p.base.Model.Generate(ctx, inputIDs, cfg)
	if err != nil {
		return nil, fmt.Errorf("generating: %w", err)
	}
	if len(sequences) != len(prompts) {
		return nil, fmt.Errorf("model returned %d outputs for %d prompts", len(sequences), len(prompts))
	}

	results := make([][]string, len(sequences))
	for i, seqs := range sequences {
		decoded := make([]string, len(seqs))
		for j, ids := range seqs {
			full := make([]int32, 0, len(inputIDs[i])+len(ids))
			full = append(full, inputIDs[i]...)
			full = append(full, ids...)
			decoded[j] = p.base.Tokenizer.Decode(full, true)
		}
		results[i] = decoded
	}
	return results, nil
}

// GenerateText continues a single prompt with a single output.
func (p *GenerationPipeline) GenerateText(ctx context.Context, prompt string, cfg *backends.GenerationConfig) (string, error) {
	results, err := p.Generate(ctx, []string{prompt}, cfg)
	if err != nil {
		return "", err
	}
	return results[0][0], nil
}

// Close releases resources held by the pipeline.
func (p *GenerationPipeline) Close() error {
	return p.base.Close()
}
