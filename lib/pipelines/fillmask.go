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
	"github.com/antflydb/anthill/lib/scores"
	"github.com/antflydb/anthill/lib/tokenizers"
)

// FillResult is one candidate completion for a masked position.
type FillResult struct {
	// Sequence is the input text with the mask replaced by the candidate
	// token, decoded without special tokens.
	Sequence string `json:"sequence"`

	// TokenID is the candidate's vocabulary ID.
	TokenID int32 `json:"token"`

	// TokenStr is the candidate's surface form.
	TokenStr string `json:"token_str"`

	// Score is the softmax probability of the candidate at the mask
	// position.
	Score float32 `json:"score"`
}

// FillOptions controls mask filling.
type FillOptions struct {
	// TopK is how many candidates to return per mask. Zero means 5.
	TopK int
}

// FillMaskPipeline predicts candidate tokens for a masked position in text.
// The tokenizer must have a mask token and the model must produce a
// [batch, seq, vocab] logits tensor.
type FillMaskPipeline struct {
	base *Pipeline
}

// NewFillMaskPipeline creates a fill-mask pipeline over the given tokenizer
// and model.
func NewFillMaskPipeline(tokenizer tokenizers.Tokenizer, model backends.Model, opts ...PipelineOption) *FillMaskPipeline {
	return &FillMaskPipeline{base: New(tokenizer, model, opts...)}
}

// Fill predicts candidates for the mask token in each text. Each text must
// contain the tokenizer's mask token exactly once.
func (p *FillMaskPipeline) Fill(ctx context.Context, texts []string, opts *FillOptions) ([][]FillResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	topK := 5
	if opts != nil && opts.TopK > 0 {
		topK = opts.TopK
	}

	maskID, ok := p.base.Tokenizer.MaskTokenID()
	if !ok {
		return nil, fmt.Errorf("tokenizer has no mask token")
	}

	batch, err := p.base.Encode(texts)
	if err != nil {
		return nil, fmt.Errorf("encoding texts: %w", err)
	}

	// Locate the mask position per sequence before inference.
	maskPositions := make([]int, len(texts))
	for i, ids := range batch.InputIDs {
		pos := -1
		for j, id := range ids {
			if id == maskID {
				if pos >= 0 {
					return nil, fmt.Errorf("input %d contains more than one mask token", i)
				}
				pos = j
			}
		}
		if pos < 0 {
			return nil, fmt.Errorf("input %d contains no mask token", i)
		}
		maskPositions[i] = pos
	}

	output, err := p.base.Model.Forward(ctx, &backends.ModelInputs{
		InputIDs:      batch.InputIDs,
		AttentionMask: batch.AttentionMask,
	})
	if err != nil {
		return nil, fmt.Errorf("forward pass: %w", err)
	}

	logits, err := output.Tensor("logits")
	if err != nil {
		return nil, err
	}
	rows, err := logits.Rows3D()
	if err != nil {
		return nil, fmt.Errorf("fill-mask logits: %w", err)
	}
	if len(rows) != len(texts) {
		return nil, fmt.Errorf("model returned %d logit rows for %d texts", len(rows), len(texts))
	}

	results := make([][]FillResult, len(texts))
	for i := range texts {
		pos := maskPositions[i]
		if pos >= len(rows[i]) {
			return nil, fmt.Errorf("mask position %d outside model output of length %d", pos, len(rows[i]))
		}

		probs := scores.Softmax(rows[i][pos])
		best := scores.TopK(probs, topK)

		candidates := make([]FillResult, len(best))
		for j, c := range best {
			tokenID := int32(c.Index)

			// Substitute the candidate into the input and decode.
			filled := make([]int32, len(batch.InputIDs[i]))
			copy(filled, batch.InputIDs[i])
			filled[pos] = tokenID

			candidates[j] = FillResult{
				Sequence: p.base.Tokenizer.Decode(filled, true),
				TokenID:  tokenID,
				TokenStr: p.base.Tokenizer.TokenString(tokenID),
				Score:    c.Score,
			}
		}
		results[i] = candidates
	}

	return results, nil
}

// FillText predicts candidates for the single mask in one text.
func (p *FillMaskPipeline) FillText(ctx context.Context, text string, opts *FillOptions) ([]FillResult, error) {
	results, err := p.Fill(ctx, []string{text}, opts)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// Close releases resources held by the pipeline.
func (p *FillMaskPipeline) Close() error {
	return p.base.Close()
}
