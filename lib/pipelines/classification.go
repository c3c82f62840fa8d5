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

// ClassificationResult is one predicted label for a text.
type ClassificationResult struct {
	// Label is the predicted class label.
	Label string `json:"label"`

	// Score is the softmax probability for the label (0.0 to 1.0).
	Score float32 `json:"score"`
}

// ClassifyOptions controls classification output.
type ClassifyOptions struct {
	// TopK is how many candidate labels to return per text. Zero means 1.
	TopK int
}

// ClassificationPipeline wraps a model for sequence classification tasks.
type ClassificationPipeline struct {
	base *Pipeline
}

// NewClassificationPipeline creates a classification pipeline over the given
// tokenizer and model.
func NewClassificationPipeline(tokenizer tokenizers.Tokenizer, model backends.Model, opts ...PipelineOption) *ClassificationPipeline {
	return &ClassificationPipeline{base: New(tokenizer, model, opts...)}
}

// Classify classifies a batch of texts. For each text it returns the top-k
// labels in descending probability order. Label names come from the model's
// id2label mapping, falling back to "LABEL_<n>".
func (p *ClassificationPipeline) Classify(ctx context.Context, texts []string, opts *ClassifyOptions) ([][]ClassificationResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	topK := 1
	if opts != nil && opts.TopK > 0 {
		topK = opts.TopK
	}

	output, err := p.base.Forward(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("forward pass: %w", err)
	}

	logits, err := output.Tensor("logits")
	if err != nil {
		return nil, err
	}
	rows, err := logits.Rows2D()
	if err != nil {
		return nil, fmt.Errorf("classification logits: %w", err)
	}
	if len(rows) != len(texts) {
		return nil, fmt.Errorf("model returned %d logit rows for %d texts", len(rows), len(texts))
	}

	modelConfig := p.base.Model.Config()
	results := make([][]ClassificationResult, len(rows))
	for i, row := range rows {
		probs := scores.Softmax(row)
		best := scores.TopK(probs, topK)

		candidates := make([]ClassificationResult, len(best))
		for j, c := range best {
			candidates[j] = ClassificationResult{
				Label: modelConfig.Label(c.Index),
				Score: c.Score,
			}
		}
		results[i] = candidates
	}

	return results, nil
}

// ClassifyText classifies a single text and returns its best label.
func (p *ClassificationPipeline) ClassifyText(ctx context.Context, text string) (ClassificationResult, error) {
	results, err := p.Classify(ctx, []string{text}, nil)
	if err != nil {
		return ClassificationResult{}, err
	}
	return results[0][0], nil
}

// Close releases resources held by the pipeline.
func (p *ClassificationPipeline) Close() error {
	return p.base.Close()
}
