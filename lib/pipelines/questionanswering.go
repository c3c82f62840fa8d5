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
	"errors"
	"fmt"

	"github.com/antflydb/anthill/lib/backends"
	"github.com/antflydb/anthill/lib/scores"
	"github.com/antflydb/anthill/lib/tokenizers"
)

// ErrNoAnswerFound is returned when span selection produces no valid
// start/end pair inside the context segment.
var ErrNoAnswerFound = errors.New("no answer found in context")

// Answer is one extracted answer span.
type Answer struct {
	// Answer is the decoded span text.
	Answer string `json:"answer"`

	// Score is the product of the start and end probabilities.
	Score float32 `json:"score"`

	// Start and End are the token indices of the span in the encoded
	// question+context sequence, inclusive.
	Start int `json:"start"`
	End   int `json:"end"`
}

// AnswerOptions controls span selection.
type AnswerOptions struct {
	// TopK is how many answer candidates to return. Zero means 1.
	TopK int
}

// QAPipeline extracts answer spans from a context given a question.
// The model must produce start_logits and end_logits tensors.
type QAPipeline struct {
	base *Pipeline
}

// NewQAPipeline creates a question-answering pipeline over the given
// tokenizer and model.
func NewQAPipeline(tokenizer tokenizers.Tokenizer, model backends.Model, opts ...PipelineOption) *QAPipeline {
	return &QAPipeline{base: New(tokenizer, model, opts...)}
}

// AnswerQuestion extracts the top-k answer spans for a question from a
// context. Candidate spans are restricted to tokens after the first
// separator (the context segment), start must not exceed end, and each
// candidate scores start_prob * end_prob. Returns ErrNoAnswerFound when no
// valid span exists.
func (p *QAPipeline) AnswerQuestion(ctx context.Context, question, contextText string, opts *AnswerOptions) ([]Answer, error) {
	topK := 1
	if opts != nil && opts.TopK > 0 {
		topK = opts.TopK
	}

	batch, err := p.base.EncodePair(question, contextText)
	if err != nil {
		return nil, fmt.Errorf("encoding question and context: %w", err)
	}

	output, err := p.base.Model.Forward(ctx, &backends.ModelInputs{
		InputIDs:      batch.InputIDs,
		AttentionMask: batch.AttentionMask,
		TokenTypeIDs:  batch.TokenTypeIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("forward pass: %w", err)
	}

	startProbs, err := logitRow(output, "start_logits")
	if err != nil {
		return nil, err
	}
	endProbs, err := logitRow(output, "end_logits")
	if err != nil {
		return nil, err
	}
	if len(endProbs) != len(startProbs) {
		return nil, fmt.Errorf("start_logits and end_logits lengths differ (%d vs %d)",
			len(startProbs), len(endProbs))
	}

	inputIDs := batch.InputIDs[0]
	sepIdx := p.separatorIndex(inputIDs)
	if sepIdx < 0 {
		return nil, fmt.Errorf("encoded input has no separator token")
	}

	// Cartesian product of span candidates inside the context segment.
	var candidates []spanCandidate
	limit := min(len(startProbs), len(inputIDs))
	for start := sepIdx + 1; start < limit; start++ {
		for end := start; end < limit; end++ {
			candidates = append(candidates, spanCandidate{
				start: start,
				end:   end,
				score: startProbs[start] * endProbs[end],
			})
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoAnswerFound
	}

	ranked := make([]scores.Candidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = scores.Candidate{Index: i, Score: c.score}
	}
	best := scores.TopKCandidates(ranked, topK)

	answers := make([]Answer, len(best))
	for i, c := range best {
		span := candidates[c.Index]
		answers[i] = Answer{
			Answer: p.base.Tokenizer.Decode(inputIDs[span.start:span.end+1], true),
			Score:  span.score,
			Start:  span.start,
			End:    span.end,
		}
	}

	return answers, nil
}

// Answer returns the single best answer span.
func (p *QAPipeline) Answer(ctx context.Context, question, contextText string) (Answer, error) {
	answers, err := p.AnswerQuestion(ctx, question, contextText, nil)
	if err != nil {
		return Answer{}, err
	}
	return answers[0], nil
}

// Close releases resources held by the pipeline.
func (p *QAPipeline) Close() error {
	return p.base.Close()
}

type spanCandidate struct {
	start int
	end   int
	score float32
}

// separatorIndex returns the index of the first separator token, which marks
// the boundary between question and context segments.
func (p *QAPipeline) separatorIndex(inputIDs []int32) int {
	sepID, ok := p.base.Tokenizer.SeparatorTokenID()
	if !ok {
		return -1
	}
	for i, id := range inputIDs {
		if id == sepID {
			return i
		}
	}
	return -1
}

// logitRow extracts a [1, seq] logits tensor and returns its softmax.
func logitRow(output *backends.RawOutput, name string) ([]float32, error) {
	raw, err := output.Tensor(name)
	if err != nil {
		return nil, err
	}
	rows, err := raw.Rows2D()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("%s has %d rows, expected 1", name, len(rows))
	}
	return scores.Softmax(rows[0]), nil
}
