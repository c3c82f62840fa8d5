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

// Package pipelines provides the Pipeline type that pairs a tokenizer with a
// model for end-to-end inference, plus the per-task pipelines built on it:
// classification, question answering, mask filling, text-to-text, and causal
// generation. The base pipeline handles text encoding, padding, truncation,
// and the forward pass; the task pipelines decode raw model output into
// structured results.
package pipelines

import (
	"context"
	"fmt"

	"github.com/antflydb/anthill/lib/backends"
	"github.com/antflydb/anthill/lib/tokenizers"
)

// PaddingStrategy specifies how to pad sequences.
type PaddingStrategy string

const (
	// PaddingNone disables padding (sequences must be same length).
	PaddingNone PaddingStrategy = "none"
	// PaddingLongest pads to the longest sequence in the batch.
	PaddingLongest PaddingStrategy = "longest"
	// PaddingMaxLength pads to the configured max length.
	PaddingMaxLength PaddingStrategy = "max_length"
)

// TruncationStrategy specifies how to truncate sequences.
type TruncationStrategy string

const (
	// TruncationNone disables truncation (will error if too long).
	TruncationNone TruncationStrategy = "none"
	// TruncationLongestFirst truncates the longest sequence first (for pairs).
	TruncationLongestFirst TruncationStrategy = "longest_first"
)

// PipelineConfig holds configuration for a Pipeline.
type PipelineConfig struct {
	// MaxLength is the maximum sequence length.
	MaxLength int

	// Padding specifies the padding strategy.
	Padding PaddingStrategy

	// Truncation specifies the truncation strategy.
	Truncation TruncationStrategy

	// PadTokenID is the token ID used for padding.
	// If zero, attempts to get from tokenizer.
	PadTokenID int32

	// AddSpecialTokens controls whether to add [CLS], [SEP], etc.
	AddSpecialTokens bool
}

// DefaultPipelineConfig returns a PipelineConfig with sensible defaults.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		MaxLength:        512,
		Padding:          PaddingLongest,
		Truncation:       TruncationLongestFirst,
		AddSpecialTokens: true,
	}
}

// PipelineOption is a functional option for configuring a Pipeline.
type PipelineOption func(*PipelineConfig)

// WithMaxLength sets the maximum sequence length.
func WithMaxLength(length int) PipelineOption {
	return func(c *PipelineConfig) {
		c.MaxLength = length
	}
}

// WithPadding sets the padding strategy.
func WithPadding(strategy PaddingStrategy) PipelineOption {
	return func(c *PipelineConfig) {
		c.Padding = strategy
	}
}

// WithTruncation sets the truncation strategy.
func WithTruncation(strategy TruncationStrategy) PipelineOption {
	return func(c *PipelineConfig) {
		c.Truncation = strategy
	}
}

// WithPadTokenID sets the padding token ID.
func WithPadTokenID(id int32) PipelineOption {
	return func(c *PipelineConfig) {
		c.PadTokenID = id
	}
}

// WithAddSpecialTokens controls whether to add special tokens.
func WithAddSpecialTokens(add bool) PipelineOption {
	return func(c *PipelineConfig) {
		c.AddSpecialTokens = add
	}
}

// Pipeline pairs a tokenizer with a model for end-to-end inference.
// It handles text encoding, padding, truncation, and model execution.
type Pipeline struct {
	// Tokenizer handles text-to-token conversion.
	Tokenizer tokenizers.Tokenizer

	// Model performs inference on tokenized inputs.
	Model backends.Model

	// Config holds pipeline configuration.
	Config *PipelineConfig
}

// New creates a new Pipeline with the given tokenizer and model.
func New(tokenizer tokenizers.Tokenizer, model backends.Model, opts ...PipelineOption) *Pipeline {
	config := DefaultPipelineConfig()
	for _, opt := range opts {
		opt(config)
	}

	// Try to get pad token from tokenizer if not set
	if config.PadTokenID == 0 {
		if padID, ok := tokenizer.PadTokenID(); ok {
			config.PadTokenID = padID
		}
	}

	return &Pipeline{
		Tokenizer: tokenizer,
		Model:     model,
		Config:    config,
	}
}

// EncodedBatch holds the result of encoding a batch of texts.
type EncodedBatch struct {
	// InputIDs contains token IDs [batch, seq].
	InputIDs [][]int32

	// AttentionMask contains attention mask [batch, seq].
	AttentionMask [][]int32

	// TokenTypeIDs contains token type IDs [batch, seq] (optional).
	TokenTypeIDs [][]int32

	// OriginalLengths contains the original (pre-padding) length of each sequence.
	OriginalLengths []int
}

// Encode tokenizes and encodes a batch of texts.
// The result is padded and truncated according to the pipeline config.
func (p *Pipeline) Encode(texts []string) (*EncodedBatch, error) {
	if len(texts) == 0 {
		return &EncodedBatch{}, nil
	}

	// Tokenize all texts
	var allTokens [][]int32
	maxLen := 0
	for _, text := range texts {
		tokens := p.Tokenizer.Encode(text)
		allTokens = append(allTokens, tokens)
		if len(tokens) > maxLen {
			maxLen = len(tokens)
		}
	}

	// Determine target length
	targetLen := maxLen
	switch p.Config.Padding {
	case PaddingMaxLength:
		targetLen = p.Config.MaxLength
	case PaddingLongest:
		// Keep maxLen
	case PaddingNone:
		// No padding; all sequences must be same length
		for _, tokens := range allTokens {
			if len(tokens) != maxLen {
				return nil, fmt.Errorf("padding=none but sequences have different lengths")
			}
		}
	}

	// Apply truncation
	if p.Config.Truncation != TruncationNone && targetLen > p.Config.MaxLength {
		targetLen = p.Config.MaxLength
	}

	// Build output arrays
	batch := &EncodedBatch{
		InputIDs:        make([][]int32, len(texts)),
		AttentionMask:   make([][]int32, len(texts)),
		OriginalLengths: make([]int, len(texts)),
	}

	for i, tokens := range allTokens {
		batch.OriginalLengths[i] = len(tokens)

		// Truncate if needed
		if len(tokens) > targetLen {
			tokens = tokens[:targetLen]
		}

		inputIDs := make([]int32, targetLen)
		attentionMask := make([]int32, targetLen)

		for j, tok := range tokens {
			inputIDs[j] = tok
			attentionMask[j] = 1
		}

		// Pad remaining positions
		for j := len(tokens); j < targetLen; j++ {
			inputIDs[j] = p.Config.PadTokenID
			attentionMask[j] = 0
		}

		batch.InputIDs[i] = inputIDs
		batch.AttentionMask[i] = attentionMask
	}

	return batch, nil
}

// EncodePair tokenizes a pair of texts (e.g., question and context for
// extractive QA). The texts are concatenated with appropriate separators:
// [CLS] text1 [SEP] text2 [SEP].
func (p *Pipeline) EncodePair(text1, text2 string) (*EncodedBatch, error) {
	sepID, ok := p.Tokenizer.SeparatorTokenID()
	if !ok {
		return nil, fmt.Errorf("tokenizer has no separator token")
	}
	clsID, ok := p.Tokenizer.ClassifierTokenID()
	if !ok {
		return nil, fmt.Errorf("tokenizer has no classifier token")
	}

	tokens1 := p.Tokenizer.Encode(text1)
	tokens2 := p.Tokenizer.Encode(text2)
	tokens1 = stripSpecial(tokens1, clsID, sepID)
	tokens2 = stripSpecial(tokens2, clsID, sepID)

	// Combine: [CLS] tokens1 [SEP] tokens2 [SEP]
	combined := make([]int32, 0, len(tokens1)+len(tokens2)+3)
	if p.Config.AddSpecialTokens {
		combined = append(combined, clsID)
	}
	combined = append(combined, tokens1...)
	if p.Config.AddSpecialTokens {
		combined = append(combined, sepID)
	}
	combined = append(combined, tokens2...)
	if p.Config.AddSpecialTokens {
		combined = append(combined, sepID)
	}

	// Truncate if needed
	if len(combined) > p.Config.MaxLength {
		combined = combined[:p.Config.MaxLength]
	}

	// Build token type IDs: 0 for the first segment including its [SEP],
	// 1 for the second segment and the final [SEP].
	tokenTypeIDs := make([]int32, len(combined))
	inSecond := false
	sepCount := 0
	for i := range combined {
		if inSecond {
			tokenTypeIDs[i] = 1
		}
		if combined[i] == sepID {
			sepCount++
			if sepCount == 1 {
				inSecond = true
			}
		}
	}

	attentionMask := make([]int32, len(combined))
	for i := range attentionMask {
		attentionMask[i] = 1
	}

	return &EncodedBatch{
		InputIDs:        [][]int32{combined},
		AttentionMask:   [][]int32{attentionMask},
		TokenTypeIDs:    [][]int32{tokenTypeIDs},
		OriginalLengths: []int{len(combined)},
	}, nil
}

// stripSpecial drops leading and trailing [CLS]/[SEP] a tokenizer may have
// added, so EncodePair controls special-token placement itself.
func stripSpecial(tokens []int32, clsID, sepID int32) []int32 {
	for len(tokens) > 0 && (tokens[0] == clsID || tokens[0] == sepID) {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && (tokens[len(tokens)-1] == clsID || tokens[len(tokens)-1] == sepID) {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// Forward runs model inference on raw text inputs.
// This is a convenience method that combines Encode and model.Forward.
func (p *Pipeline) Forward(ctx context.Context, texts []string) (*backends.RawOutput, error) {
	batch, err := p.Encode(texts)
	if err != nil {
		return nil, fmt.Errorf("encoding texts: %w", err)
	}

	inputs := &backends.ModelInputs{
		InputIDs:      batch.InputIDs,
		AttentionMask: batch.AttentionMask,
		TokenTypeIDs:  batch.TokenTypeIDs,
	}

	return p.Model.Forward(ctx, inputs)
}

// TokenCount returns the number of tokens in a text.
func (p *Pipeline) TokenCount(text string) int {
	return len(p.Tokenizer.Encode(text))
}

// Close releases resources held by the pipeline.
func (p *Pipeline) Close() error {
	return p.Model.Close()
}
