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

// Package backends defines the inference-model contract the pipelines call
// into. The forward pass and autoregressive generation are implemented by
// external engines; this package carries the interface, the input and output
// tensor shapes, and model configuration loading.
package backends

import (
	"context"
	"fmt"

	"github.com/antflydb/anthill/lib/tensor"
)

// Model is a loaded inference model. Implementations must be safe for
// concurrent Forward and Generate calls.
type Model interface {
	// Forward runs one inference pass and returns the raw named output
	// tensors (logits, start_logits, end_logits).
	Forward(ctx context.Context, inputs *ModelInputs) (*RawOutput, error)

	// Generate runs autoregressive decoding. For each input sequence it
	// returns cfg.NumReturnSequences output token-id sequences.
	Generate(ctx context.Context, inputIDs [][]int32, cfg *GenerationConfig) ([][][]int32, error)

	// Config returns the model's static configuration.
	Config() *ModelConfig

	Close() error
}

// ModelInputs contains the token inputs for a forward pass.
type ModelInputs struct {
	InputIDs      [][]int32 // Token IDs [batch, seq]
	AttentionMask [][]int32 // Attention mask [batch, seq]
	TokenTypeIDs  [][]int32 // Optional: token type IDs for BERT-style models [batch, seq]
}

// NamedTensor is one raw output tensor of a forward pass.
type NamedTensor struct {
	Name  string
	Data  []float32
	Shape []int64
}

// Raw returns the tensor as a reshapeable raw buffer.
func (t *NamedTensor) Raw() *tensor.Raw {
	return &tensor.Raw{Data: t.Data, Shape: t.Shape}
}

// RawOutput holds the named output tensors of a forward pass.
type RawOutput struct {
	Tensors []NamedTensor
}

// Tensor returns the named output tensor, or an error if the model did not
// produce it.
func (o *RawOutput) Tensor(name string) (*tensor.Raw, error) {
	for i := range o.Tensors {
		if o.Tensors[i].Name == name {
			return o.Tensors[i].Raw(), nil
		}
	}
	return nil, fmt.Errorf("model output has no tensor %q", name)
}

// GenerationConfig holds parameters for text generation.
type GenerationConfig struct {
	// MaxNewTokens is the maximum number of tokens to generate.
	MaxNewTokens int
	// MinLength is the minimum generation length.
	MinLength int
	// DoSample enables sampling (vs greedy decoding).
	DoSample bool
	// Temperature for sampling (higher = more random).
	Temperature float32
	// TopK limits sampling to top K tokens.
	TopK int
	// TopP (nucleus sampling) limits to tokens with cumulative probability <= TopP.
	TopP float32
	// RepetitionPenalty penalizes repeated tokens.
	RepetitionPenalty float32
	// NumBeams for beam search (1 = greedy/sampling).
	NumBeams int
	// NumReturnSequences is how many sequences to return per input.
	NumReturnSequences int
}

// DefaultGenerationConfig returns sensible defaults for generation.
func DefaultGenerationConfig() *GenerationConfig {
	return &GenerationConfig{
		MaxNewTokens:       256,
		MinLength:          1,
		DoSample:           false, // greedy by default
		Temperature:        1.0,
		TopK:               50,
		TopP:               1.0,
		RepetitionPenalty:  1.0,
		NumBeams:           1,
		NumReturnSequences: 1,
	}
}
