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

// Package tokenizers adapts concrete tokenizer implementations (HuggingFace
// tokenizer.json, BERT WordPiece vocab files, tiktoken BPE) to the single
// interface the pipelines consume.
package tokenizers

import (
	"fmt"
	"os"
	"path/filepath"
)

// Tokenizer converts between text and token-id sequences. Implementations
// must be safe for concurrent use.
type Tokenizer interface {
	// Encode returns the text as a sequence of token IDs, including any
	// special tokens the underlying tokenizer adds.
	Encode(text string) []int32

	// Decode returns the text for a sequence of token IDs. With
	// skipSpecialTokens set, control tokens ([CLS], [SEP], [PAD], mask
	// placeholders) are dropped before decoding.
	Decode(ids []int32, skipSpecialTokens bool) string

	// TokenString returns the surface form of a single vocabulary entry.
	TokenString(id int32) string

	// MaskTokenID returns the mask placeholder ID, if the vocabulary has one.
	MaskTokenID() (int32, bool)

	// SeparatorTokenID returns the segment separator ID ([SEP] or EOS),
	// if the vocabulary has one.
	SeparatorTokenID() (int32, bool)

	// ClassifierTokenID returns the classification token ID ([CLS]),
	// if the vocabulary has one.
	ClassifierTokenID() (int32, bool)

	// PadTokenID returns the padding token ID, if the vocabulary has one.
	PadTokenID() (int32, bool)
}

// Load loads a tokenizer from a local model directory, auto-detecting the
// format: tokenizer.json (HuggingFace Tokenizers), then vocab.txt (BERT
// WordPiece). Causal models shipped without tokenizer files use NewBPE
// directly.
func Load(modelPath string) (Tokenizer, error) {
	tokenizerJSONPath := filepath.Join(modelPath, "tokenizer.json")
	if _, err := os.Stat(tokenizerJSONPath); err == nil {
		return LoadHF(modelPath)
	}

	vocabPath := filepath.Join(modelPath, "vocab.txt")
	if _, err := os.Stat(vocabPath); err == nil {
		return LoadWordPiece(modelPath)
	}

	return nil, fmt.Errorf("no tokenizer found in %s (expected tokenizer.json or vocab.txt)", modelPath)
}
