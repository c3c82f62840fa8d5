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

package tokenizers

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

func init() {
	// Offline loader: embedded BPE dictionaries, no network requests.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// bpeTokenizer adapts tiktoken BPE for GPT-style causal models that ship no
// tokenizer files. BPE vocabularies carry no mask, separator, classifier, or
// pad tokens.
type bpeTokenizer struct {
	tk *tiktoken.Tiktoken
}

var _ Tokenizer = (*bpeTokenizer)(nil)

// NewBPE creates a tiktoken tokenizer for the given encoding:
//   - "r50k_base": GPT-2 lineage (default)
//   - "p50k_base": Codex models
//   - "cl100k_base": GPT-4, GPT-3.5-turbo
func NewBPE(encoding string) (Tokenizer, error) {
	if encoding == "" {
		encoding = "r50k_base"
	}

	tk, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("getting tiktoken encoding %q: %w", encoding, err)
	}
	return &bpeTokenizer{tk: tk}, nil
}

func (t *bpeTokenizer) Encode(text string) []int32 {
	ids := t.tk.Encode(text, nil, nil)
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = int32(id)
	}
	return out
}

func (t *bpeTokenizer) Decode(ids []int32, _ bool) string {
	raw := make([]int, len(ids))
	for i, id := range ids {
		raw[i] = int(id)
	}
	return t.tk.Decode(raw)
}

func (t *bpeTokenizer) TokenString(id int32) string {
	return t.tk.Decode([]int{int(id)})
}

func (t *bpeTokenizer) MaskTokenID() (int32, bool) { return 0, false }

func (t *bpeTokenizer) SeparatorTokenID() (int32, bool) { return 0, false }

func (t *bpeTokenizer) ClassifierTokenID() (int32, bool) { return 0, false }

func (t *bpeTokenizer) PadTokenID() (int32, bool) { return 0, false }
