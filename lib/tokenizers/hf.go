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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	hfapi "github.com/gomlx/go-huggingface/tokenizers/api"
	"github.com/gomlx/go-huggingface/tokenizers/hftokenizer"
)

// hfTokenizer adapts the pure-Go HuggingFace tokenizer (tokenizer.json
// format, BPE or WordPiece) to the Tokenizer interface.
type hfTokenizer struct {
	tok     hfapi.Tokenizer
	special map[int32]struct{}
}

var _ Tokenizer = (*hfTokenizer)(nil)

// LoadHF loads a tokenizer.json tokenizer from a model directory, reading
// tokenizer_config.json alongside it when present for special-token names.
func LoadHF(modelPath string) (Tokenizer, error) {
	var config *hfapi.Config
	configPath := filepath.Join(modelPath, "tokenizer_config.json")
	if _, err := os.Stat(configPath); err == nil {
		content, err := normalizeTokenizerConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("normalizing tokenizer config: %w", err)
		}
		config, err = hfapi.ParseConfigContent(content)
		if err != nil {
			return nil, fmt.Errorf("parsing tokenizer config: %w", err)
		}
		config.ConfigFile = configPath
	}

	tok, err := hftokenizer.NewFromFile(config, filepath.Join(modelPath, "tokenizer.json"))
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer.json: %w", err)
	}

	t := &hfTokenizer{tok: tok, special: make(map[int32]struct{})}
	for st := hfapi.SpecialToken(0); st < hfapi.TokSpecialTokensCount; st++ {
		if id, err := tok.SpecialTokenID(st); err == nil {
			t.special[int32(id)] = struct{}{}
		}
	}
	return t, nil
}

func (t *hfTokenizer) Encode(text string) []int32 {
	ids := t.tok.Encode(text)
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = int32(id)
	}
	return out
}

func (t *hfTokenizer) Decode(ids []int32, skipSpecialTokens bool) string {
	raw := make([]int, 0, len(ids))
	for _, id := range ids {
		if skipSpecialTokens {
			if _, ok := t.special[id]; ok {
				continue
			}
		}
		raw = append(raw, int(id))
	}
	return t.tok.Decode(raw)
}

func (t *hfTokenizer) TokenString(id int32) string {
	return t.tok.Decode([]int{int(id)})
}

func (t *hfTokenizer) specialID(st hfapi.SpecialToken) (int32, bool) {
	id, err := t.tok.SpecialTokenID(st)
	if err != nil {
		return 0, false
	}
	return int32(id), true
}

func (t *hfTokenizer) MaskTokenID() (int32, bool) {
	return t.specialID(hfapi.TokMask)
}

// SeparatorTokenID maps to TokEndOfSentence, which BERT-style configs bind
// to [SEP].
func (t *hfTokenizer) SeparatorTokenID() (int32, bool) {
	return t.specialID(hfapi.TokEndOfSentence)
}

func (t *hfTokenizer) ClassifierTokenID() (int32, bool) {
	return t.specialID(hfapi.TokClassification)
}

func (t *hfTokenizer) PadTokenID() (int32, bool) {
	return t.specialID(hfapi.TokPad)
}

// normalizeTokenizerConfig rewrites HuggingFace AddedToken objects
// ({"__type": "AddedToken", "content": "<s>"}) in tokenizer_config.json to
// the plain strings the config parser expects.
func normalizeTokenizerConfig(configPath string) ([]byte, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("parsing config JSON: %w", err)
	}

	tokenFields := []string{
		"bos_token", "eos_token", "pad_token", "unk_token",
		"cls_token", "sep_token", "mask_token",
	}
	for _, field := range tokenFields {
		if val, ok := raw[field]; ok {
			raw[field] = extractTokenContent(val)
		}
	}

	return json.Marshal(raw)
}

func extractTokenContent(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if content, ok := val["content"].(string); ok {
			return content
		}
	}
	return ""
}
