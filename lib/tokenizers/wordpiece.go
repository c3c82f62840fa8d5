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
	"os"
	"path/filepath"
	"strings"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/decoder"
	"github.com/sugarme/tokenizer/model"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
	"github.com/sugarme/tokenizer/processor"
	"github.com/sugarme/tokenizer/util"
)

// wordPieceTokenizer adapts a sugarme BERT WordPiece tokenizer built from a
// model directory's vocab.txt.
type wordPieceTokenizer struct {
	tk   *tokenizer.Tokenizer
	mask int32
	sep  int32
	cls  int32
	pad  int32
}

var _ Tokenizer = (*wordPieceTokenizer)(nil)

// LoadWordPiece builds a BERT WordPiece tokenizer from the vocab.txt in a
// model directory (one token per line, ID is the line number).
func LoadWordPiece(modelPath string) (Tokenizer, error) {
	content, err := os.ReadFile(filepath.Join(modelPath, "vocab.txt"))
	if err != nil {
		return nil, fmt.Errorf("reading vocab.txt: %w", err)
	}

	vocab := make(model.Vocab)
	for i, line := range strings.Split(string(content), "\n") {
		if line != "" {
			vocab[strings.TrimRight(line, "\r")] = i
		}
	}

	opts := util.NewParams(map[string]any{
		"unk_token": "[UNK]",
	})
	wp, err := wordpiece.New(vocab, opts)
	if err != nil {
		return nil, fmt.Errorf("creating wordpiece model: %w", err)
	}

	tk := tokenizer.NewTokenizer(wp)
	tk.WithNormalizer(normalizer.NewBertNormalizer(true, true, true, true))
	tk.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())

	sepID, ok := tk.TokenToId("[SEP]")
	if !ok {
		return nil, fmt.Errorf("vocab has no [SEP] token")
	}
	clsID, ok := tk.TokenToId("[CLS]")
	if !ok {
		return nil, fmt.Errorf("vocab has no [CLS] token")
	}

	tk.WithPostProcessor(processor.NewBertProcessing(
		processor.PostToken{Id: sepID, Value: "[SEP]"},
		processor.PostToken{Id: clsID, Value: "[CLS]"},
	))
	tk.AddSpecialTokens([]tokenizer.AddedToken{tokenizer.NewAddedToken("[MASK]", true)})
	tk.AddSpecialTokens([]tokenizer.AddedToken{tokenizer.NewAddedToken("[SEP]", true)})
	tk.AddSpecialTokens([]tokenizer.AddedToken{tokenizer.NewAddedToken("[CLS]", true)})
	tk.WithDecoder(decoder.NewWordPieceDecoder("##", true))

	t := &wordPieceTokenizer{tk: tk, sep: int32(sepID), cls: int32(clsID), mask: -1, pad: -1}
	if id, ok := tk.TokenToId("[MASK]"); ok {
		t.mask = int32(id)
	}
	if id, ok := tk.TokenToId("[PAD]"); ok {
		t.pad = int32(id)
	}
	return t, nil
}

func (t *wordPieceTokenizer) Encode(text string) []int32 {
	enc, err := t.tk.EncodeSingle(text, true)
	if err != nil {
		return nil
	}
	out := make([]int32, len(enc.Ids))
	for i, id := range enc.Ids {
		out[i] = int32(id)
	}
	return out
}

func (t *wordPieceTokenizer) Decode(ids []int32, skipSpecialTokens bool) string {
	raw := make([]int, len(ids))
	for i, id := range ids {
		raw[i] = int(id)
	}
	return t.tk.Decode(raw, skipSpecialTokens)
}

func (t *wordPieceTokenizer) TokenString(id int32) string {
	tok, ok := t.tk.IdToToken(int(id))
	if !ok {
		return ""
	}
	return tok
}

func (t *wordPieceTokenizer) MaskTokenID() (int32, bool) {
	return t.mask, t.mask >= 0
}

func (t *wordPieceTokenizer) SeparatorTokenID() (int32, bool) {
	return t.sep, true
}

func (t *wordPieceTokenizer) ClassifierTokenID() (int32, bool) {
	return t.cls, true
}

func (t *wordPieceTokenizer) PadTokenID() (int32, bool) {
	return t.pad, t.pad >= 0
}
