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
	"strings"

	"github.com/antflydb/anthill/lib/backends"
)

// fakeTokenizer splits on whitespace and assigns vocabulary IDs on demand.
// IDs 0-4 are reserved for [PAD], [UNK], [CLS], [SEP], [MASK].
type fakeTokenizer struct {
	vocab   map[string]int32
	reverse map[int32]string
}

const (
	fakePad  int32 = 0
	fakeUnk  int32 = 1
	fakeCls  int32 = 2
	fakeSep  int32 = 3
	fakeMask int32 = 4
)

func newFakeTokenizer() *fakeTokenizer {
	t := &fakeTokenizer{
		vocab:   make(map[string]int32),
		reverse: make(map[int32]string),
	}
	for id, tok := range map[int32]string{
		fakePad: "[PAD]", fakeUnk: "[UNK]", fakeCls: "[CLS]",
		fakeSep: "[SEP]", fakeMask: "[MASK]",
	} {
		t.vocab[tok] = id
		t.reverse[id] = tok
	}
	return t
}

func (t *fakeTokenizer) id(word string) int32 {
	if id, ok := t.vocab[word]; ok {
		return id
	}
	id := int32(len(t.vocab))
	t.vocab[word] = id
	t.reverse[id] = word
	return id
}

func (t *fakeTokenizer) Encode(text string) []int32 {
	var ids []int32
	for _, word := range strings.Fields(text) {
		ids = append(ids, t.id(word))
	}
	return ids
}

func (t *fakeTokenizer) Decode(ids []int32, skipSpecialTokens bool) string {
	var words []string
	for _, id := range ids {
		if skipSpecialTokens && id <= fakeMask {
			continue
		}
		words = append(words, t.reverse[id])
	}
	return strings.Join(words, " ")
}

func (t *fakeTokenizer) TokenString(id int32) string {
	return t.reverse[id]
}

func (t *fakeTokenizer) MaskTokenID() (int32, bool)       { return fakeMask, true }
func (t *fakeTokenizer) SeparatorTokenID() (int32, bool)  { return fakeSep, true }
func (t *fakeTokenizer) ClassifierTokenID() (int32, bool) { return fakeCls, true }
func (t *fakeTokenizer) PadTokenID() (int32, bool)        { return fakePad, true }

// fakeModel returns canned tensors from Forward and delegates Generate to a
// test-provided function, recording the inputs it saw.
type fakeModel struct {
	output     *backends.RawOutput
	config     *backends.ModelConfig
	generateFn func(inputIDs [][]int32, cfg *backends.GenerationConfig) ([][][]int32, error)

	lastInputs   *backends.ModelInputs
	lastGenInput [][]int32
	closed       bool
}

func (m *fakeModel) Forward(_ context.Context, inputs *backends.ModelInputs) (*backends.RawOutput, error) {
	m.lastInputs = inputs
	return m.output, nil
}

func (m *fakeModel) Generate(_ context.Context, inputIDs [][]int32, cfg *backends.GenerationConfig) ([][][]int32, error) {
	m.lastGenInput = inputIDs
	return m.generateFn(inputIDs, cfg)
}

func (m *fakeModel) Config() *backends.ModelConfig {
	if m.config == nil {
		return &backends.ModelConfig{}
	}
	return m.config
}

func (m *fakeModel) Close() error {
	m.closed = true
	return nil
}
