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
	"testing"

	"github.com/antflydb/anthill/lib/backends"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFill(t *testing.T) {
	tok := newFakeTokenizer()
	tok.Encode("hello")
	world := tok.Encode("world")[0]
	there := tok.Encode("there")[0]

	// [1, seq=2, vocab=8]: the mask position favors "world", then "there".
	vocabSize := int64(8)
	data := make([]float32, 2*8)
	data[8+int(world)] = 5
	data[8+int(there)] = 3
	model := &fakeModel{
		output: &backends.RawOutput{Tensors: []backends.NamedTensor{{
			Name:  "logits",
			Data:  data,
			Shape: []int64{1, 2, vocabSize},
		}}},
	}
	p := NewFillMaskPipeline(tok, model)

	results, err := p.Fill(context.Background(), []string{"hello [MASK]"}, &FillOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0], 2)

	assert.Equal(t, world, results[0][0].TokenID)
	assert.Equal(t, "world", results[0][0].TokenStr)
	assert.Equal(t, "hello world", results[0][0].Sequence)
	assert.Equal(t, "there", results[0][1].TokenStr)
	assert.Greater(t, results[0][0].Score, results[0][1].Score)
}

func TestFillRequiresMask(t *testing.T) {
	p := NewFillMaskPipeline(newFakeTokenizer(), &fakeModel{})

	_, err := p.Fill(context.Background(), []string{"no mask here"}, nil)
	assert.ErrorContains(t, err, "no mask token")
}

func TestFillRejectsMultipleMasks(t *testing.T) {
	p := NewFillMaskPipeline(newFakeTokenizer(), &fakeModel{})

	_, err := p.Fill(context.Background(), []string{"[MASK] and [MASK]"}, nil)
	assert.ErrorContains(t, err, "more than one mask")
}

func TestFillText(t *testing.T) {
	tok := newFakeTokenizer()
	sun := tok.Encode("sun")[0]

	data := make([]float32, 1*8)
	data[int(sun)] = 5
	model := &fakeModel{
		output: &backends.RawOutput{Tensors: []backends.NamedTensor{{
			Name:  "logits",
			Data:  data,
			Shape: []int64{1, 1, 8},
		}}},
	}
	p := NewFillMaskPipeline(tok, model)

	results, err := p.FillText(context.Background(), "[MASK]", &FillOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "sun", results[0].TokenStr)
}
