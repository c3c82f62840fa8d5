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

func TestGenerationPrependsPrompt(t *testing.T) {
	tok := newFakeTokenizer()
	continuation := tok.Encode("wide world")

	model := &fakeModel{
		generateFn: func(inputIDs [][]int32, _ *backends.GenerationConfig) ([][][]int32, error) {
			return [][][]int32{{continuation}}, nil
		},
	}
	p := NewGenerationPipeline(tok, model)

	text, err := p.GenerateText(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello wide world", text)
}

func TestGenerationMultipleReturnSequences(t *testing.T) {
	tok := newFakeTokenizer()
	alt1 := tok.Encode("there")
	alt2 := tok.Encode("again")

	model := &fakeModel{
		generateFn: func(inputIDs [][]int32, cfg *backends.GenerationConfig) ([][][]int32, error) {
			return [][][]int32{{alt1, alt2}}, nil
		},
	}
	p := NewGenerationPipeline(tok, model)

	results, err := p.Generate(context.Background(), []string{"hello"},
		&backends.GenerationConfig{NumReturnSequences: 2})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0], 2)
	assert.Equal(t, "hello there", results[0][0])
	assert.Equal(t, "hello again", results[0][1])
}

func TestGenerationDeterministicRepeat(t *testing.T) {
	tok := newFakeTokenizer()
	continuation := tok.Encode("wide world")

	model := &fakeModel{
		generateFn: func(inputIDs [][]int32, _ *backends.GenerationConfig) ([][][]int32, error) {
			return [][][]int32{{continuation}, {continuation}}, nil
		},
	}
	p := NewGenerationPipeline(tok, model)

	cfg := &backends.GenerationConfig{DoSample: false, MaxNewTokens: 8}
	prompts := []string{"hello", "goodbye"}

	first, err := p.Generate(context.Background(), prompts, cfg)
	require.NoError(t, err)
	second, err := p.Generate(context.Background(), prompts, cfg)
	require.NoError(t, err)

	// Greedy decoding over identical inputs and options is repeatable.
	assert.Equal(t, first, second)
}

func TestGenerationDefaultsConfig(t *testing.T) {
	tok := newFakeTokenizer()
	var seen *backends.GenerationConfig

	model := &fakeModel{
		generateFn: func(inputIDs [][]int32, cfg *backends.GenerationConfig) ([][][]int32, error) {
			seen = cfg
			return [][][]int32{{nil}}, nil
		},
	}
	p := NewGenerationPipeline(tok, model)

	_, err := p.Generate(context.Background(), []string{"hi"}, nil)
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, backends.DefaultGenerationConfig(), seen)
}
