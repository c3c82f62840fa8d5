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

package anthill

import (
	"context"
	"fmt"

	"github.com/antflydb/anthill/lib/backends"
	"github.com/antflydb/anthill/lib/pipelines"
)

// Instance is a resolved task pipeline: a tokenizer and model wired to the
// task's post-processing. Exactly one of the typed pipelines is set,
// matching Kind.
type Instance struct {
	// Task is the full task name, including any variant suffix.
	Task string

	// Model is the model name the instance was resolved with.
	Model string

	// Kind selects which typed pipeline is active.
	Kind TaskKind

	classification *pipelines.ClassificationPipeline
	qa             *pipelines.QAPipeline
	fillMask       *pipelines.FillMaskPipeline
	text2text      *pipelines.Text2TextPipeline
	generation     *pipelines.GenerationPipeline
	resultKey      string
}

// Request is a task-agnostic pipeline invocation.
type Request struct {
	// Inputs are the texts to process. Unused by question answering.
	Inputs []string `json:"inputs,omitempty"`

	// Question and Context are used by question answering.
	Question string `json:"question,omitempty"`
	Context  string `json:"context,omitempty"`

	// TopK bounds candidates for classification, QA, and fill-mask.
	// Zero selects the task's default.
	TopK int `json:"top_k,omitempty"`

	// Generation configures text generation tasks.
	Generation *backends.GenerationConfig `json:"generation,omitempty"`
}

// Result holds the output of a pipeline invocation. The populated field
// matches the instance's task kind.
type Result struct {
	// Classifications has one candidate list per input text.
	Classifications [][]pipelines.ClassificationResult `json:"classifications,omitempty"`

	// Answers are extracted QA spans, best first.
	Answers []pipelines.Answer `json:"answers,omitempty"`

	// Fills has one candidate list per input text.
	Fills [][]pipelines.FillResult `json:"fills,omitempty"`

	// Generations has one output list per input; each output maps the
	// task's result key ("summary_text", "translation_text",
	// "generated_text") to the generated text.
	Generations [][]map[string]string `json:"generations,omitempty"`
}

// Call dispatches a request to the instance's pipeline.
func (i *Instance) Call(ctx context.Context, req *Request) (*Result, error) {
	switch i.Kind {
	case KindClassification:
		results, err := i.classification.Classify(ctx, req.Inputs, &pipelines.ClassifyOptions{TopK: req.TopK})
		if err != nil {
			return nil, err
		}
		return &Result{Classifications: results}, nil

	case KindQuestionAnswering:
		if req.Question == "" || req.Context == "" {
			return nil, fmt.Errorf("question-answering requires question and context")
		}
		answers, err := i.qa.AnswerQuestion(ctx, req.Question, req.Context, &pipelines.AnswerOptions{TopK: req.TopK})
		if err != nil {
			return nil, err
		}
		return &Result{Answers: answers}, nil

	case KindFillMask:
		results, err := i.fillMask.Fill(ctx, req.Inputs, &pipelines.FillOptions{TopK: req.TopK})
		if err != nil {
			return nil, err
		}
		return &Result{Fills: results}, nil

	case KindText2Text:
		outputs, err := i.text2text.Generate(ctx, req.Inputs, req.Generation)
		if err != nil {
			return nil, err
		}
		return &Result{Generations: keyed(outputs, i.text2text.ResultKey)}, nil

	case KindGeneration:
		outputs, err := i.generation.Generate(ctx, req.Inputs, req.Generation)
		if err != nil {
			return nil, err
		}
		RecordTokenGeneration(i.Model, countTexts(outputs))
		return &Result{Generations: keyed(outputs, i.resultKey)}, nil
	}

	return nil, fmt.Errorf("instance has unknown task kind %q", i.Kind)
}

// Close releases the instance's model.
func (i *Instance) Close() error {
	switch i.Kind {
	case KindClassification:
		return i.classification.Close()
	case KindQuestionAnswering:
		return i.qa.Close()
	case KindFillMask:
		return i.fillMask.Close()
	case KindText2Text:
		return i.text2text.Close()
	case KindGeneration:
		return i.generation.Close()
	}
	return nil
}

// keyed wraps generated texts under the task's result key.
func keyed(outputs [][]string, key string) [][]map[string]string {
	results := make([][]map[string]string, len(outputs))
	for i, texts := range outputs {
		wrapped := make([]map[string]string, len(texts))
		for j, text := range texts {
			wrapped[j] = map[string]string{key: text}
		}
		results[i] = wrapped
	}
	return results
}

func countTexts(outputs [][]string) int {
	n := 0
	for _, texts := range outputs {
		n += len(texts)
	}
	return n
}
