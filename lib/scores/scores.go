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

// Package scores ranks and normalizes model logits: a numerically stable
// softmax and a stable top-k selection over scored candidates.
package scores

import (
	"math"
	"sort"
)

// Candidate is a score paired with the index it came from.
type Candidate struct {
	Index int
	Score float32
}

// Softmax converts logits to a probability distribution. The maximum logit is
// subtracted before exponentiation so large values do not overflow. An empty
// input returns an empty slice.
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return []float32{}
	}

	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}

	out := make([]float32, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - max))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

// TopK returns the k highest-scoring candidates in descending score order,
// each carrying its original index. Ties keep the lower original index first.
// k larger than len(values) returns all of them; k <= 0 returns an empty
// slice.
func TopK(values []float32, k int) []Candidate {
	if k <= 0 {
		return []Candidate{}
	}

	cands := make([]Candidate, len(values))
	for i, v := range values {
		cands[i] = Candidate{Index: i, Score: v}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})

	if k > len(cands) {
		k = len(cands)
	}
	return cands[:k]
}

// TopKCandidates ranks pre-built candidates rather than raw values, keeping
// the caller's indices. Used where candidates were already filtered or carry
// indices into another sequence.
func TopKCandidates(cands []Candidate, k int) []Candidate {
	if k <= 0 {
		return []Candidate{}
	}

	sorted := make([]Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[:k]
}
