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

// Package tensor provides raw model-output tensors and the reshape utility
// that turns a flat buffer plus a shape descriptor into a nested, row-major
// view of the data.
package tensor

import "fmt"

// Raw is a flat numeric buffer paired with its shape, as produced by a model
// backend. Product(Shape) must equal len(Data); Raw values are never mutated
// after the model returns them.
type Raw struct {
	// Data is the flat buffer, row-major (last dimension varies fastest).
	Data []float32

	// Shape holds the tensor dimensions, outermost first.
	Shape []int64
}

// ShapeMismatchError reports a reshape whose shape does not cover the buffer.
// It indicates a contract breach between the model output and the expected
// tensor layout.
type ShapeMismatchError struct {
	Shape []int64
	Len   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("tensor: shape %v requires %d elements, buffer has %d",
		e.Shape, product(e.Shape), e.Len)
}

func product(shape []int64) int64 {
	p := int64(1)
	for _, d := range shape {
		p *= d
	}
	return p
}

// Nested is a reshaped tensor. Each element is either a float32 leaf (for a
// one-dimensional tensor) or a Nested group one level deeper.
type Nested []any

// Reshape regroups a flat buffer into nested groups matching shape, outermost
// dimension first. Dimensions are folded from the innermost out: for each
// dimension size d the current sequence is regrouped into runs of exactly d
// elements, so the result reproduces row-major nesting. A zero-sized
// dimension yields empty groups at its level (the buffer must be empty for
// the product to match).
//
// Returns a ShapeMismatchError when product(shape) != len(data).
func Reshape(data []float32, shape []int64) (Nested, error) {
	if product(shape) != int64(len(data)) {
		return nil, &ShapeMismatchError{Shape: shape, Len: len(data)}
	}

	current := make([]any, len(data))
	for i, v := range data {
		current[i] = v
	}

	// Innermost dimension last in shape, folded first. The outermost
	// dimension is left as the top-level group count.
	for i := len(shape) - 1; i > 0; i-- {
		d := int(shape[i])
		if d == 0 {
			// After folding dimension i the sequence holds one group
			// per combination of the outer dimensions, all empty here.
			current = make([]any, product(shape[:i]))
			for j := range current {
				current[j] = Nested{}
			}
			continue
		}
		grouped := make([]any, 0, len(current)/d)
		var group Nested
		for _, el := range current {
			if len(group) == d {
				grouped = append(grouped, group)
				group = nil
			}
			group = append(group, el)
		}
		if len(group) > 0 {
			grouped = append(grouped, group)
		}
		current = grouped
	}

	return Nested(current), nil
}

// Flatten recovers the flat row-major buffer from a nested tensor.
func (n Nested) Flatten() []float32 {
	var out []float32
	var walk func(Nested)
	walk = func(g Nested) {
		for _, el := range g {
			switch v := el.(type) {
			case float32:
				out = append(out, v)
			case Nested:
				walk(v)
			}
		}
	}
	walk(n)
	return out
}

// Depth returns the nesting depth, which equals the rank of the shape the
// tensor was reshaped with.
func (n Nested) Depth() int {
	if len(n) == 0 {
		return 1
	}
	if g, ok := n[0].(Nested); ok {
		return 1 + g.Depth()
	}
	return 1
}

// Rows2D views a raw tensor as [rows][cols] without copying. The shape must
// have rank 2 and cover the buffer exactly.
func (t *Raw) Rows2D() ([][]float32, error) {
	if len(t.Shape) != 2 || product(t.Shape) != int64(len(t.Data)) {
		return nil, &ShapeMismatchError{Shape: t.Shape, Len: len(t.Data)}
	}
	rows, cols := int(t.Shape[0]), int(t.Shape[1])
	out := make([][]float32, rows)
	for i := 0; i < rows; i++ {
		out[i] = t.Data[i*cols : (i+1)*cols]
	}
	return out, nil
}

// Rows3D views a raw tensor as [batch][seq][inner] without copying. The shape
// must have rank 3 and cover the buffer exactly.
func (t *Raw) Rows3D() ([][][]float32, error) {
	if len(t.Shape) != 3 || product(t.Shape) != int64(len(t.Data)) {
		return nil, &ShapeMismatchError{Shape: t.Shape, Len: len(t.Data)}
	}
	batch, seq, inner := int(t.Shape[0]), int(t.Shape[1]), int(t.Shape[2])
	out := make([][][]float32, batch)
	for b := 0; b < batch; b++ {
		rows := make([][]float32, seq)
		base := b * seq * inner
		for s := 0; s < seq; s++ {
			rows[s] = t.Data[base+s*inner : base+(s+1)*inner]
		}
		out[b] = rows
	}
	return out, nil
}
