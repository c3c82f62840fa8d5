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

package tensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReshape(t *testing.T) {
	tests := []struct {
		name  string
		data  []float32
		shape []int64
		want  Nested
	}{
		{
			name:  "2x3",
			data:  []float32{1, 2, 3, 4, 5, 6},
			shape: []int64{2, 3},
			want: Nested{
				Nested{float32(1), float32(2), float32(3)},
				Nested{float32(4), float32(5), float32(6)},
			},
		},
		{
			name:  "2x2x2",
			data:  []float32{1, 2, 3, 4, 5, 6, 7, 8},
			shape: []int64{2, 2, 2},
			want: Nested{
				Nested{
					Nested{float32(1), float32(2)},
					Nested{float32(3), float32(4)},
				},
				Nested{
					Nested{float32(5), float32(6)},
					Nested{float32(7), float32(8)},
				},
			},
		},
		{
			name:  "rank one",
			data:  []float32{1, 2, 3},
			shape: []int64{3},
			want:  Nested{float32(1), float32(2), float32(3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reshape(tt.data, tt.shape)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.shape), got.Depth())
			assert.Equal(t, tt.data, got.Flatten())
		})
	}
}

func TestReshapeZeroDim(t *testing.T) {
	// Zero-sized dimensions are valid whenever the buffer is empty; the
	// outer dimensions still produce their declared group counts.
	got, err := Reshape([]float32{}, []int64{2, 0})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Nested{Nested{}, Nested{}}, got)

	got, err = Reshape([]float32{}, []int64{0, 3})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Reshape([]float32{}, []int64{2, 3, 0})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Nested{Nested{}, Nested{}, Nested{}}, got[0])
	assert.Empty(t, got.Flatten())

	// A zero dimension with a non-empty buffer is still a mismatch.
	_, err = Reshape([]float32{1}, []int64{1, 0})
	assert.Error(t, err)
}

func TestReshapeShapeMismatch(t *testing.T) {
	_, err := Reshape([]float32{1, 2, 3, 4, 5}, []int64{2, 3})
	require.Error(t, err)

	var shapeErr *ShapeMismatchError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, []int64{2, 3}, shapeErr.Shape)
	assert.Equal(t, 5, shapeErr.Len)
}

func TestRows2D(t *testing.T) {
	raw := &Raw{
		Data:  []float32{1, 2, 3, 4, 5, 6},
		Shape: []int64{2, 3},
	}

	rows, err := raw.Rows2D()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []float32{1, 2, 3}, rows[0])
	assert.Equal(t, []float32{4, 5, 6}, rows[1])

	_, err = (&Raw{Data: raw.Data, Shape: []int64{2, 2, 3}}).Rows2D()
	assert.Error(t, err)
}

func TestRows3D(t *testing.T) {
	raw := &Raw{
		Data:  []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		Shape: []int64{2, 3, 2},
	}

	rows, err := raw.Rows3D()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []float32{1, 2}, rows[0][0])
	assert.Equal(t, []float32{5, 6}, rows[0][2])
	assert.Equal(t, []float32{7, 8}, rows[1][0])
	assert.Equal(t, []float32{11, 12}, rows[1][2])

	_, err = (&Raw{Data: raw.Data, Shape: []int64{4, 3}}).Rows3D()
	assert.Error(t, err)
}
