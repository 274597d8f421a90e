package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape_NumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{2, 3}, 6},
		{Shape{1}, 1},
		{Shape{4, 1, 5}, 20},
		{Shape{}, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.shape.NumElements(), "shape %v", tt.shape)
	}
}

func TestShape_Validate(t *testing.T) {
	require.NoError(t, Shape{2, 3}.Validate())
	require.Error(t, Shape{2, 0}.Validate())
	require.Error(t, Shape{-1, 3}.Validate())
}

func TestShape_ComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Equal(t, []int{1}, Shape{5}.ComputeStrides())
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b Shape
		want Shape
	}{
		{Shape{3, 1}, Shape{3, 4}, Shape{3, 4}},
		{Shape{1}, Shape{2, 3}, Shape{2, 3}},
		{Shape{2, 3}, Shape{2, 3}, Shape{2, 3}},
		{Shape{4, 1, 5}, Shape{3, 5}, Shape{4, 3, 5}},
	}
	for _, tt := range tests {
		got, _, err := BroadcastShapes(tt.a, tt.b)
		require.NoError(t, err, "%v vs %v", tt.a, tt.b)
		assert.True(t, got.Equal(tt.want), "%v vs %v: got %v, want %v", tt.a, tt.b, got, tt.want)
	}

	_, _, err := BroadcastShapes(Shape{2, 3}, Shape{2, 4})
	require.Error(t, err)
}

func TestNewRaw_ZeroInitialized(t *testing.T) {
	raw, err := NewRaw(Shape{2, 2}, Float32, CPU)
	require.NoError(t, err)
	for _, v := range raw.AsFloat32() {
		assert.Zero(t, v)
	}
	assert.Equal(t, 16, raw.ByteSize())
}

func TestRawTensor_CloneIsDeep(t *testing.T) {
	raw, err := NewRaw(Shape{3}, Float32, CPU)
	require.NoError(t, err)
	raw.AsFloat32()[0] = 1.5

	clone := raw.Clone()
	clone.AsFloat32()[0] = -2.0

	assert.Equal(t, float32(1.5), raw.AsFloat32()[0])
	assert.Equal(t, float32(-2.0), clone.AsFloat32()[0])
}

func TestRawTensor_WithShape(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Int64, CPU)
	require.NoError(t, err)
	raw.AsInt64()[5] = 7

	view := raw.WithShape(Shape{3, 2})
	assert.Equal(t, int64(7), view.AsInt64()[5])

	assert.Panics(t, func() { raw.WithShape(Shape{4}) })
}

func TestRawTensor_DTypeGuards(t *testing.T) {
	raw, err := NewRaw(Shape{2}, Float32, CPU)
	require.NoError(t, err)
	assert.Panics(t, func() { raw.AsInt64() })
}
