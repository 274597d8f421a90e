package cpu_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abcnn-ml/abcnn/internal/backend/cpu"
	"github.com/abcnn-ml/abcnn/internal/tensor"
)

func fromSlice(t *testing.T, data []float32, shape tensor.Shape) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, cpu.New())
	require.NoError(t, err)
	return x
}

func assertClose(t *testing.T, want, got []float32, tol float64) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, "index %d", i)
	}
}

func TestAdd_SameShape(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromSlice(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})
	assertClose(t, []float32{11, 22, 33, 44}, a.Add(b).Data(), 0)
}

func TestAdd_Broadcast(t *testing.T) {
	// [2, 3] + [1, 3] broadcasts the row.
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	row := fromSlice(t, []float32{10, 20, 30}, tensor.Shape{1, 3})

	out := a.Add(row)
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 3}))
	assertClose(t, []float32{11, 22, 33, 14, 25, 36}, out.Data(), 0)
}

func TestMul_BroadcastColumn(t *testing.T) {
	// [2, 2] * [2, 1] scales each row.
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	col := fromSlice(t, []float32{10, 100}, tensor.Shape{2, 1})
	assertClose(t, []float32{10, 20, 300, 400}, a.Mul(col).Data(), 0)
}

func TestDiv_And_ClampMin(t *testing.T) {
	a := fromSlice(t, []float32{1, 4, 9}, tensor.Shape{3})
	b := fromSlice(t, []float32{2, 2, 3}, tensor.Shape{3})
	assertClose(t, []float32{0.5, 2, 3}, a.Div(b).Data(), 1e-6)

	c := fromSlice(t, []float32{-1, 0, 0.5}, tensor.Shape{3})
	assertClose(t, []float32{0.1, 0.1, 0.5}, c.ClampMin(0.1).Data(), 1e-6)
}

func TestUnaryOps(t *testing.T) {
	x := fromSlice(t, []float32{-1, 0, 1}, tensor.Shape{3})

	tanh := x.Tanh().Data()
	sigm := x.Sigmoid().Data()
	for i, v := range []float32{-1, 0, 1} {
		assert.InDelta(t, math.Tanh(float64(v)), float64(tanh[i]), 1e-6)
		assert.InDelta(t, 1/(1+math.Exp(-float64(v))), float64(sigm[i]), 1e-6)
	}

	sq := fromSlice(t, []float32{0, 4, 2.25}, tensor.Shape{3})
	assertClose(t, []float32{0, 2, 1.5}, sq.Sqrt().Data(), 1e-6)
}

func TestMatMul_KnownValues(t *testing.T) {
	// [[1, 2], [3, 4]] @ [[5, 6], [7, 8]] = [[19, 22], [43, 50]]
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromSlice(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})
	assertClose(t, []float32{19, 22, 43, 50}, a.MatMul(b).Data(), 1e-5)
}

func TestMatMul_Rectangular(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromSlice(t, []float32{1, 0, 0, 1, 1, 1}, tensor.Shape{3, 2})

	out := a.MatMul(b)
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 2}))
	assertClose(t, []float32{4, 5, 10, 11}, out.Data(), 1e-5)
}

func TestBatchMatMul(t *testing.T) {
	// Two independent 2x2 products.
	a := fromSlice(t, []float32{
		1, 0, 0, 1, // identity
		1, 2, 3, 4,
	}, tensor.Shape{2, 2, 2})
	b := fromSlice(t, []float32{
		5, 6, 7, 8,
		1, 0, 0, 1, // identity
	}, tensor.Shape{2, 2, 2})

	out := a.BatchMatMul(b)
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 2, 2}))
	assertClose(t, []float32{5, 6, 7, 8, 1, 2, 3, 4}, out.Data(), 1e-5)
}

func TestPad_SequenceDim(t *testing.T) {
	// [1, 2, 2] padded to [1, 4, 2] with one zero row each side.
	x := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 2, 2})

	out := x.Pad(1, 1)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 4, 2}))
	assertClose(t, []float32{0, 0, 1, 2, 3, 4, 0, 0}, out.Data(), 0)
}

func TestUnfold_Windows(t *testing.T) {
	// [1, 4, 1] with width 2 -> [1, 3, 2].
	x := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 4, 1})

	out := x.Unfold(2)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 3, 2}))
	assertClose(t, []float32{1, 2, 2, 3, 3, 4}, out.Data(), 0)
}

func TestUnfold_WidthValidation(t *testing.T) {
	x := fromSlice(t, []float32{1, 2}, tensor.Shape{1, 2, 1})
	assert.Panics(t, func() { x.Unfold(3) })
	assert.Panics(t, func() { x.Unfold(0) })
}

func TestSumDim_And_MeanDim(t *testing.T) {
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	rows := x.SumDim(1, false)
	assert.True(t, rows.Shape().Equal(tensor.Shape{2}))
	assertClose(t, []float32{6, 15}, rows.Data(), 1e-6)

	cols := x.SumDim(0, false)
	assert.True(t, cols.Shape().Equal(tensor.Shape{3}))
	assertClose(t, []float32{5, 7, 9}, cols.Data(), 1e-6)

	kept := x.MeanDim(1, true)
	assert.True(t, kept.Shape().Equal(tensor.Shape{2, 1}))
	assertClose(t, []float32{2, 5}, kept.Data(), 1e-6)
}

func TestTranspose(t *testing.T) {
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	xt := x.T()
	assert.True(t, xt.Shape().Equal(tensor.Shape{3, 2}))
	assertClose(t, []float32{1, 4, 2, 5, 3, 6}, xt.Data(), 0)
}

func TestTranspose_3D(t *testing.T) {
	// Swap the last two dims of [1, 2, 3].
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{1, 2, 3})

	out := x.Transpose(0, 2, 1)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 3, 2}))
	assertClose(t, []float32{1, 4, 2, 5, 3, 6}, out.Data(), 0)
}

func TestCat_FeatureDim(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromSlice(t, []float32{5, 6}, tensor.Shape{2, 1})

	out := tensor.Cat([]*tensor.Tensor[float32, *cpu.CPUBackend]{a, b}, 1)
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 3}))
	assertClose(t, []float32{1, 2, 5, 3, 4, 6}, out.Data(), 0)
}

func TestUnsqueeze_Expand(t *testing.T) {
	x := fromSlice(t, []float32{1, 2}, tensor.Shape{2})

	up := x.Unsqueeze(0)
	assert.True(t, up.Shape().Equal(tensor.Shape{1, 2}))

	exp := up.Expand(tensor.Shape{3, 2})
	assert.True(t, exp.Shape().Equal(tensor.Shape{3, 2}))
	assertClose(t, []float32{1, 2, 1, 2, 1, 2}, exp.Data(), 0)
}

func TestEmbedding_Gather(t *testing.T) {
	backend := cpu.New()
	weight, err := tensor.FromSlice([]float32{
		0, 0, // row 0 (padding)
		1, 2,
		3, 4,
	}, tensor.Shape{3, 2}, backend)
	require.NoError(t, err)

	indices, err := tensor.FromSlice([]int64{2, 0, 1, 1}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	raw := backend.Embedding(weight.Raw(), indices.Raw())
	assert.True(t, raw.Shape().Equal(tensor.Shape{2, 2, 2}))
	assertClose(t, []float32{3, 4, 0, 0, 1, 2, 1, 2}, raw.AsFloat32(), 0)
}

func TestEmbedding_OutOfRange(t *testing.T) {
	backend := cpu.New()
	weight, err := tensor.FromSlice([]float32{0, 0}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)
	indices, err := tensor.FromSlice([]int64{1}, tensor.Shape{1}, backend)
	require.NoError(t, err)

	assert.Panics(t, func() { backend.Embedding(weight.Raw(), indices.Raw()) })
}
