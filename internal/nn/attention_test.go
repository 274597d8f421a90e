package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abcnn-ml/abcnn/internal/backend/cpu"
	"github.com/abcnn-ml/abcnn/internal/tensor"
)

func TestABCNN1Attention_OutputShapes(t *testing.T) {
	backend := cpu.New()
	attn := NewABCNN1Attention(3, 4, true, Euclidean, backend)

	a := seq(t, make([]float32, 2*4*3), tensor.Shape{2, 4, 3})
	b := seq(t, make([]float32, 2*4*3), tensor.Shape{2, 4, 3})

	attnA, attnB := attn.Forward(a, b)
	assert.True(t, attnA.Shape().Equal(tensor.Shape{2, 4, 3}))
	assert.True(t, attnB.Shape().Equal(tensor.Shape{2, 4, 3}))
}

func TestABCNN1Attention_SharedProjection(t *testing.T) {
	backend := cpu.New()

	shared := NewABCNN1Attention(2, 3, true, Cosine, backend)
	assert.Len(t, shared.Parameters(), 1)
	assert.NotContains(t, shared.StateDict(), "W2")

	unshared := NewABCNN1Attention(2, 3, false, Cosine, backend)
	assert.Len(t, unshared.Parameters(), 2)
	assert.Contains(t, unshared.StateDict(), "W2")
}

func TestABCNN1Attention_ProjectionApplied(t *testing.T) {
	backend := cpu.New()
	attn := NewABCNN1Attention(1, 2, true, Euclidean, backend)
	// With W1 set to ones, attnA row i is the sum of attention row i.
	copy(attn.w1.Tensor().Raw().AsFloat32(), []float32{1, 1})

	a := seq(t, []float32{0, 0}, tensor.Shape{1, 2, 1})
	b := seq(t, []float32{0, 0}, tensor.Shape{1, 2, 1})

	// All positions identical: every attention entry is 1, rows sum to 2.
	attnA, attnB := attn.Forward(a, b)
	closeTo(t, []float32{2, 2}, attnA.Data(), 1e-6)
	closeTo(t, []float32{2, 2}, attnB.Data(), 1e-6)
}

func TestABCNN1Attention_LengthMismatchPanics(t *testing.T) {
	backend := cpu.New()
	attn := NewABCNN1Attention(1, 4, true, Euclidean, backend)

	a := seq(t, []float32{1, 2}, tensor.Shape{1, 2, 1})
	assert.Panics(t, func() { attn.Forward(a, a) })
}

func TestABCNN2Attention_OutputShapes(t *testing.T) {
	attn := NewABCNN2Attention[cpuT](3, 2, Euclidean)

	convA := seq(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{1, 3, 2})
	convB := seq(t, []float32{6, 5, 4, 3, 2, 1}, tensor.Shape{1, 3, 2})
	mask := seq(t, []float32{1, 1, 1}, tensor.Shape{1, 3})

	out := attn.Forward(convA, convB, mask, mask)
	assert.True(t, out.NextA.Shape().Equal(tensor.Shape{1, 3, 2}))
	assert.True(t, out.NextB.Shape().Equal(tensor.Shape{1, 3, 2}))
	assert.True(t, out.PooledA.Shape().Equal(tensor.Shape{1, 2}))
	assert.True(t, out.PooledB.Shape().Equal(tensor.Shape{1, 2}))
}

func TestABCNN2Attention_UniformAttentionMatchesPlainPooling(t *testing.T) {
	// When all positions of both sequences are identical the attention
	// weights are uniform, so the pooled vector equals the plain masked
	// average.
	attn := NewABCNN2Attention[cpuT](3, 1, Euclidean)

	convA := seq(t, []float32{2, 4, 2, 4, 2, 4}, tensor.Shape{1, 3, 2})
	convB := convA.Clone()
	mask := seq(t, []float32{1, 1, 1}, tensor.Shape{1, 3})

	out := attn.Forward(convA, convB, mask, mask)
	closeTo(t, []float32{2, 4}, out.PooledA.Data(), 1e-5)
	closeTo(t, []float32{2, 4}, out.PooledB.Data(), 1e-5)
}

func TestABCNN2Attention_NoParameters(t *testing.T) {
	attn := NewABCNN2Attention[cpuT](4, 2, Cosine)
	assert.Empty(t, attn.Parameters())
}

func blockInputs(t *testing.T) (a, b, mask *tensor.Tensor[float32, cpuT]) {
	t.Helper()
	a = seq(t, []float32{
		0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0, 0,
	}, tensor.Shape{1, 4, 2})
	b = seq(t, []float32{
		0.6, 0.5, 0.4, 0.3, 0.2, 0.1, 0, 0,
	}, tensor.Shape{1, 4, 2})
	mask = seq(t, []float32{1, 1, 1, 0}, tensor.Shape{1, 4})
	return a, b, mask
}

func TestBlocks_OutputShapes(t *testing.T) {
	backend := cpu.New()
	const (
		inSize  = 2
		outSize = 3
		length  = 4
		width   = 2
	)

	blocks := map[string]Block[cpuT]{
		"bcnn": NewBCNNBlock(
			NewConvolution(inSize, outSize, width, 1, true, backend),
			NewWidthAP[cpuT](width), 0),
		"abcnn1": NewABCNN1Block(
			NewABCNN1Attention(inSize, length, true, Euclidean, backend),
			NewConvolution(inSize, outSize, width, 2, true, backend),
			NewWidthAP[cpuT](width), 0),
		"abcnn2": NewABCNN2Block(
			NewConvolution(inSize, outSize, width, 1, true, backend),
			NewABCNN2Attention[cpuT](length, width, Euclidean), 0),
		"abcnn3": NewABCNN3Block(
			NewABCNN1Attention(inSize, length, true, Euclidean, backend),
			NewConvolution(inSize, outSize, width, 2, true, backend),
			NewABCNN2Attention[cpuT](length, width, Euclidean), 0),
	}

	a, b, mask := blockInputs(t)
	for name, blk := range blocks {
		out := blk.Forward(a, b, mask, mask)
		assert.True(t, out.NextA.Shape().Equal(tensor.Shape{1, length, outSize}), "%s nextA", name)
		assert.True(t, out.NextB.Shape().Equal(tensor.Shape{1, length, outSize}), "%s nextB", name)
		assert.True(t, out.PooledA.Shape().Equal(tensor.Shape{1, outSize}), "%s pooledA", name)
		assert.True(t, out.PooledB.Shape().Equal(tensor.Shape{1, outSize}), "%s pooledB", name)
		assert.Equal(t, outSize, blk.OutputSize(), name)
	}
}

func TestBlocks_AttentionExporter(t *testing.T) {
	backend := cpu.New()
	a, b, _ := blockInputs(t)

	var blk Block[cpuT] = NewABCNN1Block(
		NewABCNN1Attention(2, 4, true, Cosine, backend),
		NewConvolution(2, 3, 2, 2, true, backend),
		NewWidthAP[cpuT](2), 0)

	exporter, ok := blk.(AttentionExporter[cpuT])
	require.True(t, ok)
	m := exporter.AttentionMatrix(a, b)
	assert.True(t, m.Shape().Equal(tensor.Shape{1, 4, 4}))

	var plain Block[cpuT] = NewBCNNBlock(
		NewConvolution(2, 3, 2, 1, true, backend), NewWidthAP[cpuT](2), 0)
	_, ok = plain.(AttentionExporter[cpuT])
	assert.False(t, ok)
}

func TestBlock_StateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	newBlock := func() Block[cpuT] {
		return NewABCNN3Block(
			NewABCNN1Attention(2, 4, false, Euclidean, backend),
			NewConvolution(2, 3, 2, 2, false, backend),
			NewABCNN2Attention[cpuT](4, 2, Euclidean), 0)
	}

	src := newBlock()
	dst := newBlock()
	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	a, b, mask := blockInputs(t)
	srcOut := src.Forward(a, b, mask, mask)
	dstOut := dst.Forward(a, b, mask, mask)
	closeTo(t, srcOut.NextA.Data(), dstOut.NextA.Data(), 0)
	closeTo(t, srcOut.PooledA.Data(), dstOut.PooledA.Data(), 0)
	closeTo(t, srcOut.PooledB.Data(), dstOut.PooledB.Data(), 0)
}

func TestBlock_LoadStateDictMissingTensor(t *testing.T) {
	backend := cpu.New()
	blk := NewBCNNBlock(NewConvolution(2, 3, 2, 1, true, backend), NewWidthAP[cpuT](2), 0)

	err := blk.LoadStateDict(map[string]*tensor.RawTensor{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weight")
}

func TestDropout_EvalIsIdentity(t *testing.T) {
	d := NewDropout[cpuT](0.5)
	x := seq(t, []float32{1, 2, 3, 4}, tensor.Shape{4})
	closeTo(t, x.Data(), d.Forward(x).Data(), 0)
}

func TestDropout_TrainingDropsAndRescales(t *testing.T) {
	d := NewDropout[cpuT](0.5)
	d.SetTraining(true)

	x := seq(t, make([]float32, 1000), tensor.Shape{1000})
	for i := range x.Data() {
		x.Data()[i] = 1
	}

	out := d.Forward(x).Data()
	zeros := 0
	for _, v := range out {
		if v == 0 {
			zeros++
		} else {
			assert.InDelta(t, 2.0, v, 1e-6)
		}
	}
	// Half the elements drop in expectation; 1000 samples keep the
	// binomial spread well inside these bounds.
	assert.Greater(t, zeros, 350)
	assert.Less(t, zeros, 650)
}

func TestDropout_RateValidation(t *testing.T) {
	assert.Panics(t, func() { NewDropout[cpuT](1) })
	assert.Panics(t, func() { NewDropout[cpuT](-0.1) })
	assert.NotPanics(t, func() { NewDropout[cpuT](0) })
}
