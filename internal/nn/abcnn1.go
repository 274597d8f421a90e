package nn

import (
	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// ABCNN1Block wraps the baseline unit with attention before
// convolution:
//
//	Attention1 -> Convolution(width, doubled input) -> WidthAP and AllAP
//
// The attention feature sequences are concatenated with the original
// sequences along the feature dimension, so the convolution consumes
// twice the input depth.
type ABCNN1Block[B tensor.Backend] struct {
	attention *ABCNN1Attention[B]
	conv      *Convolution[B]
	pool      *WidthAP[B]
	allAP     *AllAP[B]
	dropout   *Dropout[B]
}

// NewABCNN1Block creates an ABCNN-1 block.
func NewABCNN1Block[B tensor.Backend](attention *ABCNN1Attention[B], conv *Convolution[B], pool *WidthAP[B], dropoutRate float32) *ABCNN1Block[B] {
	return &ABCNN1Block[B]{
		attention: attention,
		conv:      conv,
		pool:      pool,
		allAP:     NewAllAP[B](),
		dropout:   NewDropout[B](dropoutRate),
	}
}

// Forward runs the block on a sentence pair.
func (blk *ABCNN1Block[B]) Forward(a, b, maskA, maskB *tensor.Tensor[float32, B]) *BlockOutput[B] {
	attnA, attnB := blk.attention.Forward(a, b)
	inA := tensor.Cat([]*tensor.Tensor[float32, B]{a, attnA}, 2)
	inB := tensor.Cat([]*tensor.Tensor[float32, B]{b, attnB}, 2)

	convA := blk.dropout.Forward(blk.conv.Forward(inA, SentenceA))
	convB := blk.dropout.Forward(blk.conv.Forward(inB, SentenceB))

	return &BlockOutput[B]{
		NextA:   blk.pool.Forward(convA),
		NextB:   blk.pool.Forward(convB),
		PooledA: blk.allAP.Forward(convA, maskA),
		PooledB: blk.allAP.Forward(convB, maskB),
	}
}

// AttentionMatrix recomputes the raw pre-convolution attention matrix
// for the given sequences. Read-only export for visualization.
func (blk *ABCNN1Block[B]) AttentionMatrix(a, b *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return blk.attention.Matrix(a, b)
}

// OutputSize returns the block's feature dimension.
func (blk *ABCNN1Block[B]) OutputSize() int {
	return blk.conv.OutputSize()
}

// SetTraining toggles dropout.
func (blk *ABCNN1Block[B]) SetTraining(training bool) {
	blk.dropout.SetTraining(training)
}

// Parameters returns the attention and convolution parameters.
func (blk *ABCNN1Block[B]) Parameters() []*Parameter[B] {
	return append(blk.attention.Parameters(), blk.conv.Parameters()...)
}

// StateDict returns the block weights under "attention." and "conv.".
func (blk *ABCNN1Block[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	addPrefixed(state, "attention.", blk.attention.StateDict())
	addPrefixed(state, "conv.", blk.conv.StateDict())
	return state
}

// LoadStateDict loads the block weights.
func (blk *ABCNN1Block[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := blk.attention.LoadStateDict(stripPrefixed(state, "attention.")); err != nil {
		return err
	}
	return blk.conv.LoadStateDict(stripPrefixed(state, "conv."))
}
