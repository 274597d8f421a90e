package nn

import (
	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// ABCNN3Block combines both attention stages:
//
//	Attention1 -> Convolution(width, doubled input) ->
//	attention-weighted windowed pooling and attention-weighted AllAP
type ABCNN3Block[B tensor.Backend] struct {
	attention1 *ABCNN1Attention[B]
	conv       *Convolution[B]
	attention2 *ABCNN2Attention[B]
	dropout    *Dropout[B]
}

// NewABCNN3Block creates an ABCNN-3 block.
func NewABCNN3Block[B tensor.Backend](attention1 *ABCNN1Attention[B], conv *Convolution[B], attention2 *ABCNN2Attention[B], dropoutRate float32) *ABCNN3Block[B] {
	return &ABCNN3Block[B]{
		attention1: attention1,
		conv:       conv,
		attention2: attention2,
		dropout:    NewDropout[B](dropoutRate),
	}
}

// Forward runs the block on a sentence pair.
func (blk *ABCNN3Block[B]) Forward(a, b, maskA, maskB *tensor.Tensor[float32, B]) *BlockOutput[B] {
	attnA, attnB := blk.attention1.Forward(a, b)
	inA := tensor.Cat([]*tensor.Tensor[float32, B]{a, attnA}, 2)
	inB := tensor.Cat([]*tensor.Tensor[float32, B]{b, attnB}, 2)

	convA := blk.dropout.Forward(blk.conv.Forward(inA, SentenceA))
	convB := blk.dropout.Forward(blk.conv.Forward(inB, SentenceB))

	return blk.attention2.Forward(convA, convB, maskA, maskB)
}

// AttentionMatrix recomputes the raw pre-convolution attention matrix
// for the given sequences. Read-only export for visualization.
func (blk *ABCNN3Block[B]) AttentionMatrix(a, b *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return blk.attention1.Matrix(a, b)
}

// OutputSize returns the block's feature dimension.
func (blk *ABCNN3Block[B]) OutputSize() int {
	return blk.conv.OutputSize()
}

// SetTraining toggles dropout.
func (blk *ABCNN3Block[B]) SetTraining(training bool) {
	blk.dropout.SetTraining(training)
}

// Parameters returns the attention and convolution parameters.
func (blk *ABCNN3Block[B]) Parameters() []*Parameter[B] {
	return append(blk.attention1.Parameters(), blk.conv.Parameters()...)
}

// StateDict returns the block weights under "attention1." and "conv.".
func (blk *ABCNN3Block[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	addPrefixed(state, "attention1.", blk.attention1.StateDict())
	addPrefixed(state, "conv.", blk.conv.StateDict())
	return state
}

// LoadStateDict loads the block weights.
func (blk *ABCNN3Block[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := blk.attention1.LoadStateDict(stripPrefixed(state, "attention1.")); err != nil {
		return err
	}
	return blk.conv.LoadStateDict(stripPrefixed(state, "conv."))
}
