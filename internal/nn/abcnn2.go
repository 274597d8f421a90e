package nn

import (
	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// ABCNN2Block applies attention after convolution:
//
//	Convolution(width) -> attention-weighted windowed pooling [next
//	layer] and attention-weighted AllAP [pooled]
type ABCNN2Block[B tensor.Backend] struct {
	conv      *Convolution[B]
	attention *ABCNN2Attention[B]
	dropout   *Dropout[B]
}

// NewABCNN2Block creates an ABCNN-2 block.
func NewABCNN2Block[B tensor.Backend](conv *Convolution[B], attention *ABCNN2Attention[B], dropoutRate float32) *ABCNN2Block[B] {
	return &ABCNN2Block[B]{
		conv:      conv,
		attention: attention,
		dropout:   NewDropout[B](dropoutRate),
	}
}

// Forward runs the block on a sentence pair.
func (blk *ABCNN2Block[B]) Forward(a, b, maskA, maskB *tensor.Tensor[float32, B]) *BlockOutput[B] {
	convA := blk.dropout.Forward(blk.conv.Forward(a, SentenceA))
	convB := blk.dropout.Forward(blk.conv.Forward(b, SentenceB))
	return blk.attention.Forward(convA, convB, maskA, maskB)
}

// AttentionMatrix recomputes the raw post-convolution attention matrix
// for the given pre-convolution sequences. Read-only export for
// visualization.
func (blk *ABCNN2Block[B]) AttentionMatrix(a, b *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return blk.attention.Matrix(blk.conv.Forward(a, SentenceA), blk.conv.Forward(b, SentenceB))
}

// OutputSize returns the block's feature dimension.
func (blk *ABCNN2Block[B]) OutputSize() int {
	return blk.conv.OutputSize()
}

// SetTraining toggles dropout.
func (blk *ABCNN2Block[B]) SetTraining(training bool) {
	blk.dropout.SetTraining(training)
}

// Parameters returns the convolution parameters (the attention stage
// has none).
func (blk *ABCNN2Block[B]) Parameters() []*Parameter[B] {
	return blk.conv.Parameters()
}

// StateDict returns the block weights under "conv.".
func (blk *ABCNN2Block[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	addPrefixed(state, "conv.", blk.conv.StateDict())
	return state
}

// LoadStateDict loads the block weights.
func (blk *ABCNN2Block[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	return blk.conv.LoadStateDict(stripPrefixed(state, "conv."))
}
