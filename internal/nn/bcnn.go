package nn

import (
	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// BCNNBlock is the baseline convolution-pooling unit with no attention:
//
//	Convolution(width) -> WidthAP(width) [next layer] and AllAP [pooled]
//
// Dropout is applied to the convolution output before pooling, so both
// block outputs see the same dropped activations.
type BCNNBlock[B tensor.Backend] struct {
	conv    *Convolution[B]
	pool    *WidthAP[B]
	allAP   *AllAP[B]
	dropout *Dropout[B]
}

// NewBCNNBlock creates a BCNN block.
func NewBCNNBlock[B tensor.Backend](conv *Convolution[B], pool *WidthAP[B], dropoutRate float32) *BCNNBlock[B] {
	return &BCNNBlock[B]{
		conv:    conv,
		pool:    pool,
		allAP:   NewAllAP[B](),
		dropout: NewDropout[B](dropoutRate),
	}
}

// Forward runs the block on a sentence pair.
func (blk *BCNNBlock[B]) Forward(a, b, maskA, maskB *tensor.Tensor[float32, B]) *BlockOutput[B] {
	convA := blk.dropout.Forward(blk.conv.Forward(a, SentenceA))
	convB := blk.dropout.Forward(blk.conv.Forward(b, SentenceB))

	return &BlockOutput[B]{
		NextA:   blk.pool.Forward(convA),
		NextB:   blk.pool.Forward(convB),
		PooledA: blk.allAP.Forward(convA, maskA),
		PooledB: blk.allAP.Forward(convB, maskB),
	}
}

// OutputSize returns the block's feature dimension.
func (blk *BCNNBlock[B]) OutputSize() int {
	return blk.conv.OutputSize()
}

// SetTraining toggles dropout.
func (blk *BCNNBlock[B]) SetTraining(training bool) {
	blk.dropout.SetTraining(training)
}

// Parameters returns the convolution parameters.
func (blk *BCNNBlock[B]) Parameters() []*Parameter[B] {
	return blk.conv.Parameters()
}

// StateDict returns the block weights under "conv.".
func (blk *BCNNBlock[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	addPrefixed(state, "conv.", blk.conv.StateDict())
	return state
}

// LoadStateDict loads the block weights.
func (blk *BCNNBlock[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	return blk.conv.LoadStateDict(stripPrefixed(state, "conv."))
}
