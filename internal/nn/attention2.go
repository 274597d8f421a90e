package nn

import (
	"fmt"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// ABCNN2Attention injects attention after convolution.
//
// From the convolved sequences it computes the match-score matrix
// A [batch, L, L] and turns its row sums (for sentence A) and column
// sums (for sentence B) into per-position pooling weights: the
// next-layer sequence becomes an attention-weighted windowed sum of
// width w instead of WidthAP's uniform average, and the pooled vector
// becomes an attention-weighted average over non-padding positions.
//
// The component has no trainable parameters.
type ABCNN2Attention[B tensor.Backend] struct {
	maxLength int
	width     int
	score     MatchScore
}

// NewABCNN2Attention creates the attention-weighted pooling component.
func NewABCNN2Attention[B tensor.Backend](maxLength, width int, score MatchScore) *ABCNN2Attention[B] {
	if maxLength <= 0 || width <= 0 {
		panic(fmt.Sprintf("abcnn2 attention: invalid sizes length=%d, width=%d", maxLength, width))
	}
	return &ABCNN2Attention[B]{maxLength: maxLength, width: width, score: score}
}

// Matrix computes the raw attention matrix [batch, L, L] for the given
// (convolved) sequences without mutating any state. Exposed for
// visualization.
func (a *ABCNN2Attention[B]) Matrix(convA, convB *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return attentionMatrix(a.score, convA, convB)
}

// Forward applies attention-weighted pooling to both convolved
// sequences [batch, L, d] and returns the block outputs.
func (a *ABCNN2Attention[B]) Forward(convA, convB, maskA, maskB *tensor.Tensor[float32, B]) *BlockOutput[B] {
	if convA.Shape()[1] != a.maxLength {
		panic(fmt.Sprintf("abcnn2 attention: sequence length %d does not match max length %d",
			convA.Shape()[1], a.maxLength))
	}

	m := attentionMatrix(a.score, convA, convB) // [batch, L, L]
	weightsA := m.SumDim(2, false)              // row sums: weight of each A position
	weightsB := m.SumDim(1, false)              // column sums: weight of each B position

	return &BlockOutput[B]{
		NextA:   windowedWeightedSum(convA, weightsA, a.width),
		NextB:   windowedWeightedSum(convB, weightsB, a.width),
		PooledA: weightedAllAP(convA, weightsA, maskA),
		PooledB: weightedAllAP(convB, weightsB, maskB),
	}
}

// Width returns the pooling window width.
func (a *ABCNN2Attention[B]) Width() int {
	return a.width
}

// Parameters returns an empty slice.
func (a *ABCNN2Attention[B]) Parameters() []*Parameter[B] {
	return nil
}
