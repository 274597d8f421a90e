package nn

import (
	"fmt"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// ABCNN1Attention injects attention before convolution.
//
// From the pre-convolution sequences it computes the match-score matrix
// A [batch, L, L], then derives an attention feature sequence for each
// sentence: sentence A receives A @ W1 and sentence B receives
// A^T @ W2, where W1, W2 are learned [L, inputSize] projections
// (identical when shareWeights is set). Blocks concatenate the
// attention features as a second input channel, doubling the effective
// convolution input depth.
type ABCNN1Attention[B tensor.Backend] struct {
	inputSize int
	maxLength int
	shared    bool
	score     MatchScore

	w1 *Parameter[B] // [maxLength, inputSize]
	w2 *Parameter[B] // [maxLength, inputSize]; w2 == w1 when shared
}

// NewABCNN1Attention creates the attention component with Xavier-normal
// projections.
func NewABCNN1Attention[B tensor.Backend](inputSize, maxLength int, shareWeights bool, score MatchScore, backend B) *ABCNN1Attention[B] {
	if inputSize <= 0 || maxLength <= 0 {
		panic(fmt.Sprintf("abcnn1 attention: invalid sizes input=%d, length=%d", inputSize, maxLength))
	}

	shape := tensor.Shape{maxLength, inputSize}
	a := &ABCNN1Attention[B]{
		inputSize: inputSize,
		maxLength: maxLength,
		shared:    shareWeights,
		score:     score,
	}
	a.w1 = NewParameter("W1", XavierNormal(inputSize, maxLength, shape, backend))
	if shareWeights {
		a.w2 = a.w1
	} else {
		a.w2 = NewParameter("W2", XavierNormal(inputSize, maxLength, shape, backend))
	}
	return a
}

// Matrix computes the raw attention matrix [batch, L, L] for the given
// sequences without mutating any state. Exposed for visualization.
func (a *ABCNN1Attention[B]) Matrix(seqA, seqB *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return attentionMatrix(a.score, seqA, seqB)
}

// Forward computes the attention feature sequences for both sentences.
//
// Inputs and outputs have shape [batch, L, inputSize].
func (a *ABCNN1Attention[B]) Forward(seqA, seqB *tensor.Tensor[float32, B]) (attnA, attnB *tensor.Tensor[float32, B]) {
	if seqA.Shape()[1] != a.maxLength {
		panic(fmt.Sprintf("abcnn1 attention: sequence length %d does not match max length %d",
			seqA.Shape()[1], a.maxLength))
	}

	m := attentionMatrix(a.score, seqA, seqB) // [batch, L, L]
	batch := seqA.Shape()[0]
	w1 := a.w1.Tensor().Unsqueeze(0).Expand(tensor.Shape{batch, a.maxLength, a.inputSize})
	w2 := a.w2.Tensor().Unsqueeze(0).Expand(tensor.Shape{batch, a.maxLength, a.inputSize})

	attnA = m.BatchMatMul(w1)
	attnB = m.Transpose(0, 2, 1).BatchMatMul(w2)
	return attnA, attnB
}

// Parameters returns the projection weights.
func (a *ABCNN1Attention[B]) Parameters() []*Parameter[B] {
	if a.shared {
		return []*Parameter[B]{a.w1}
	}
	return []*Parameter[B]{a.w1, a.w2}
}

// StateDict returns the projections under "W1" (and "W2" when not
// shared).
func (a *ABCNN1Attention[B]) StateDict() map[string]*tensor.RawTensor {
	state := map[string]*tensor.RawTensor{"W1": a.w1.Tensor().Raw()}
	if !a.shared {
		state["W2"] = a.w2.Tensor().Raw()
	}
	return state
}

// LoadStateDict loads the projection weights.
func (a *ABCNN1Attention[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := loadParam(state, "W1", a.w1); err != nil {
		return err
	}
	if a.shared {
		return nil
	}
	return loadParam(state, "W2", a.w2)
}
