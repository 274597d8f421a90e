package nn

import (
	"fmt"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// Embedding maps token-index sequences to dense vectors via a lookup
// table.
//
// The weight matrix is built once before training (row 0 is the zero
// vector reserved for padding) and its size and index mapping are fixed
// thereafter; the rows themselves may be fine-tuned.
//
// Forward: indices [batch, L] (int64) -> embeddings [batch, L, dim].
type Embedding[B tensor.Backend] struct {
	weight *Parameter[B] // [vocab, dim]
	vocab  int
	dim    int
}

// NewEmbedding creates an Embedding layer from a fully constructed
// weight matrix [vocab, dim].
func NewEmbedding[B tensor.Backend](weight *tensor.Tensor[float32, B]) (*Embedding[B], error) {
	shape := weight.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("embedding weight must be 2D [vocab, dim], got %v", shape)
	}
	return &Embedding[B]{
		weight: NewParameter("weight", weight),
		vocab:  shape[0],
		dim:    shape[1],
	}, nil
}

// Forward performs the embedding lookup.
// Panics if any index is out of bounds [0, vocab).
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int64, B]) *tensor.Tensor[float32, B] {
	backend := indices.Backend()
	raw := backend.Embedding(e.weight.Tensor().Raw(), indices.Raw())
	return tensor.New[float32, B](raw, backend)
}

// Vocab returns the number of rows in the lookup table.
func (e *Embedding[B]) Vocab() int {
	return e.vocab
}

// Dim returns the embedding dimension.
func (e *Embedding[B]) Dim() int {
	return e.dim
}

// Parameters returns the embedding weight.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.weight}
}

// StateDict returns the embedding weight under "weight".
func (e *Embedding[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{"weight": e.weight.Tensor().Raw()}
}

// LoadStateDict loads the embedding weight.
func (e *Embedding[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	return loadParam(state, "weight", e.weight)
}
