// Package nn implements the attention-augmented convolutional network
// for sentence-pair similarity.
//
// The building blocks mirror the architecture's composition rules:
//   - Embedding: token-index lookup with a fixed zero padding row
//   - Convolution: width-w sliding-window tanh projection over a sequence
//   - AllAP / WidthAP: whole-sequence and windowed average pooling
//   - ABCNN1Attention / ABCNN2Attention: pre- and post-convolution
//     attention over a sentence pair
//   - BCNNBlock, ABCNN1Block, ABCNN2Block, ABCNN3Block: the four
//     convolution-pooling units
//   - Layer: parallel blocks of different widths
//   - Model: layers in series plus the classification head
package nn

import (
	"fmt"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// Module is the interface for single-input components (Linear, Dropout,
// pooling). Pair-input components implement Block instead.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module for one input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	// Modules without trainable state return an empty slice.
	Parameters() []*Parameter[B]
}

// BlockOutput is the result of one block (or layer) applied to a
// sentence pair.
type BlockOutput[B tensor.Backend] struct {
	// NextA and NextB are the per-position sequences [batch, L, out]
	// feeding the next layer.
	NextA, NextB *tensor.Tensor[float32, B]

	// PooledA and PooledB are the fixed-size vectors [batch, out]
	// contributed to the final representation.
	PooledA, PooledB *tensor.Tensor[float32, B]
}

// Block is the shared contract of the four convolution-pooling units.
//
// Forward consumes both sentences' feature sequences [batch, L, in]
// plus their pad masks [batch, L] (1 for real tokens, 0 for padding)
// and produces next-layer sequences and pooled vectors for both.
type Block[B tensor.Backend] interface {
	Forward(a, b, maskA, maskB *tensor.Tensor[float32, B]) *BlockOutput[B]

	// Parameters returns all trainable parameters of the block.
	Parameters() []*Parameter[B]

	// OutputSize is the feature dimension of the block's outputs.
	OutputSize() int

	// SetTraining toggles training mode (dropout active) for the block.
	SetTraining(training bool)

	// StateDict and LoadStateDict expose the block's weights under
	// dotted local names (e.g. "conv.weight").
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(state map[string]*tensor.RawTensor) error
}

// AttentionExporter is implemented by blocks that can expose their raw
// attention matrix for visualization. The export is read-only: it
// recomputes the matrix from the given inputs without mutating state.
type AttentionExporter[B tensor.Backend] interface {
	AttentionMatrix(a, b *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
}

// addPrefixed copies src entries into dst under prefix+name.
func addPrefixed(dst map[string]*tensor.RawTensor, prefix string, src map[string]*tensor.RawTensor) {
	for name, t := range src {
		dst[prefix+name] = t
	}
}

// stripPrefixed collects the entries of state under the given prefix,
// with the prefix removed.
func stripPrefixed(state map[string]*tensor.RawTensor, prefix string) map[string]*tensor.RawTensor {
	sub := make(map[string]*tensor.RawTensor)
	for name, t := range state {
		if len(name) > len(prefix) && name[:len(prefix)] == prefix {
			sub[name[len(prefix):]] = t
		}
	}
	return sub
}

// loadParam copies the named state entry into the parameter, validating
// shape and dtype.
func loadParam[B tensor.Backend](state map[string]*tensor.RawTensor, name string, p *Parameter[B]) error {
	raw, ok := state[name]
	if !ok {
		return fmt.Errorf("missing %q in state dict", name)
	}
	want := p.Tensor().Raw()
	if !raw.Shape().Equal(want.Shape()) {
		return fmt.Errorf("%s: shape mismatch: expected %v, got %v", name, want.Shape(), raw.Shape())
	}
	if raw.DType() != want.DType() {
		return fmt.Errorf("%s: dtype mismatch: expected %s, got %s", name, want.DType(), raw.DType())
	}
	copy(want.Data(), raw.Data())
	return nil
}
