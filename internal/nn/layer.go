package nn

import (
	"fmt"
	"strconv"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// Layer runs a set of blocks of possibly different widths in parallel
// on the same pair of input sequences.
//
// The blocks' pooled vectors are concatenated to form the layer's
// contribution to the final representation. Their next-layer sequences
// are concatenated along the feature dimension, so a following layer
// must be configured with input_size equal to the sum of this layer's
// block output sizes.
type Layer[B tensor.Backend] struct {
	blocks []Block[B]
}

// NewLayer creates a Layer from its blocks.
func NewLayer[B tensor.Backend](blocks []Block[B]) *Layer[B] {
	if len(blocks) == 0 {
		panic("layer: no blocks given")
	}
	return &Layer[B]{blocks: blocks}
}

// Forward runs every block on the pair and concatenates the results.
func (l *Layer[B]) Forward(a, b, maskA, maskB *tensor.Tensor[float32, B]) *BlockOutput[B] {
	if len(l.blocks) == 1 {
		return l.blocks[0].Forward(a, b, maskA, maskB)
	}

	nextA := make([]*tensor.Tensor[float32, B], len(l.blocks))
	nextB := make([]*tensor.Tensor[float32, B], len(l.blocks))
	pooledA := make([]*tensor.Tensor[float32, B], len(l.blocks))
	pooledB := make([]*tensor.Tensor[float32, B], len(l.blocks))
	for i, blk := range l.blocks {
		out := blk.Forward(a, b, maskA, maskB)
		nextA[i] = out.NextA
		nextB[i] = out.NextB
		pooledA[i] = out.PooledA
		pooledB[i] = out.PooledB
	}

	return &BlockOutput[B]{
		NextA:   tensor.Cat(nextA, 2),
		NextB:   tensor.Cat(nextB, 2),
		PooledA: tensor.Cat(pooledA, 1),
		PooledB: tensor.Cat(pooledB, 1),
	}
}

// Blocks returns the layer's blocks.
func (l *Layer[B]) Blocks() []Block[B] {
	return l.blocks
}

// OutputSize is the summed feature dimension of the layer's blocks.
func (l *Layer[B]) OutputSize() int {
	size := 0
	for _, blk := range l.blocks {
		size += blk.OutputSize()
	}
	return size
}

// SetTraining toggles training mode on every block.
func (l *Layer[B]) SetTraining(training bool) {
	for _, blk := range l.blocks {
		blk.SetTraining(training)
	}
}

// Parameters returns the parameters of every block.
func (l *Layer[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, blk := range l.blocks {
		params = append(params, blk.Parameters()...)
	}
	return params
}

// StateDict returns the layer weights under "blocks.<i>.".
func (l *Layer[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for i, blk := range l.blocks {
		addPrefixed(state, "blocks."+strconv.Itoa(i)+".", blk.StateDict())
	}
	return state
}

// LoadStateDict loads the layer weights.
func (l *Layer[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	for i, blk := range l.blocks {
		prefix := "blocks." + strconv.Itoa(i) + "."
		if err := blk.LoadStateDict(stripPrefixed(state, prefix)); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}
