// Package inspect rebuilds individual blocks from saved model state so
// external tooling can probe them in isolation, and exposes raw
// attention matrices for plotting.
package inspect

import (
	"fmt"
	"strings"

	"github.com/abcnn-ml/abcnn/internal/nn"
	"github.com/abcnn-ml/abcnn/internal/setup"
	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// BlockPrefix returns the state-dict prefix of block j inside layer i
// of a saved model ("layers.<i>.blocks.<j>.").
func BlockPrefix(layer, block int) string {
	return fmt.Sprintf("layers.%d.blocks.%d.", layer, block)
}

// RebuildBlock constructs a fresh block from its configuration and
// overwrites its weights with the prefix-filtered subset of a saved
// model state. The rebuilt block's forward outputs are bit-identical
// to the source block's.
func RebuildBlock[B tensor.Backend](state map[string]*tensor.RawTensor, prefix string, cfg setup.BlockConfig, maxLength int, backend B) (nn.Block[B], error) {
	block, err := setup.Block(cfg, maxLength, backend)
	if err != nil {
		return nil, err
	}

	sub := make(map[string]*tensor.RawTensor)
	for name, raw := range state {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			sub[name[len(prefix):]] = raw
		}
	}
	if len(sub) == 0 {
		return nil, fmt.Errorf("no tensors under prefix %q", prefix)
	}
	if err := block.LoadStateDict(sub); err != nil {
		return nil, fmt.Errorf("load block state under %q: %w", prefix, err)
	}
	block.SetTraining(false)
	return block, nil
}

// AttentionMatrix recomputes the raw attention matrix of an
// attention-bearing block for the given input sequences [batch, L, d].
// Blocks without an attention stage return an error.
func AttentionMatrix[B tensor.Backend](block nn.Block[B], a, b *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	exporter, ok := block.(nn.AttentionExporter[B])
	if !ok {
		return nil, fmt.Errorf("block %T has no attention stage", block)
	}
	return exporter.AttentionMatrix(a, b), nil
}
