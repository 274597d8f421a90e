package cpu

import "github.com/abcnn-ml/abcnn/internal/tensor"

// broadcastIndexer maps flat indices of the broadcast output shape back
// to flat indices of a (possibly smaller) operand shape. Dimensions of
// size 1 in the operand contribute a zero stride.
type broadcastIndexer struct {
	outStrides []int
	srcStrides []int
}

func newBroadcastIndexer(src, out tensor.Shape) broadcastIndexer {
	outStrides := out.ComputeStrides()
	srcStrides := make([]int, len(out))

	realStrides := src.ComputeStrides()
	offset := len(out) - len(src)
	for i := range out {
		j := i - offset
		if j < 0 || src[j] == 1 {
			srcStrides[i] = 0
			continue
		}
		srcStrides[i] = realStrides[j]
	}

	return broadcastIndexer{outStrides: outStrides, srcStrides: srcStrides}
}

// offset converts a flat output index to the operand's flat index.
func (bi broadcastIndexer) offset(flat int) int {
	src := 0
	for i, stride := range bi.outStrides {
		dim := flat / stride
		flat -= dim * stride
		src += dim * bi.srcStrides[i]
	}
	return src
}
