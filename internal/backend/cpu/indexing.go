package cpu

import (
	"fmt"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// Embedding gathers rows of weight [V, D] by int64 indices of any shape
// [...]; the result has shape [..., D].
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	if weight.DType() != tensor.Float32 {
		panic(fmt.Sprintf("embedding: weight must be float32, got %s", weight.DType()))
	}
	if indices.DType() != tensor.Int64 {
		panic(fmt.Sprintf("embedding: indices must be int64, got %s", indices.DType()))
	}
	if len(weight.Shape()) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D [vocab, depth], got %v", weight.Shape()))
	}

	vocab, depth := weight.Shape()[0], weight.Shape()[1]
	outShape := append(indices.Shape().Clone(), depth)

	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("embedding: %v", err))
	}

	rows := weight.AsFloat32()
	idx := indices.AsInt64()
	dst := result.AsFloat32()
	for i, ix := range idx {
		if ix < 0 || ix >= int64(vocab) {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", ix, vocab))
		}
		copy(dst[i*depth:(i+1)*depth], rows[ix*int64(depth):(ix+1)*int64(depth)])
	}
	return result
}
