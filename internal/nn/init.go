package nn

import (
	"math"
	"math/rand"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// XavierNormal initializes a weight tensor with values drawn from
// N(0, sqrt(2 / (fan_in + fan_out))).
//
// Every learned weight in the model (convolution kernels, the
// classifier, the attention projections W1/W2) uses this scheme; biases
// start at zero. Each component applies its initializer once at
// construction.
func XavierNormal[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	std := math.Sqrt(2.0 / float64(fanIn+fanOut))

	raw, err := tensor.NewRaw(shape, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}

	data := raw.AsFloat32()
	for i := range data {
		//nolint:gosec // math/rand is appropriate for weight initialization
		data[i] = float32(rand.NormFloat64() * std)
	}
	return tensor.New[float32, B](raw, backend)
}

// Zeros creates a zero-filled float32 tensor, used for bias
// initialization.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}
