package tensor

// Backend defines the interface compute backends must implement.
//
// The op surface is exactly what the attention-augmented convolutional
// model needs for a forward pass: element-wise arithmetic with
// broadcasting, matrix products, window extraction over the sequence
// dimension, reductions, shape manipulation, and the embedding gather.
//
// Implementations:
//   - CPU: pure Go kernels with a BLAS fast path for matmul
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Element-wise operations with a scalar.
	AddScalar(x *RawTensor, s float32) *RawTensor
	MulScalar(x *RawTensor, s float32) *RawTensor
	ClampMin(x *RawTensor, s float32) *RawTensor

	// Element-wise math.
	Tanh(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor

	// Matrix operations.
	// MatMul: [M, K] @ [K, N] -> [M, N]
	// BatchMatMul: [B, M, K] @ [B, K, N] -> [B, M, N]
	MatMul(a, b *RawTensor) *RawTensor
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Sequence operations over dimension 1 of a [batch, length, depth]
	// tensor.
	//
	// Pad inserts zero positions before and after the sequence.
	// Unfold extracts every window of the given width and flattens it:
	// [B, L, D] -> [B, L-width+1, width*D].
	Pad(x *RawTensor, before, after int) *RawTensor
	Unfold(x *RawTensor, width int) *RawTensor

	// Reductions.
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Shape and manipulation operations.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Transpose(x *RawTensor, axes ...int) *RawTensor
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor

	// Embedding gathers rows of weight [V, D] by indices (int64) of any
	// shape [...]: the result has shape [..., D].
	Embedding(weight, indices *RawTensor) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
