package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// Delegates to single-precision BLAS.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("matmul: expected float32 tensors, got %s and %s", a.DType(), b.DType()))
	}
	if len(a.Shape()) != 2 || len(b.Shape()) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v and %v", a.Shape(), b.Shape()))
	}

	m, k := a.Shape()[0], a.Shape()[1]
	k2, n := b.Shape()[0], b.Shape()[1]
	if k != k2 {
		panic(fmt.Sprintf("matmul: inner dimensions do not match: %v @ %v", a.Shape(), b.Shape()))
	}

	result, err := tensor.NewRaw(tensor.Shape{m, n}, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}

	gemm(m, n, k, a.AsFloat32(), b.AsFloat32(), result.AsFloat32())
	return result
}

// BatchMatMul performs batched matrix multiplication:
// (B, M, K) @ (B, K, N) -> (B, M, N).
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("batchmatmul: expected float32 tensors, got %s and %s", a.DType(), b.DType()))
	}
	if len(a.Shape()) != 3 || len(b.Shape()) != 3 {
		panic(fmt.Sprintf("batchmatmul: expected 3D tensors, got %v and %v", a.Shape(), b.Shape()))
	}

	batch, m, k := a.Shape()[0], a.Shape()[1], a.Shape()[2]
	if b.Shape()[0] != batch {
		panic(fmt.Sprintf("batchmatmul: batch sizes do not match: %v vs %v", a.Shape(), b.Shape()))
	}
	if b.Shape()[1] != k {
		panic(fmt.Sprintf("batchmatmul: inner dimensions do not match: %v @ %v", a.Shape(), b.Shape()))
	}
	n := b.Shape()[2]

	result, err := tensor.NewRaw(tensor.Shape{batch, m, n}, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("batchmatmul: %v", err))
	}

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	dst := result.AsFloat32()
	for i := 0; i < batch; i++ {
		gemm(m, n, k,
			aData[i*m*k:(i+1)*m*k],
			bData[i*k*n:(i+1)*k*n],
			dst[i*m*n:(i+1)*m*n])
	}
	return result
}

// gemm computes c = a @ b for row-major float32 buffers.
func gemm(m, n, k int, a, b, c []float32) {
	blas32.Implementation().Sgemm(blas.NoTrans, blas.NoTrans,
		m, n, k,
		1.0, a, k,
		b, n,
		0.0, c, n)
}
