package cpu

import (
	"fmt"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// Reshape returns a view of x under a new shape (zero-copy).
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != x.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			x.Shape(), x.NumElements(), newShape, newShape.NumElements()))
	}
	return x.WithShape(newShape)
}

// Transpose permutes the dimensions of x. With no axes, all dimensions
// are reversed. The result is materialized contiguously.
func (cpu *CPUBackend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := x.Shape()
	rank := len(shape)

	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	if len(axes) != rank {
		panic(fmt.Sprintf("transpose: got %d axes for rank-%d tensor", len(axes), rank))
	}
	seen := make([]bool, rank)
	for _, a := range axes {
		if a < 0 || a >= rank || seen[a] {
			panic(fmt.Sprintf("transpose: invalid axes permutation %v for shape %v", axes, shape))
		}
		seen[a] = true
	}

	outShape := make(tensor.Shape, rank)
	for i, a := range axes {
		outShape[i] = shape[a]
	}

	result, err := tensor.NewRaw(outShape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	srcStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()

	copyPermuted := func(copyElem func(dst, src int)) {
		n := x.NumElements()
		for flat := 0; flat < n; flat++ {
			rem := flat
			src := 0
			for i, stride := range outStrides {
				idx := rem / stride
				rem -= idx * stride
				src += idx * srcStrides[axes[i]]
			}
			copyElem(flat, src)
		}
	}

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		copyPermuted(func(d, s int) { dst[d] = src[s] })
	case tensor.Int64:
		src, dst := x.AsInt64(), result.AsInt64()
		copyPermuted(func(d, s int) { dst[d] = src[s] })
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", x.DType()))
	}
	return result
}

// Cat concatenates tensors along a dimension.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: no tensors given")
	}

	first := tensors[0]
	rank := len(first.Shape())
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		panic(fmt.Sprintf("cat: dimension %d out of range for shape %v", dim, first.Shape()))
	}

	catSize := 0
	for _, t := range tensors {
		if t.DType() != first.DType() {
			panic("cat: mixed dtypes")
		}
		if len(t.Shape()) != rank {
			panic(fmt.Sprintf("cat: rank mismatch: %v vs %v", first.Shape(), t.Shape()))
		}
		for i, d := range t.Shape() {
			if i != dim && d != first.Shape()[i] {
				panic(fmt.Sprintf("cat: shapes differ outside dimension %d: %v vs %v", dim, first.Shape(), t.Shape()))
			}
		}
		catSize += t.Shape()[dim]
	}

	outShape := first.Shape().Clone()
	outShape[dim] = catSize

	result, err := tensor.NewRaw(outShape, first.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cat: %v", err))
	}

	// Treat each tensor as [outer, own-dim * inner] rows of bytes.
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= outShape[i]
	}
	inner := 1
	for i := dim + 1; i < rank; i++ {
		inner *= outShape[i]
	}

	elemSize := first.DType().Size()
	dst := result.Data()
	outRow := catSize * inner * elemSize
	colOffset := 0
	for _, t := range tensors {
		src := t.Data()
		row := t.Shape()[dim] * inner * elemSize
		for o := 0; o < outer; o++ {
			copy(dst[o*outRow+colOffset:o*outRow+colOffset+row], src[o*row:(o+1)*row])
		}
		colOffset += row
	}
	return result
}

// Unsqueeze inserts a dimension of size 1 at the given position.
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	rank := len(x.Shape())
	if dim < 0 {
		dim += rank + 1
	}
	if dim < 0 || dim > rank {
		panic(fmt.Sprintf("unsqueeze: dimension %d out of range for shape %v", dim, x.Shape()))
	}

	outShape := make(tensor.Shape, 0, rank+1)
	outShape = append(outShape, x.Shape()[:dim]...)
	outShape = append(outShape, 1)
	outShape = append(outShape, x.Shape()[dim:]...)
	return x.WithShape(outShape)
}

// Expand materializes x broadcast to the given shape.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("expand: expected float32 tensor, got %s", x.DType()))
	}

	outShape, _, err := tensor.BroadcastShapes(x.Shape(), shape)
	if err != nil || !outShape.Equal(shape) {
		panic(fmt.Sprintf("expand: cannot expand %v to %v", x.Shape(), shape))
	}

	result, rawErr := tensor.NewRaw(shape, tensor.Float32, cpu.device)
	if rawErr != nil {
		panic(fmt.Sprintf("expand: %v", rawErr))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()
	idx := newBroadcastIndexer(x.Shape(), shape)
	for i := range dst {
		dst[i] = src[idx.offset(i)]
	}
	return result
}
