package cpu

import (
	"fmt"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// Pad inserts zero positions before and after the sequence dimension
// (dimension 1) of a [batch, length, depth] tensor.
func (cpu *CPUBackend) Pad(x *tensor.RawTensor, before, after int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("pad: expected float32 tensor, got %s", x.DType()))
	}
	if len(x.Shape()) != 3 {
		panic(fmt.Sprintf("pad: expected 3D [batch, length, depth] tensor, got %v", x.Shape()))
	}
	if before < 0 || after < 0 {
		panic(fmt.Sprintf("pad: negative padding (%d, %d)", before, after))
	}

	batch, length, depth := x.Shape()[0], x.Shape()[1], x.Shape()[2]
	outLen := length + before + after

	result, err := tensor.NewRaw(tensor.Shape{batch, outLen, depth}, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("pad: %v", err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()
	for i := 0; i < batch; i++ {
		srcRow := src[i*length*depth : (i+1)*length*depth]
		dstRow := dst[i*outLen*depth+before*depth:]
		copy(dstRow[:length*depth], srcRow)
	}
	return result
}

// Unfold extracts every sliding window of the given width over the
// sequence dimension and flattens it: [B, L, D] -> [B, L-width+1, width*D].
//
// Window k of sequence i is the concatenation of positions k..k+width-1.
func (cpu *CPUBackend) Unfold(x *tensor.RawTensor, width int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("unfold: expected float32 tensor, got %s", x.DType()))
	}
	if len(x.Shape()) != 3 {
		panic(fmt.Sprintf("unfold: expected 3D [batch, length, depth] tensor, got %v", x.Shape()))
	}

	batch, length, depth := x.Shape()[0], x.Shape()[1], x.Shape()[2]
	if width < 1 || width > length {
		panic(fmt.Sprintf("unfold: width %d out of range for length %d", width, length))
	}
	outLen := length - width + 1

	result, err := tensor.NewRaw(tensor.Shape{batch, outLen, width * depth}, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("unfold: %v", err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()
	for i := 0; i < batch; i++ {
		seq := src[i*length*depth:]
		for k := 0; k < outLen; k++ {
			window := dst[(i*outLen+k)*width*depth:]
			copy(window[:width*depth], seq[k*depth:(k+width)*depth])
		}
	}
	return result
}
