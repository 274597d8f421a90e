package nn

import (
	"fmt"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// weightFloor keeps attention-weighted averages defined when the total
// weight over a sentence is zero (e.g. a fully padded input).
const weightFloor = 1e-8

// AllAP averages a feature sequence over its non-padding positions,
// producing one vector per sentence.
//
// Positions masked out (pad mask 0) contribute nothing to the average;
// a fully padded sentence pools to the zero vector rather than dividing
// by zero.
type AllAP[B tensor.Backend] struct{}

// NewAllAP creates an AllAP pooling module.
func NewAllAP[B tensor.Backend]() *AllAP[B] {
	return &AllAP[B]{}
}

// Forward pools x [batch, L, d] to [batch, d]. mask is [batch, L] with
// 1 for real tokens and 0 for padding; a nil mask averages over all L
// positions.
func (p *AllAP[B]) Forward(x, mask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(x.Shape()) != 3 {
		panic(fmt.Sprintf("allap: expected 3D input [batch, length, depth], got %v", x.Shape()))
	}
	if mask == nil {
		return x.MeanDim(1, false)
	}

	masked := x.Mul(mask.Unsqueeze(2))              // [batch, L, d]
	sum := masked.SumDim(1, false)                  // [batch, d]
	count := mask.SumDim(1, true)                   // [batch, 1]
	return sum.Div(count.ClampMin(1))
}

// Parameters returns an empty slice.
func (p *AllAP[B]) Parameters() []*Parameter[B] {
	return nil
}

// WidthAP averages every window of w consecutive positions, keeping the
// sequence length: the input is padded the same way as a width-w
// convolution, so output position i summarizes the receptive field the
// downstream convolution of the next layer will consume.
//
// Width 1 is the identity.
type WidthAP[B tensor.Backend] struct {
	width int
}

// NewWidthAP creates a WidthAP pooling module of the given width.
func NewWidthAP[B tensor.Backend](width int) *WidthAP[B] {
	if width <= 0 {
		panic(fmt.Sprintf("widthap: invalid width %d", width))
	}
	return &WidthAP[B]{width: width}
}

// Forward pools x [batch, L, d] to [batch, L, d].
func (p *WidthAP[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(x.Shape()) != 3 {
		panic(fmt.Sprintf("widthap: expected 3D input [batch, length, depth], got %v", x.Shape()))
	}
	if p.width == 1 {
		return x
	}

	batch, length, depth := x.Shape()[0], x.Shape()[1], x.Shape()[2]
	left := p.width / 2
	right := (p.width - 1) - left

	windows := x.Pad(left, right).Unfold(p.width)  // [batch, L, width*d]
	return windows.Reshape(batch, length, p.width, depth).MeanDim(2, false)
}

// Width returns the pooling window width.
func (p *WidthAP[B]) Width() int {
	return p.width
}

// Parameters returns an empty slice.
func (p *WidthAP[B]) Parameters() []*Parameter[B] {
	return nil
}

// windowedWeightedSum replaces WidthAP's uniform window average with
// attention-derived weights: output position i is the weighted sum of
// positions i..i+w-1 of the (padded) input, each scaled by its
// attention weight.
func windowedWeightedSum[B tensor.Backend](x, weights *tensor.Tensor[float32, B], width int) *tensor.Tensor[float32, B] {
	batch, length, depth := x.Shape()[0], x.Shape()[1], x.Shape()[2]
	left := width / 2
	right := (width - 1) - left

	weighted := x.Mul(weights.Unsqueeze(2)) // [batch, L, d]
	if width == 1 {
		return weighted
	}
	windows := weighted.Pad(left, right).Unfold(width) // [batch, L, width*d]
	return windows.Reshape(batch, length, width, depth).SumDim(2, false)
}

// weightedAllAP pools a sequence to one vector per sentence using
// attention weights restricted to non-padding positions. Zero total
// weight yields the zero vector.
func weightedAllAP[B tensor.Backend](x, weights, mask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	w := weights
	if mask != nil {
		w = w.Mul(mask)
	}
	sum := x.Mul(w.Unsqueeze(2)).SumDim(1, false) // [batch, d]
	total := w.SumDim(1, true)                    // [batch, 1]
	return sum.Div(total.ClampMin(weightFloor))
}
