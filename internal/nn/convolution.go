package nn

import (
	"fmt"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// Sentence identifies which side of a pair a shared component is being
// applied to. Components with unshared weights select their weight set
// by it.
type Sentence int

// The two sides of a sentence pair.
const (
	SentenceA Sentence = iota
	SentenceB
)

// Convolution applies a width-w sliding-window tanh projection over the
// sequence dimension.
//
// The input sequence [batch, L, channels*inputSize] is zero-padded with
// w-1 positions split symmetrically (ceil((w-1)/2) left, the rest
// right), then every window of w consecutive positions is flattened and
// projected to outputSize, so the output is [batch, L, outputSize] for
// any width. Width 1 is a per-position linear (tanh) projection.
//
// channels is 2 when pre-convolution attention contributes its feature
// sequence as a second input channel, 1 otherwise.
//
// shareWeights controls whether both sentences of a pair are projected
// by the same kernel (required for comparable representations) or by
// independent kernels.
type Convolution[B tensor.Backend] struct {
	inputSize  int
	outputSize int
	width      int
	channels   int
	shared     bool

	weight [2]*Parameter[B] // [width*channels*inputSize, outputSize]
	bias   [2]*Parameter[B] // [outputSize]
}

// NewConvolution creates a Convolution with Xavier-normal weights and
// zero biases.
func NewConvolution[B tensor.Backend](inputSize, outputSize, width, channels int, shareWeights bool, backend B) *Convolution[B] {
	if inputSize <= 0 || outputSize <= 0 {
		panic(fmt.Sprintf("convolution: invalid sizes in=%d, out=%d", inputSize, outputSize))
	}
	if width <= 0 {
		panic(fmt.Sprintf("convolution: invalid width %d", width))
	}
	if channels != 1 && channels != 2 {
		panic(fmt.Sprintf("convolution: invalid channels %d", channels))
	}

	c := &Convolution[B]{
		inputSize:  inputSize,
		outputSize: outputSize,
		width:      width,
		channels:   channels,
		shared:     shareWeights,
	}

	fanIn := width * channels * inputSize
	kernelShape := tensor.Shape{fanIn, outputSize}

	c.weight[0] = NewParameter("weight", XavierNormal(fanIn, outputSize, kernelShape, backend))
	c.bias[0] = NewParameter("bias", Zeros(tensor.Shape{outputSize}, backend))
	if shareWeights {
		c.weight[1] = c.weight[0]
		c.bias[1] = c.bias[0]
	} else {
		c.weight[1] = NewParameter("weight_b", XavierNormal(fanIn, outputSize, kernelShape, backend))
		c.bias[1] = NewParameter("bias_b", Zeros(tensor.Shape{outputSize}, backend))
	}
	return c
}

// Forward convolves one sentence's feature sequence.
//
// Input: [batch, L, channels*inputSize]. Output: [batch, L, outputSize].
func (c *Convolution[B]) Forward(x *tensor.Tensor[float32, B], sentence Sentence) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("convolution: expected 3D input [batch, length, depth], got %v", shape))
	}
	depth := c.channels * c.inputSize
	if shape[2] != depth {
		panic(fmt.Sprintf("convolution: expected input depth %d, got %d", depth, shape[2]))
	}

	batch, length := shape[0], shape[1]
	left := c.width / 2
	right := (c.width - 1) - left

	windows := x.Pad(left, right).Unfold(c.width)          // [batch, L, width*depth]
	flat := windows.Reshape(batch*length, c.width*depth)   // [batch*L, width*depth]
	projected := flat.MatMul(c.weight[sentence].Tensor())  // [batch*L, out]
	projected = projected.Add(c.bias[sentence].Tensor().Reshape(1, c.outputSize))
	return projected.Tanh().Reshape(batch, length, c.outputSize)
}

// OutputSize returns the per-position output dimension.
func (c *Convolution[B]) OutputSize() int {
	return c.outputSize
}

// Width returns the convolution window width.
func (c *Convolution[B]) Width() int {
	return c.width
}

// Shared reports whether both sentences use the same kernel.
func (c *Convolution[B]) Shared() bool {
	return c.shared
}

// Parameters returns the kernel weights and biases.
func (c *Convolution[B]) Parameters() []*Parameter[B] {
	params := []*Parameter[B]{c.weight[0], c.bias[0]}
	if !c.shared {
		params = append(params, c.weight[1], c.bias[1])
	}
	return params
}

// StateDict returns the kernel weights under "weight"/"bias" (plus
// "weight_b"/"bias_b" when the sentences do not share weights).
func (c *Convolution[B]) StateDict() map[string]*tensor.RawTensor {
	state := map[string]*tensor.RawTensor{
		"weight": c.weight[0].Tensor().Raw(),
		"bias":   c.bias[0].Tensor().Raw(),
	}
	if !c.shared {
		state["weight_b"] = c.weight[1].Tensor().Raw()
		state["bias_b"] = c.bias[1].Tensor().Raw()
	}
	return state
}

// LoadStateDict loads the kernel weights.
func (c *Convolution[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := loadParam(state, "weight", c.weight[0]); err != nil {
		return err
	}
	if err := loadParam(state, "bias", c.bias[0]); err != nil {
		return err
	}
	if c.shared {
		return nil
	}
	if err := loadParam(state, "weight_b", c.weight[1]); err != nil {
		return err
	}
	return loadParam(state, "bias_b", c.bias[1])
}
