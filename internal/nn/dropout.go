package nn

import (
	"fmt"
	"math/rand"

	"github.com/abcnn-ml/abcnn/internal/tensor"
)

// Dropout zeroes elements with probability rate during training and
// scales the survivors by 1/(1-rate) (inverted dropout). In evaluation
// mode it is the identity.
type Dropout[B tensor.Backend] struct {
	rate     float32
	training bool
}

// NewDropout creates a Dropout module. Blocks start in evaluation mode;
// SetTraining enables the stochastic path.
func NewDropout[B tensor.Backend](rate float32) *Dropout[B] {
	if rate < 0 || rate >= 1 {
		panic(fmt.Sprintf("dropout: rate %v outside [0, 1)", rate))
	}
	return &Dropout[B]{rate: rate}
}

// SetTraining toggles training mode.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Rate returns the configured drop probability.
func (d *Dropout[B]) Rate() float32 {
	return d.rate
}

// Forward applies dropout to the input.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.rate == 0 {
		return input
	}

	out := input.Clone()
	data := out.Data()
	scale := 1.0 / (1.0 - d.rate)
	for i := range data {
		//nolint:gosec // math/rand is appropriate for dropout sampling
		if rand.Float32() < d.rate {
			data[i] = 0
		} else {
			data[i] *= scale
		}
	}
	return out
}

// Parameters returns an empty slice (dropout has no trainable state).
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}
